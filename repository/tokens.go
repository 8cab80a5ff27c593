package repository

import (
	"context"
	"time"

	"github.com/bayramdkmn/notepad-intern/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TokensRepo stores live refresh tokens.
type TokensRepo struct {
	MongoCollection *mongo.Collection
}

func NewTokensRepo(db *mongo.Database) *TokensRepo {
	return &TokensRepo{MongoCollection: db.Collection(tokensCollection)}
}

func (r *TokensRepo) Create(ctx context.Context, token *model.Token) error {
	timer := trackDBOperation("insert", tokensCollection)
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.InsertOne(ctx, token)
	return mapError(err, "token")
}

func (r *TokensRepo) GetByJTI(ctx context.Context, jti string) (*model.Token, error) {
	timer := trackDBOperation("find", tokensCollection)
	defer timer.ObserveDuration()

	var token model.Token
	if err := r.MongoCollection.FindOne(ctx, bson.M{"jti": jti}).Decode(&token); err != nil {
		return nil, mapError(err, "token")
	}
	return &token, nil
}

func (r *TokensRepo) ListByUser(ctx context.Context, userID, tokenType string) ([]*model.Token, error) {
	timer := trackDBOperation("find", tokensCollection)
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.MongoCollection.Find(ctx, bson.M{"user_id": userID, "token_type": tokenType}, opts)
	if err != nil {
		return nil, mapError(err, "token")
	}
	defer cursor.Close(ctx)

	tokens := []*model.Token{}
	if err := cursor.All(ctx, &tokens); err != nil {
		return nil, mapError(err, "token")
	}
	return tokens, nil
}

func (r *TokensRepo) Delete(ctx context.Context, id string) error {
	timer := trackDBOperation("delete", tokensCollection)
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapError(err, "token")
	}
	if result.DeletedCount == 0 {
		return mapError(mongo.ErrNoDocuments, "token")
	}
	return nil
}

// DeleteExpired removes live records past their expiry. Blacklist entries
// are kept.
func (r *TokensRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	timer := trackDBOperation("delete", tokensCollection)
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, mapError(err, "token")
	}
	return result.DeletedCount, nil
}
