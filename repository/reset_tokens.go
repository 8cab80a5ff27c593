package repository

import (
	"context"
	"time"

	"github.com/bayramdkmn/notepad-intern/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ResetTokensRepo struct {
	MongoCollection *mongo.Collection
}

func NewResetTokensRepo(db *mongo.Database) *ResetTokensRepo {
	return &ResetTokensRepo{MongoCollection: db.Collection(resetTokensCollection)}
}

func (r *ResetTokensRepo) Create(ctx context.Context, token *model.PasswordResetToken) error {
	timer := trackDBOperation("insert", resetTokensCollection)
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.InsertOne(ctx, token)
	return mapError(err, "reset token")
}

func (r *ResetTokensRepo) GetByToken(ctx context.Context, token string) (*model.PasswordResetToken, error) {
	return r.findOne(ctx, bson.M{"token": token})
}

// LatestUsable returns the newest unused reset token of the user that has
// not expired at now.
func (r *ResetTokensRepo) LatestUsable(ctx context.Context, userID string, now time.Time) (*model.PasswordResetToken, error) {
	filter := bson.M{
		"user_id":    userID,
		"used":       false,
		"expires_at": bson.M{"$gt": now},
	}
	return r.findOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *ResetTokensRepo) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*model.PasswordResetToken, error) {
	timer := trackDBOperation("find", resetTokensCollection)
	defer timer.ObserveDuration()

	var token model.PasswordResetToken
	if err := r.MongoCollection.FindOne(ctx, filter, opts...).Decode(&token); err != nil {
		return nil, mapError(err, "reset token")
	}
	return &token, nil
}

func (r *ResetTokensRepo) MarkUsed(ctx context.Context, id string) error {
	timer := trackDBOperation("update", resetTokensCollection)
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.UpdateOne(ctx,
		bson.M{"_id": id, "used": false},
		bson.M{"$set": bson.M{"used": true}},
	)
	if err != nil {
		return mapError(err, "reset token")
	}
	if result.MatchedCount == 0 {
		return mapError(mongo.ErrNoDocuments, "reset token")
	}
	return nil
}

func (r *ResetTokensRepo) RecordFailedAttempt(ctx context.Context, id string, limit int) (bool, error) {
	timer := trackDBOperation("update", resetTokensCollection)
	defer timer.ObserveDuration()

	var token model.PasswordResetToken
	err := r.MongoCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"failed_attempts": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&token)
	if err != nil {
		return false, mapError(err, "reset token")
	}
	if token.FailedAttempts < limit {
		return false, nil
	}

	if _, err := r.MongoCollection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"used": true}},
	); err != nil {
		return false, mapError(err, "reset token")
	}
	return true, nil
}
