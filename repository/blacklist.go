package repository

import (
	"context"

	"github.com/bayramdkmn/notepad-intern/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BlacklistRepo is the append-only revocation list. jti and token are both
// uniquely indexed.
type BlacklistRepo struct {
	MongoCollection *mongo.Collection
}

func NewBlacklistRepo(db *mongo.Database) *BlacklistRepo {
	return &BlacklistRepo{MongoCollection: db.Collection(blacklistCollection)}
}

func (r *BlacklistRepo) Add(ctx context.Context, entry *model.BlacklistedToken) error {
	timer := trackDBOperation("insert", blacklistCollection)
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.InsertOne(ctx, entry)
	return mapError(err, "blacklist entry")
}

func (r *BlacklistRepo) ExistsByJTI(ctx context.Context, jti string) (bool, error) {
	return r.exists(ctx, bson.M{"jti": jti})
}

func (r *BlacklistRepo) ExistsByToken(ctx context.Context, token string) (bool, error) {
	return r.exists(ctx, bson.M{"token": token})
}

func (r *BlacklistRepo) exists(ctx context.Context, filter bson.M) (bool, error) {
	timer := trackDBOperation("count", blacklistCollection)
	defer timer.ObserveDuration()

	count, err := r.MongoCollection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, mapError(err, "blacklist entry")
	}
	return count > 0, nil
}
