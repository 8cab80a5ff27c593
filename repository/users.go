package repository

import (
	"context"

	"github.com/bayramdkmn/notepad-intern/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type UsersRepo struct {
	MongoCollection *mongo.Collection
}

func NewUsersRepo(db *mongo.Database) *UsersRepo {
	return &UsersRepo{MongoCollection: db.Collection(usersCollection)}
}

func (r *UsersRepo) Create(ctx context.Context, user *model.User) error {
	timer := trackDBOperation("insert", usersCollection)
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.InsertOne(ctx, user)
	return mapError(err, "user")
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UsersRepo) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	timer := trackDBOperation("find", usersCollection)
	defer timer.ObserveDuration()

	var user model.User
	if err := r.MongoCollection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, mapError(err, "user")
	}
	return &user, nil
}

// ExistsByEmail ignores the user with excludeID so profile updates can keep
// their own address.
func (r *UsersRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return r.exists(ctx, "email", email, excludeID)
}

func (r *UsersRepo) ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error) {
	return r.exists(ctx, "username", username, excludeID)
}

func (r *UsersRepo) exists(ctx context.Context, field, value, excludeID string) (bool, error) {
	timer := trackDBOperation("count", usersCollection)
	defer timer.ObserveDuration()

	filter := bson.M{field: value}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	count, err := r.MongoCollection.CountDocuments(ctx, filter)
	if err != nil {
		return false, mapError(err, "user")
	}
	return count > 0, nil
}

func (r *UsersRepo) Update(ctx context.Context, user *model.User) error {
	timer := trackDBOperation("update", usersCollection)
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return mapError(err, "user")
	}
	if result.MatchedCount == 0 {
		return mapError(mongo.ErrNoDocuments, "user")
	}
	return nil
}
