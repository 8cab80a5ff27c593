package repository

import (
	"context"
	"regexp"

	"github.com/bayramdkmn/notepad-intern/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TagsRepo stores user and global tags. A global tag has a null user_id.
type TagsRepo struct {
	MongoCollection *mongo.Collection
}

func NewTagsRepo(db *mongo.Database) *TagsRepo {
	return &TagsRepo{MongoCollection: db.Collection(tagsCollection)}
}

func ownerFilter(userID *string) interface{} {
	if userID == nil {
		return nil
	}
	return *userID
}

func (r *TagsRepo) Create(ctx context.Context, tag *model.Tag) error {
	timer := trackDBOperation("insert", tagsCollection)
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.InsertOne(ctx, tag)
	return mapError(err, "tag")
}

func (r *TagsRepo) GetByID(ctx context.Context, id string) (*model.Tag, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByName looks a name up within one owner; nil means the global scope.
func (r *TagsRepo) GetByName(ctx context.Context, userID *string, name string) (*model.Tag, error) {
	return r.findOne(ctx, bson.M{"user_id": ownerFilter(userID), "name": name})
}

func (r *TagsRepo) findOne(ctx context.Context, filter bson.M) (*model.Tag, error) {
	timer := trackDBOperation("find", tagsCollection)
	defer timer.ObserveDuration()

	var tag model.Tag
	if err := r.MongoCollection.FindOne(ctx, filter).Decode(&tag); err != nil {
		return nil, mapError(err, "tag")
	}
	return &tag, nil
}

func (r *TagsRepo) GetByIDs(ctx context.Context, ids []string) ([]*model.Tag, error) {
	if len(ids) == 0 {
		return []*model.Tag{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *TagsRepo) ListByUser(ctx context.Context, userID *string) ([]*model.Tag, error) {
	return r.find(ctx, bson.M{"user_id": ownerFilter(userID)})
}

// Search matches tag names containing query, case-insensitively, among the
// user's own tags and the global ones.
func (r *TagsRepo) Search(ctx context.Context, userID, query string) ([]*model.Tag, error) {
	filter := bson.M{
		"name": primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"},
		"$or": []bson.M{
			{"user_id": userID},
			{"is_global": true},
		},
	}
	return r.find(ctx, filter)
}

func (r *TagsRepo) find(ctx context.Context, filter bson.M) ([]*model.Tag, error) {
	timer := trackDBOperation("find", tagsCollection)
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapError(err, "tag")
	}
	defer cursor.Close(ctx)

	tags := []*model.Tag{}
	if err := cursor.All(ctx, &tags); err != nil {
		return nil, mapError(err, "tag")
	}
	return tags, nil
}

func (r *TagsRepo) Update(ctx context.Context, tag *model.Tag) error {
	timer := trackDBOperation("update", tagsCollection)
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.ReplaceOne(ctx, bson.M{"_id": tag.ID}, tag)
	if err != nil {
		return mapError(err, "tag")
	}
	if result.MatchedCount == 0 {
		return mapError(mongo.ErrNoDocuments, "tag")
	}
	return nil
}

func (r *TagsRepo) Delete(ctx context.Context, id string) error {
	timer := trackDBOperation("delete", tagsCollection)
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapError(err, "tag")
	}
	if result.DeletedCount == 0 {
		return mapError(mongo.ErrNoDocuments, "tag")
	}
	return nil
}
