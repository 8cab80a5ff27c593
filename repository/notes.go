package repository

import (
	"context"
	"time"

	"github.com/bayramdkmn/notepad-intern/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotesRepo struct {
	MongoCollection *mongo.Collection
}

func NewNotesRepo(db *mongo.Database) *NotesRepo {
	return &NotesRepo{MongoCollection: db.Collection(notesCollection)}
}

func noteFilter(f model.NoteFilter) bson.M {
	filter := bson.M{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if len(f.IDs) > 0 {
		filter["_id"] = bson.M{"$in": f.IDs}
	}
	if f.Deleted != nil {
		if *f.Deleted {
			filter["deleted_at"] = bson.M{"$ne": nil}
		} else {
			filter["deleted_at"] = nil
		}
	}
	if f.DeletedBefore != nil {
		filter["deleted_at"] = bson.M{"$ne": nil, "$lte": *f.DeletedBefore}
	}

	flags := []struct {
		field string
		value *bool
	}{
		{"is_pinned", f.Pinned},
		{"is_archived", f.Archived},
		{"favorite", f.Favorite},
		{"is_active", f.Active},
		{"is_feature_note", f.Featured},
	}
	for _, flag := range flags {
		if flag.value != nil {
			filter[flag.field] = *flag.value
		}
	}
	return filter
}

func (r *NotesRepo) Create(ctx context.Context, note *model.Note) error {
	timer := trackDBOperation("insert", notesCollection)
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.InsertOne(ctx, note)
	return mapError(err, "note")
}

// GetByID returns the user's note whether or not it is soft-deleted.
func (r *NotesRepo) GetByID(ctx context.Context, userID, id string) (*model.Note, error) {
	timer := trackDBOperation("find", notesCollection)
	defer timer.ObserveDuration()

	var note model.Note
	err := r.MongoCollection.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&note)
	if err != nil {
		return nil, mapError(err, "note")
	}
	return &note, nil
}

// Find returns matching notes, newest first.
func (r *NotesRepo) Find(ctx context.Context, f model.NoteFilter) ([]*model.Note, error) {
	timer := trackDBOperation("find", notesCollection)
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := r.MongoCollection.Find(ctx, noteFilter(f), opts)
	if err != nil {
		return nil, mapError(err, "note")
	}
	defer cursor.Close(ctx)

	notes := []*model.Note{}
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, mapError(err, "note")
	}
	return notes, nil
}

func (r *NotesRepo) Count(ctx context.Context, f model.NoteFilter) (int64, error) {
	timer := trackDBOperation("count", notesCollection)
	defer timer.ObserveDuration()

	count, err := r.MongoCollection.CountDocuments(ctx, noteFilter(f))
	if err != nil {
		return 0, mapError(err, "note")
	}
	return count, nil
}

func (r *NotesRepo) Update(ctx context.Context, note *model.Note) error {
	timer := trackDBOperation("update", notesCollection)
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.ReplaceOne(ctx, bson.M{"_id": note.ID, "user_id": note.UserID}, note)
	if err != nil {
		return mapError(err, "note")
	}
	if result.MatchedCount == 0 {
		return mapError(mongo.ErrNoDocuments, "note")
	}
	return nil
}

func (r *NotesRepo) SoftDelete(ctx context.Context, ids []string, at time.Time) error {
	timer := trackDBOperation("update", notesCollection)
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"deleted_at": at, "updated_at": at}},
	)
	return mapError(err, "note")
}

func (r *NotesRepo) Delete(ctx context.Context, ids []string) (int64, error) {
	timer := trackDBOperation("delete", notesCollection)
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, mapError(err, "note")
	}
	return result.DeletedCount, nil
}
