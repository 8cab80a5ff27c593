package repository

import (
	"context"
	"time"

	"github.com/bayramdkmn/notepad-intern/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NoteTagsRepo is the note/tag association, unique on (note_id, tag_id).
type NoteTagsRepo struct {
	MongoCollection *mongo.Collection
}

func NewNoteTagsRepo(db *mongo.Database) *NoteTagsRepo {
	return &NoteTagsRepo{MongoCollection: db.Collection(noteTagsCollection)}
}

func (r *NoteTagsRepo) Attach(ctx context.Context, noteID, tagID string, at time.Time) error {
	timer := trackDBOperation("insert", noteTagsCollection)
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.InsertOne(ctx, model.NoteTag{NoteID: noteID, TagID: tagID, CreatedAt: at})
	return mapError(err, "tag association")
}

// Detach reports whether an association was removed.
func (r *NoteTagsRepo) Detach(ctx context.Context, noteID, tagID string) (bool, error) {
	timer := trackDBOperation("delete", noteTagsCollection)
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.DeleteOne(ctx, bson.M{"note_id": noteID, "tag_id": tagID})
	if err != nil {
		return false, mapError(err, "tag association")
	}
	return result.DeletedCount > 0, nil
}

// TagIDs maps each note id to its tag ids in attachment order.
func (r *NoteTagsRepo) TagIDs(ctx context.Context, noteIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(noteIDs))
	if len(noteIDs) == 0 {
		return out, nil
	}
	rows, err := r.find(ctx, bson.M{"note_id": bson.M{"$in": noteIDs}})
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.NoteID] = append(out[row.NoteID], row.TagID)
	}
	return out, nil
}

func (r *NoteTagsRepo) NoteIDs(ctx context.Context, tagID string) ([]string, error) {
	rows, err := r.find(ctx, bson.M{"tag_id": tagID})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.NoteID)
	}
	return ids, nil
}

func (r *NoteTagsRepo) find(ctx context.Context, filter bson.M) ([]model.NoteTag, error) {
	timer := trackDBOperation("find", noteTagsCollection)
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapError(err, "tag association")
	}
	defer cursor.Close(ctx)

	var rows []model.NoteTag
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, mapError(err, "tag association")
	}
	return rows, nil
}

func (r *NoteTagsRepo) CountForNote(ctx context.Context, noteID string) (int64, error) {
	timer := trackDBOperation("count", noteTagsCollection)
	defer timer.ObserveDuration()

	count, err := r.MongoCollection.CountDocuments(ctx, bson.M{"note_id": noteID})
	if err != nil {
		return 0, mapError(err, "tag association")
	}
	return count, nil
}

func (r *NoteTagsRepo) DeleteByTag(ctx context.Context, tagID string) error {
	return r.deleteMany(ctx, bson.M{"tag_id": tagID})
}

func (r *NoteTagsRepo) DeleteByNotes(ctx context.Context, noteIDs []string) error {
	if len(noteIDs) == 0 {
		return nil
	}
	return r.deleteMany(ctx, bson.M{"note_id": bson.M{"$in": noteIDs}})
}

func (r *NoteTagsRepo) deleteMany(ctx context.Context, filter bson.M) error {
	timer := trackDBOperation("delete", noteTagsCollection)
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.DeleteMany(ctx, filter)
	return mapError(err, "tag association")
}
