package repository

import (
	"context"
	"errors"

	"github.com/bayramdkmn/notepad-intern/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NoteVersionsRepo struct {
	MongoCollection *mongo.Collection
}

func NewNoteVersionsRepo(db *mongo.Database) *NoteVersionsRepo {
	return &NoteVersionsRepo{MongoCollection: db.Collection(noteVersionsCollection)}
}

func (r *NoteVersionsRepo) Create(ctx context.Context, version *model.NoteVersion) error {
	timer := trackDBOperation("insert", noteVersionsCollection)
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.InsertOne(ctx, version)
	return mapError(err, "note version")
}

// Latest returns the highest version number of the note, or 0.
func (r *NoteVersionsRepo) Latest(ctx context.Context, noteID string) (int, error) {
	timer := trackDBOperation("find", noteVersionsCollection)
	defer timer.ObserveDuration()

	var version model.NoteVersion
	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})
	err := r.MongoCollection.FindOne(ctx, bson.M{"note_id": noteID}, opts).Decode(&version)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, mapError(err, "note version")
	}
	return version.Version, nil
}

// ListByNote returns versions newest first.
func (r *NoteVersionsRepo) ListByNote(ctx context.Context, noteID string) ([]*model.NoteVersion, error) {
	timer := trackDBOperation("find", noteVersionsCollection)
	defer timer.ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "version", Value: -1}})
	cursor, err := r.MongoCollection.Find(ctx, bson.M{"note_id": noteID}, opts)
	if err != nil {
		return nil, mapError(err, "note version")
	}
	defer cursor.Close(ctx)

	versions := []*model.NoteVersion{}
	if err := cursor.All(ctx, &versions); err != nil {
		return nil, mapError(err, "note version")
	}
	return versions, nil
}

func (r *NoteVersionsRepo) DeleteByNotes(ctx context.Context, noteIDs []string) error {
	if len(noteIDs) == 0 {
		return nil
	}
	timer := trackDBOperation("delete", noteVersionsCollection)
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.DeleteMany(ctx, bson.M{"note_id": bson.M{"$in": noteIDs}})
	return mapError(err, "note version")
}
