package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SetupIndexes creates the indexes every collection relies on, including the
// unique constraints that back Conflict errors.
func SetupIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("unique_email").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "username", Value: 1}},
				Options: options.Index().SetName("unique_username").SetUnique(true),
			},
		},
		notesCollection: {
			{
				Keys: bson.D{
					{Key: "user_id", Value: 1},
					{Key: "created_at", Value: -1},
				},
				Options: options.Index().SetName("user_notes_date"),
			},
			{
				Keys: bson.D{
					{Key: "user_id", Value: 1},
					{Key: "is_pinned", Value: 1},
				},
				Options: options.Index().SetName("user_pinned_notes"),
			},
			{
				Keys: bson.D{
					{Key: "user_id", Value: 1},
					{Key: "is_archived", Value: 1},
				},
				Options: options.Index().SetName("user_archived_notes"),
			},
			{
				Keys:    bson.D{{Key: "deleted_at", Value: 1}},
				Options: options.Index().SetName("deleted_at_retention").SetSparse(true),
			},
		},
		tagsCollection: {
			{
				Keys: bson.D{
					{Key: "user_id", Value: 1},
					{Key: "name", Value: 1},
				},
				Options: options.Index().SetName("unique_owner_tag_name").SetUnique(true),
			},
		},
		noteTagsCollection: {
			{
				Keys: bson.D{
					{Key: "note_id", Value: 1},
					{Key: "tag_id", Value: 1},
				},
				Options: options.Index().SetName("unique_note_tag").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "tag_id", Value: 1}},
				Options: options.Index().SetName("tag_notes"),
			},
		},
		tokensCollection: {
			{
				Keys:    bson.D{{Key: "jti", Value: 1}},
				Options: options.Index().SetName("unique_token_jti").SetUnique(true),
			},
			{
				Keys: bson.D{
					{Key: "user_id", Value: 1},
					{Key: "token_type", Value: 1},
				},
				Options: options.Index().SetName("user_tokens"),
			},
		},
		blacklistCollection: {
			{
				Keys:    bson.D{{Key: "jti", Value: 1}},
				Options: options.Index().SetName("unique_blacklist_jti").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "token", Value: 1}},
				Options: options.Index().SetName("unique_blacklist_token").SetUnique(true),
			},
		},
		resetTokensCollection: {
			{
				Keys:    bson.D{{Key: "token", Value: 1}},
				Options: options.Index().SetName("unique_reset_token").SetUnique(true),
			},
			{
				Keys: bson.D{
					{Key: "user_id", Value: 1},
					{Key: "created_at", Value: -1},
				},
				Options: options.Index().SetName("user_reset_tokens"),
			},
		},
		noteVersionsCollection: {
			{
				Keys: bson.D{
					{Key: "note_id", Value: 1},
					{Key: "version", Value: 1},
				},
				Options: options.Index().SetName("unique_note_version").SetUnique(true),
			},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", collection, err)
		}
	}
	return nil
}

// EnsureCollections creates collections up front so that the first insert
// into them can run inside a transaction.
func EnsureCollections(ctx context.Context, db *mongo.Database) error {
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	for _, name := range []string{
		usersCollection, notesCollection, tagsCollection, noteTagsCollection,
		tokensCollection, blacklistCollection, resetTokensCollection, noteVersionsCollection,
	} {
		if have[name] {
			continue
		}
		if err := db.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
	}
	return nil
}
