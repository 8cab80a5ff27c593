package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bayramdkmn/notepad-intern/config"
	"github.com/bayramdkmn/notepad-intern/model"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection        = "users"
	notesCollection        = "notes"
	tagsCollection         = "tags"
	noteTagsCollection     = "note_tags"
	tokensCollection       = "tokens"
	blacklistCollection    = "token_blacklist"
	resetTokensCollection  = "password_reset_tokens"
	noteVersionsCollection = "note_versions"
)

// Store owns the Mongo client and runs units of work in transactions.
type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime).
		SetRetryWrites(cfg.RetryWrites)

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return NewStore(client, cfg.DatabaseName), nil
}

func NewStore(client *mongo.Client, dbName string) *Store {
	return &Store{Client: client, DB: client.Database(dbName)}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// WithinTransaction runs fn in a transaction that commits when fn returns
// nil and aborts otherwise. Calls made while a transaction is already open
// on ctx join it.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := s.Client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// mapError turns driver errors into model error kinds.
func mapError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%w: %s not found", model.ErrNotFound, what)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %s already exists", model.ErrConflict, what)
	default:
		trackError(what)
		return fmt.Errorf("%s: %w", what, err)
	}
}
