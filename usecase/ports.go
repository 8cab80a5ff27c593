package usecase

import (
	"context"
	"time"

	"github.com/bayramdkmn/notepad-intern/model"
)

// TxManager runs fn as one atomic unit of work.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error)
	Update(ctx context.Context, user *model.User) error
}

type TokenRepository interface {
	Create(ctx context.Context, token *model.Token) error
	GetByJTI(ctx context.Context, jti string) (*model.Token, error)
	ListByUser(ctx context.Context, userID, tokenType string) ([]*model.Token, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type BlacklistRepository interface {
	Add(ctx context.Context, entry *model.BlacklistedToken) error
	ExistsByJTI(ctx context.Context, jti string) (bool, error)
	ExistsByToken(ctx context.Context, token string) (bool, error)
}

type ResetTokenRepository interface {
	Create(ctx context.Context, token *model.PasswordResetToken) error
	GetByToken(ctx context.Context, token string) (*model.PasswordResetToken, error)
	LatestUsable(ctx context.Context, userID string, now time.Time) (*model.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id string) error
	// RecordFailedAttempt counts a wrong code and marks the token used once
	// limit failures are reached. It reports whether the token is now burned.
	RecordFailedAttempt(ctx context.Context, id string, limit int) (bool, error)
}

type NoteRepository interface {
	Create(ctx context.Context, note *model.Note) error
	GetByID(ctx context.Context, userID, id string) (*model.Note, error)
	Find(ctx context.Context, filter model.NoteFilter) ([]*model.Note, error)
	Count(ctx context.Context, filter model.NoteFilter) (int64, error)
	Update(ctx context.Context, note *model.Note) error
	SoftDelete(ctx context.Context, ids []string, at time.Time) error
	Delete(ctx context.Context, ids []string) (int64, error)
}

type TagRepository interface {
	Create(ctx context.Context, tag *model.Tag) error
	GetByID(ctx context.Context, id string) (*model.Tag, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.Tag, error)
	GetByName(ctx context.Context, userID *string, name string) (*model.Tag, error)
	ListByUser(ctx context.Context, userID *string) ([]*model.Tag, error)
	Search(ctx context.Context, userID, query string) ([]*model.Tag, error)
	Update(ctx context.Context, tag *model.Tag) error
	Delete(ctx context.Context, id string) error
}

type NoteTagRepository interface {
	Attach(ctx context.Context, noteID, tagID string, at time.Time) error
	Detach(ctx context.Context, noteID, tagID string) (bool, error)
	TagIDs(ctx context.Context, noteIDs []string) (map[string][]string, error)
	NoteIDs(ctx context.Context, tagID string) ([]string, error)
	CountForNote(ctx context.Context, noteID string) (int64, error)
	DeleteByTag(ctx context.Context, tagID string) error
	DeleteByNotes(ctx context.Context, noteIDs []string) error
}

type NoteVersionRepository interface {
	Create(ctx context.Context, version *model.NoteVersion) error
	Latest(ctx context.Context, noteID string) (int, error)
	ListByNote(ctx context.Context, noteID string) ([]*model.NoteVersion, error)
	DeleteByNotes(ctx context.Context, noteIDs []string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) (bool, error)
}

// ResetCodeGenerator issues and checks the codes sent with a reset request.
type ResetCodeGenerator interface {
	NewSecret(account string) (string, error)
	Code(secret string, at time.Time) (string, error)
	Verify(code, secret string, at time.Time) bool
}

func clock(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}
