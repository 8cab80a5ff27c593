package testutils

import (
	"time"

	"github.com/bayramdkmn/notepad-intern/services"
	"github.com/bayramdkmn/notepad-intern/usecase"
)

// FastArgon2 keeps password hashing cheap in tests.
var FastArgon2 = services.Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32}

const (
	AccessSecret  = "test-access-secret"
	RefreshSecret = "test-refresh-secret"
	ResetTTL      = 15 * time.Minute
)

// Env wires every service against one MemStore, fake AI providers and a
// settable clock.
type Env struct {
	Store      *MemStore
	Clock      *Clock
	Embedder   *FakeEmbedder
	Suggester  *FakeSuggester
	Summarizer *FakeSummarizer
	Issuer     *services.TokenIssuer
	Ledger     *usecase.TokenLedger
	Auth       *usecase.AuthService
	Notes      *usecase.NotesService
	Tags       *usecase.TagsService
}

func NewEnv() *Env {
	e := &Env{
		Store:      NewMemStore(),
		Clock:      NewClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
		Embedder:   &FakeEmbedder{},
		Suggester:  &FakeSuggester{},
		Summarizer: &FakeSummarizer{},
	}
	s := e.Store

	e.Issuer = services.NewTokenIssuer(AccessSecret, RefreshSecret, 20*time.Minute, 7*24*time.Hour).
		WithClock(e.Clock.Now)
	e.Ledger = &usecase.TokenLedger{Issuer: e.Issuer, Tokens: s.Tokens, Blacklist: s.Blacklist, Now: e.Clock.Now}

	e.Auth = &usecase.AuthService{
		Tx:         s,
		Users:      s.Users,
		Resets:     s.Resets,
		Hasher:     services.NewPasswordHasher(FastArgon2),
		Ledger:     e.Ledger,
		ResetCodes: services.NewResetCodes(ResetTTL),
		ResetTTL:   ResetTTL,
		DevMode:    true,
		Now:        e.Clock.Now,
	}
	e.Notes = &usecase.NotesService{
		Tx:         s,
		Notes:      s.Notes,
		Tags:       s.Tags,
		NoteTags:   s.NoteTags,
		History:    s.Versions,
		Users:      s.Users,
		Embedder:   e.Embedder,
		Summarizer: e.Summarizer,
		Now:        e.Clock.Now,
	}
	e.Tags = &usecase.TagsService{
		Tx:        s,
		Tags:      s.Tags,
		Notes:     s.Notes,
		NoteTags:  s.NoteTags,
		History:   s.Versions,
		Suggester: e.Suggester,
		Now:       e.Clock.Now,
	}
	return e
}
