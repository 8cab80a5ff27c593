package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bayramdkmn/notepad-intern/dto"
	"github.com/bayramdkmn/notepad-intern/model"
	"github.com/bayramdkmn/notepad-intern/test/testutils"
	"github.com/bayramdkmn/notepad-intern/usecase"
)

type harness struct {
	store      *testutils.MemStore
	clock      *testutils.Clock
	embedder   *testutils.FakeEmbedder
	suggester  *testutils.FakeSuggester
	summarizer *testutils.FakeSummarizer
	ledger     *usecase.TokenLedger
	auth       *usecase.AuthService
	notes      *usecase.NotesService
	tags       *usecase.TagsService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	env := testutils.NewEnv()
	return &harness{
		store:      env.Store,
		clock:      env.Clock,
		embedder:   env.Embedder,
		suggester:  env.Suggester,
		summarizer: env.Summarizer,
		ledger:     env.Ledger,
		auth:       env.Auth,
		notes:      env.Notes,
		tags:       env.Tags,
	}
}

func (h *harness) register(t *testing.T, username, email string) *model.User {
	t.Helper()
	user, err := h.auth.Register(context.Background(), dto.RegisterRequest{
		Name:     "Test",
		Surname:  "User",
		Username: username,
		Email:    email,
		Password: "secret123",
	})
	require.NoError(t, err)
	return user
}

func (h *harness) makeAdmin(t *testing.T, user *model.User) dto.Principal {
	t.Helper()
	user.Role = model.RoleAdmin
	require.NoError(t, h.store.Users.Update(context.Background(), user))
	return dto.Principal{UserID: user.ID, Email: user.Email, Role: model.RoleAdmin}
}

func (h *harness) createNote(t *testing.T, userID, title string, tags ...string) *dto.NoteResponse {
	t.Helper()
	note, err := h.notes.Create(context.Background(), userID, dto.CreateNoteRequest{
		Title:   title,
		Content: title + " body",
		Tags:    tags,
	})
	require.NoError(t, err)
	return note
}

func principal(user *model.User) dto.Principal {
	return dto.Principal{UserID: user.ID, Email: user.Email, Role: user.Role}
}

func ptr[T any](v T) *T { return &v }
