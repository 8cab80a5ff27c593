package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayramdkmn/notepad-intern/model"
)

func TestCreateTag(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "alice01", "alice@example.com")
	bob := h.register(t, "bobby01", "bob@example.com")

	tag, err := h.tags.Create(ctx, alice.ID, " work ")
	require.NoError(t, err)
	assert.Equal(t, "work", tag.Name)
	assert.False(t, tag.IsGlobal)

	_, err = h.tags.Create(ctx, alice.ID, "work")
	require.ErrorIs(t, err, model.ErrConflict)

	// names are unique per owner only
	_, err = h.tags.Create(ctx, bob.ID, "work")
	require.NoError(t, err)

	_, err = h.tags.Create(ctx, alice.ID, "  ")
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestTagVisibility(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "alice01", "alice@example.com")
	bob := h.register(t, "bobby01", "bob@example.com")

	own, err := h.tags.Create(ctx, alice.ID, "Project-X")
	require.NoError(t, err)
	global, err := h.tags.CreateGlobal(ctx, "projects")
	require.NoError(t, err)
	assert.True(t, global.IsGlobal)
	assert.Nil(t, global.UserID)

	_, err = h.tags.Get(ctx, bob.ID, own.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
	got, err := h.tags.Get(ctx, bob.ID, global.ID)
	require.NoError(t, err)
	assert.Equal(t, "projects", got.Name)

	found, err := h.tags.Search(ctx, alice.ID, "proj")
	require.NoError(t, err)
	assert.Len(t, found, 2)
	found, err = h.tags.Search(ctx, bob.ID, "proj")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, global.ID, found[0].ID)

	mine, err := h.tags.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	globals, err := h.tags.ListGlobal(ctx)
	require.NoError(t, err)
	require.Len(t, globals, 1)
}

func TestRenameTag(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "alice01", "alice@example.com")
	bob := h.register(t, "bobby01", "bob@example.com")
	admin := h.makeAdmin(t, h.register(t, "admin01", "admin@example.com"))

	work, err := h.tags.Create(ctx, alice.ID, "work")
	require.NoError(t, err)
	_, err = h.tags.Create(ctx, alice.ID, "home")
	require.NoError(t, err)
	global, err := h.tags.CreateGlobal(ctx, "shared")
	require.NoError(t, err)

	renamed, err := h.tags.Rename(ctx, principal(alice), work.ID, "office")
	require.NoError(t, err)
	assert.Equal(t, "office", renamed.Name)

	_, err = h.tags.Rename(ctx, principal(alice), work.ID, "home")
	require.ErrorIs(t, err, model.ErrConflict)
	_, err = h.tags.Rename(ctx, principal(bob), work.ID, "stolen")
	require.ErrorIs(t, err, model.ErrNotFound)
	_, err = h.tags.Rename(ctx, principal(alice), global.ID, "mine")
	require.ErrorIs(t, err, model.ErrForbidden)

	renamed, err = h.tags.Rename(ctx, admin, global.ID, "everyone")
	require.NoError(t, err)
	assert.Equal(t, "everyone", renamed.Name)
}

func TestAttachDetach(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "alice01", "alice@example.com")
	bob := h.register(t, "bobby01", "bob@example.com")
	note := h.createNote(t, alice.ID, "note", "first")
	tag, err := h.tags.Create(ctx, alice.ID, "second")
	require.NoError(t, err)
	bobs, err := h.tags.Create(ctx, bob.ID, "bobs")
	require.NoError(t, err)

	require.NoError(t, h.tags.Attach(ctx, alice.ID, note.ID, tag.ID))
	require.ErrorIs(t, h.tags.Attach(ctx, alice.ID, note.ID, tag.ID), model.ErrConflict)
	require.ErrorIs(t, h.tags.Attach(ctx, alice.ID, note.ID, bobs.ID), model.ErrNotFound)
	require.ErrorIs(t, h.tags.Attach(ctx, bob.ID, note.ID, bobs.ID), model.ErrNotFound)

	got, err := h.notes.Get(ctx, alice.ID, note.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"first", "second"}, tagNames(got))

	// detaching every tag keeps the note
	require.NoError(t, h.tags.Detach(ctx, alice.ID, note.ID, tag.ID))
	require.NoError(t, h.tags.Detach(ctx, alice.ID, note.ID, got.Tags[0].ID))
	require.ErrorIs(t, h.tags.Detach(ctx, alice.ID, note.ID, tag.ID), model.ErrNotFound)

	got, err = h.notes.Get(ctx, alice.ID, note.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}

func TestAttachLimit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.register(t, "alice01", "alice@example.com")

	names := make([]string, 10)
	for i := range names {
		names[i] = fmt.Sprintf("t%d", i)
	}
	note := h.createNote(t, user.ID, "full", names...)
	extra, err := h.tags.Create(ctx, user.ID, "extra")
	require.NoError(t, err)

	require.ErrorIs(t, h.tags.Attach(ctx, user.ID, note.ID, extra.ID), model.ErrValidation)
}

func TestDeleteTagCascade(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.register(t, "alice01", "alice@example.com")

	onlyWork := h.createNote(t, user.ID, "only work", "work")
	both := h.createNote(t, user.ID, "work and home", "work", "home")
	h.createNote(t, user.ID, "untagged")
	work := onlyWork.Tags[0]

	result, err := h.tags.Delete(ctx, principal(user), work.ID)
	require.NoError(t, err)
	assert.Equal(t, "work", result.Tag.Name)
	require.Len(t, result.DeletedNotes, 1)
	assert.Equal(t, onlyWork.ID, result.DeletedNotes[0].ID)
	assert.Equal(t, "only work", result.DeletedNotes[0].Title)

	assert.False(t, h.store.Notes.Exists(onlyWork.ID))
	got, err := h.notes.Get(ctx, user.ID, both.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, tagNames(got))

	notes, err := h.notes.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	_, err = h.tags.Get(ctx, user.ID, work.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeleteGlobalTagNeedsAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.register(t, "alice01", "alice@example.com")
	admin := h.makeAdmin(t, h.register(t, "admin01", "admin@example.com"))
	global, err := h.tags.CreateGlobal(ctx, "shared")
	require.NoError(t, err)

	_, err = h.tags.Delete(ctx, principal(user), global.ID)
	require.ErrorIs(t, err, model.ErrForbidden)

	result, err := h.tags.Delete(ctx, admin, global.ID)
	require.NoError(t, err)
	assert.Empty(t, result.DeletedNotes)
}

func TestSuggestForNote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.register(t, "alice01", "alice@example.com")
	note := h.createNote(t, user.ID, "Trip", "travel")
	h.suggester.Tags = []string{"vacation", "planning"}

	resp, err := h.tags.SuggestForNote(ctx, user.ID, note.ID)
	require.NoError(t, err)
	assert.Equal(t, note.ID, resp.NoteID)
	assert.Equal(t, []string{"vacation", "planning"}, resp.Suggestions)

	h.suggester.Err = errors.New("rate limited")
	_, err = h.tags.SuggestForNote(ctx, user.ID, note.ID)
	require.ErrorIs(t, err, model.ErrInternal)

	_, err = h.tags.SuggestForNote(ctx, user.ID, "missing")
	require.ErrorIs(t, err, model.ErrNotFound)
}
