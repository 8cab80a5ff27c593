package handler

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayramdkmn/notepad-intern/dto"
	"github.com/bayramdkmn/notepad-intern/model"
)

func (a *testAPI) createNote(token, title string, tags ...string) dto.NoteResponse {
	a.t.Helper()
	w, env := a.do(http.MethodPost, "/notes/", token, map[string]interface{}{
		"title": title, "content": title + " content", "tags": tags,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.NoteResponse](a.t, env.Data)
}

func TestNotesRequireAuth(t *testing.T) {
	api := newTestAPI(t, nil)
	for _, path := range []string{"/notes/", "/notes/stats", "/notes/trash", "/tags/"} {
		w, _ := api.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestNoteCRUD(t *testing.T) {
	api := newTestAPI(t, nil)
	token, _ := api.signup("alice01", "alice@example.com")
	other, _ := api.signup("bobby01", "bob@example.com")

	note := api.createNote(token, "Groceries", "home")
	assert.Equal(t, model.PriorityLow, note.Priority)
	require.Len(t, note.Tags, 1)

	w, env := api.do(http.MethodGet, "/notes/"+note.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Groceries", decode[dto.NoteResponse](t, env.Data).Title)

	w, _ = api.do(http.MethodGet, "/notes/"+note.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = api.do(http.MethodPatch, "/notes/"+note.ID, token, map[string]interface{}{
		"title": "Shopping", "priority": "High", "tags": []string{"errands"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[dto.NoteResponse](t, env.Data)
	assert.Equal(t, "Shopping", updated.Title)
	assert.Equal(t, model.PriorityHigh, updated.Priority)
	assert.Len(t, updated.Tags, 2)

	w, _ = api.do(http.MethodPatch, "/notes/"+note.ID, token, map[string]interface{}{"priority": "Urgent"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = api.do(http.MethodGet, "/notes/"+note.ID+"/versions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.NoteVersion](t, env.Data), 2)

	w, env = api.do(http.MethodGet, "/notes/", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dto.NoteResponse](t, env.Data), 1)

	w, _ = api.do(http.MethodDelete, "/notes/"+note.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = api.do(http.MethodDelete, "/notes/"+note.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateNoteValidationHandler(t *testing.T) {
	api := newTestAPI(t, nil)
	token, _ := api.signup("alice01", "alice@example.com")

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing title", map[string]interface{}{"content": "x"}},
		{"bad priority", map[string]interface{}{"title": "x", "content": "x", "priority": "urgent"}},
		{"too many tags", map[string]interface{}{"title": "x", "content": "x", "tags": []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := api.do(http.MethodPost, "/notes/", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestCreateNoteMultibyteTitleHandler(t *testing.T) {
	api := newTestAPI(t, nil)
	token, _ := api.signup("alice01", "alice@example.com")
	title := strings.Repeat("ü", 200)

	note := api.createNote(token, title)
	assert.Equal(t, title, note.Title)

	w, _ := api.do(http.MethodPost, "/notes/", token, map[string]interface{}{"title": title + "ö", "content": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateNoteEmbeddingFailureHandler(t *testing.T) {
	api := newTestAPI(t, nil)
	token, _ := api.signup("alice01", "alice@example.com")
	api.env.Embedder.Err = errors.New("upstream 503: secret detail")

	w, env := api.do(http.MethodPost, "/notes/", token, map[string]interface{}{"title": "x", "content": "y"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", env.Error)
}

func TestNoteFlagsHandler(t *testing.T) {
	api := newTestAPI(t, nil)
	token, _ := api.signup("alice01", "alice@example.com")
	note := api.createNote(token, "flags")

	tests := []struct {
		method string
		path   string
		want   int
		check  func(dto.NoteResponse) bool
	}{
		{http.MethodPut, "/active?is_active=false", http.StatusOK, func(n dto.NoteResponse) bool { return !n.IsActive }},
		{http.MethodPut, "/active", http.StatusBadRequest, nil},
		{http.MethodPut, "/favorite?favorite=true", http.StatusOK, func(n dto.NoteResponse) bool { return n.Favorite }},
		{http.MethodPut, "/favorite?favorite=maybe", http.StatusBadRequest, nil},
		{http.MethodPut, "/archive", http.StatusOK, func(n dto.NoteResponse) bool { return n.IsArchived }},
		{http.MethodPatch, "/pin", http.StatusOK, func(n dto.NoteResponse) bool { return n.IsPinned }},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w, env := api.do(tt.method, "/notes/"+note.ID+tt.path, token, nil)
			require.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.check != nil {
				assert.True(t, tt.check(decode[dto.NoteResponse](t, env.Data)))
			}
		})
	}

	for _, view := range []string{"favorites", "pinned", "archived"} {
		w, env := api.do(http.MethodGet, "/notes/"+view, token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]dto.NoteResponse](t, env.Data), 1, view)
	}

	w, env := api.do(http.MethodGet, "/notes/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[model.NoteStats](t, env.Data)
	assert.Equal(t, int64(1), stats.All)
	assert.Equal(t, int64(0), stats.Active)
	assert.Equal(t, "alice@example.com", stats.Email)
}

func TestBulkDeleteHandlers(t *testing.T) {
	api := newTestAPI(t, nil)
	token, _ := api.signup("alice01", "alice@example.com")
	n1 := api.createNote(token, "one")
	n2 := api.createNote(token, "two")

	w, env := api.do(http.MethodPut, "/notes/soft-delete-multiple", token, map[string][]string{"note_ids": {n1.ID, "missing"}})
	require.Equal(t, http.StatusOK, w.Code)
	soft := decode[dto.SoftDeleteResult](t, env.Data)
	assert.Equal(t, []string{n1.ID}, soft.SoftDeletedIDs)
	assert.Equal(t, []string{"missing"}, soft.NotFound)

	w, env = api.do(http.MethodGet, "/notes/trash", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	trash := decode[[]dto.NoteResponse](t, env.Data)
	require.Len(t, trash, 1)
	assert.NotNil(t, trash[0].DeletedAt)

	w, env = api.do(http.MethodDelete, "/notes/"+n2.ID+"/soft", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{n2.ID}, decode[dto.SoftDeleteResult](t, env.Data).SoftDeletedIDs)

	w, env = api.do(http.MethodDelete, "/notes/delete-selected", token, map[string][]string{"note_ids": {n1.ID, n2.ID, "gone"}})
	require.Equal(t, http.StatusOK, w.Code)
	hard := decode[dto.DeleteResult](t, env.Data)
	assert.Equal(t, []string{n1.ID, n2.ID}, hard.DeletedIDs)
	assert.Equal(t, []string{"gone"}, hard.NotFound)

	w, _ = api.do(http.MethodPut, "/notes/soft-delete-multiple", token, map[string][]string{"note_ids": {}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchHandler(t *testing.T) {
	api := newTestAPI(t, nil)
	token, _ := api.signup("alice01", "alice@example.com")

	w, _ := api.do(http.MethodGet, "/notes/search?query=cats", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	api.env.Embedder.Vectors = map[string][]float32{"cats": {1, 0}, "dogs": {0, 1}}
	cats := api.createNote(token, "cats")
	api.createNote(token, "dogs")

	w, env := api.do(http.MethodGet, "/notes/search?query=cats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[dto.SearchResponse](t, env.Data)
	require.Len(t, result.Results, 2)
	assert.Equal(t, cats.ID, result.Results[0].ID)
	assert.InDelta(t, 1.0, result.Results[0].Similarity, 1e-6)
	assert.InDelta(t, 0.0, result.Results[1].Similarity, 1e-6)

	w, _ = api.do(http.MethodGet, "/notes/search", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestByTagAndSummaryHandlers(t *testing.T) {
	api := newTestAPI(t, nil)
	token, _ := api.signup("alice01", "alice@example.com")
	note := api.createNote(token, "Standup", "work")
	api.createNote(token, "Lunch")

	w, env := api.do(http.MethodGet, "/notes/by-tag/work", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	tagged := decode[[]dto.NoteResponse](t, env.Data)
	require.Len(t, tagged, 1)
	assert.Equal(t, note.ID, tagged[0].ID)

	w, _ = api.do(http.MethodGet, "/notes/by-tag/nothing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = api.do(http.MethodPost, "/notes/"+note.ID+"/summary", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "summary of Standup", decode[dto.SummaryResponse](t, env.Data).Summary)

	w, _ = api.do(http.MethodGet, "/notes/featured", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
