package dto

import (
	"time"

	"github.com/bayramdkmn/notepad-intern/model"
)

type CreateNoteRequest struct {
	Title         string     `json:"title" binding:"required,max=200"`
	Content       string     `json:"content" binding:"required,max=50000"`
	Priority      string     `json:"priority" binding:"omitempty,priority"`
	Tags          []string   `json:"tags" binding:"omitempty,max=10,dive,required,max=50"`
	IsFeatureNote bool       `json:"is_feature_note"`
	FeatureDate   *time.Time `json:"feature_date"`
}

// UpdateNoteRequest changes only the fields that are present. Tags are
// appended to the note, never removed.
type UpdateNoteRequest struct {
	Title         *string    `json:"title" binding:"omitempty,max=200"`
	Content       *string    `json:"content" binding:"omitempty,max=50000"`
	Priority      *string    `json:"priority" binding:"omitempty,priority"`
	Tags          []string   `json:"tags" binding:"omitempty,max=10,dive,required,max=50"`
	IsFeatureNote *bool      `json:"is_feature_note"`
	FeatureDate   *time.Time `json:"feature_date"`
}

type NoteIDsRequest struct {
	NoteIDs []string `json:"note_ids" binding:"required,min=1,dive,required"`
}

type TagRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsGlobal bool   `json:"is_global"`
}

type NoteResponse struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	Priority      model.Priority `json:"priority"`
	IsActive      bool           `json:"is_active"`
	Favorite      bool           `json:"favorite"`
	IsArchived    bool           `json:"is_archived"`
	IsPinned      bool           `json:"is_pinned"`
	IsFeatureNote bool           `json:"is_feature_note"`
	FeatureDate   *time.Time     `json:"feature_date,omitempty"`
	DeletedAt     *time.Time     `json:"deleted_at,omitempty"`
	Tags          []TagRef       `json:"tags"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func ToNoteResponse(note *model.Note, tags []*model.Tag) NoteResponse {
	refs := make([]TagRef, 0, len(tags))
	for _, tag := range tags {
		refs = append(refs, TagRef{ID: tag.ID, Name: tag.Name, IsGlobal: tag.IsGlobal})
	}
	return NoteResponse{
		ID:            note.ID,
		Title:         note.Title,
		Content:       note.Content,
		Priority:      note.Priority,
		IsActive:      note.IsActive,
		Favorite:      note.Favorite,
		IsArchived:    note.IsArchived,
		IsPinned:      note.IsPinned,
		IsFeatureNote: note.IsFeatureNote,
		FeatureDate:   note.FeatureDate,
		DeletedAt:     note.DeletedAt,
		Tags:          refs,
		CreatedAt:     note.CreatedAt,
		UpdatedAt:     note.UpdatedAt,
	}
}

type ScoredNote struct {
	NoteResponse
	Similarity float64 `json:"similarity"`
}

type SearchResponse struct {
	Query   string       `json:"query"`
	Results []ScoredNote `json:"results"`
}

type SoftDeleteResult struct {
	SoftDeletedIDs []string `json:"soft_deleted_ids"`
	NotFound       []string `json:"not_found"`
}

type DeleteResult struct {
	DeletedIDs []string `json:"deleted_ids"`
	NotFound   []string `json:"not_found"`
}

type NoteRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type SummaryResponse struct {
	NoteID  string `json:"note_id"`
	Summary string `json:"summary"`
}
