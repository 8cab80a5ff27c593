package model

import (
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Note struct {
	ID            string     `bson:"_id" json:"id"`
	UserID        string     `bson:"user_id" json:"user_id"`
	Title         string     `bson:"title" json:"title"`
	Content       string     `bson:"content" json:"content"`
	Embedding     []float32  `bson:"embedding,omitempty" json:"-"`
	Priority      Priority   `bson:"priority" json:"priority"`
	IsActive      bool       `bson:"is_active" json:"is_active"`
	Favorite      bool       `bson:"favorite" json:"favorite"`
	IsArchived    bool       `bson:"is_archived" json:"is_archived"`
	IsPinned      bool       `bson:"is_pinned" json:"is_pinned"`
	IsFeatureNote bool       `bson:"is_feature_note" json:"is_feature_note"`
	FeatureDate   *time.Time `bson:"feature_date,omitempty" json:"feature_date,omitempty"`
	DeletedAt     *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at" json:"updated_at"`
}

// Deleted reports whether the note has been soft-deleted.
func (n *Note) Deleted() bool {
	return n.DeletedAt != nil
}

// NoteVersion is an immutable snapshot taken on create and on every update.
type NoteVersion struct {
	ID        string    `bson:"_id" json:"id"`
	NoteID    string    `bson:"note_id" json:"note_id"`
	Version   int       `bson:"version" json:"version"`
	Title     string    `bson:"title" json:"title"`
	Content   string    `bson:"content" json:"content"`
	UpdatedBy string    `bson:"updated_by" json:"updated_by"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// NoteFilter selects notes. Nil pointers and empty fields do not filter.
type NoteFilter struct {
	UserID        string
	IDs           []string
	Deleted       *bool
	DeletedBefore *time.Time
	Pinned        *bool
	Archived      *bool
	Favorite      *bool
	Active        *bool
	Featured      *bool
}

// Live restricts f to notes that are not soft-deleted.
func (f NoteFilter) Live() NoteFilter {
	deleted := false
	f.Deleted = &deleted
	return f
}

func Bool(b bool) *bool { return &b }
