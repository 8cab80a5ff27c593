package model

import "time"

// Tag is either owned by a user or global (UserID nil, IsGlobal true).
type Tag struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    *string   `bson:"user_id" json:"user_id"`
	Name      string    `bson:"name" json:"name"`
	IsGlobal  bool      `bson:"is_global" json:"is_global"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// VisibleTo reports whether userID may attach the tag to its notes.
func (t *Tag) VisibleTo(userID string) bool {
	if t.IsGlobal {
		return true
	}
	return t.UserID != nil && *t.UserID == userID
}

// NoteTag is one row of the note/tag association.
type NoteTag struct {
	NoteID    string    `bson:"note_id" json:"note_id"`
	TagID     string    `bson:"tag_id" json:"tag_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
