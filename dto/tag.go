package dto

import "github.com/bayramdkmn/notepad-intern/model"

type TagRequest struct {
	Name string `json:"name" binding:"required,min=1,max=50"`
}

// TagDeleteResult reports the deleted tag and the notes removed because it
// was their last tag.
type TagDeleteResult struct {
	Tag          *model.Tag `json:"tag"`
	DeletedNotes []NoteRef  `json:"deleted_notes"`
}

type TagSuggestionResponse struct {
	NoteID      string   `json:"note_id"`
	Suggestions []string `json:"suggestions"`
}
