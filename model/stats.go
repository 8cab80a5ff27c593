package model

type NoteStats struct {
	Email       string `json:"email"`
	All         int64  `json:"all"`
	Pinned      int64  `json:"pinned"`
	Archived    int64  `json:"archived"`
	Active      int64  `json:"active"`
	Favorites   int64  `json:"favorites"`
	SoftDeleted int64  `json:"soft_deleted"`
}
