package handler

import (
	"log/slog"

	"github.com/bayramdkmn/notepad-intern/dto"
	"github.com/bayramdkmn/notepad-intern/middleware"
	"github.com/bayramdkmn/notepad-intern/usecase"
	"github.com/bayramdkmn/notepad-intern/utils"
	"github.com/gin-gonic/gin"
)

type NotesHandler struct {
	notes  *usecase.NotesService
	tags   *usecase.TagsService
	logger *slog.Logger
}

func NewNotesHandler(notes *usecase.NotesService, tags *usecase.TagsService, logger *slog.Logger) *NotesHandler {
	return &NotesHandler{notes: notes, tags: tags, logger: logger}
}

func (h *NotesHandler) respondList(c *gin.Context) func([]dto.NoteResponse, error) {
	return func(notes []dto.NoteResponse, err error) {
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		utils.Success(c, notes)
	}
}

func (h *NotesHandler) List(c *gin.Context) {
	h.respondList(c)(h.notes.List(c.Request.Context(), userID(c)))
}

func (h *NotesHandler) ListFavorites(c *gin.Context) {
	h.respondList(c)(h.notes.ListFavorites(c.Request.Context(), userID(c)))
}

func (h *NotesHandler) ListPinned(c *gin.Context) {
	h.respondList(c)(h.notes.ListPinned(c.Request.Context(), userID(c)))
}

func (h *NotesHandler) ListArchived(c *gin.Context) {
	h.respondList(c)(h.notes.ListArchived(c.Request.Context(), userID(c)))
}

func (h *NotesHandler) ListFeatured(c *gin.Context) {
	h.respondList(c)(h.notes.ListFeatured(c.Request.Context(), userID(c)))
}

// ListTrash shows soft-deleted notes until the retention sweeper purges them.
func (h *NotesHandler) ListTrash(c *gin.Context) {
	h.respondList(c)(h.notes.ListTrash(c.Request.Context(), userID(c)))
}

func (h *NotesHandler) ListByTag(c *gin.Context) {
	h.respondList(c)(h.notes.ListByTagName(c.Request.Context(), userID(c), c.Param("name")))
}

func (h *NotesHandler) Get(c *gin.Context) {
	note, err := h.notes.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.Success(c, note)
}

func (h *NotesHandler) Create(c *gin.Context) {
	var req dto.CreateNoteRequest
	if !bindJSON(c, &req) {
		return
	}

	note, err := h.notes.Create(c.Request.Context(), userID(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	middleware.TrackNoteOperation("create")
	utils.Created(c, note)
}

func (h *NotesHandler) Update(c *gin.Context) {
	var req dto.UpdateNoteRequest
	if !bindJSON(c, &req) {
		return
	}

	note, err := h.notes.Update(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	middleware.TrackNoteOperation("update")
	utils.Success(c, note)
}

func (h *NotesHandler) Delete(c *gin.Context) {
	if err := h.notes.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}

	middleware.TrackNoteOperation("delete")
	utils.SuccessWithMessage(c, "Note deleted successfully", nil)
}

func (h *NotesHandler) SoftDelete(c *gin.Context) {
	result, err := h.notes.SoftDelete(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	middleware.TrackNoteOperation("soft_delete")
	utils.SuccessWithMessage(c, "Note moved to trash", result)
}

func (h *NotesHandler) SoftDeleteMany(c *gin.Context) {
	var req dto.NoteIDsRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.notes.SoftDeleteMany(c.Request.Context(), userID(c), req.NoteIDs)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	middleware.TrackNoteOperation("soft_delete")
	utils.Success(c, result)
}

func (h *NotesHandler) DeleteMany(c *gin.Context) {
	var req dto.NoteIDsRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.notes.DeleteMany(c.Request.Context(), userID(c), req.NoteIDs)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	middleware.TrackNoteOperation("delete")
	utils.Success(c, result)
}

func (h *NotesHandler) SetActive(c *gin.Context) {
	active, ok := boolQuery(c, "is_active")
	if !ok {
		return
	}
	h.respondNote(c, "set_active")(h.notes.SetActive(c.Request.Context(), userID(c), c.Param("id"), active))
}

func (h *NotesHandler) SetFavorite(c *gin.Context) {
	favorite, ok := boolQuery(c, "favorite")
	if !ok {
		return
	}
	h.respondNote(c, "set_favorite")(h.notes.SetFavorite(c.Request.Context(), userID(c), c.Param("id"), favorite))
}

func (h *NotesHandler) ToggleArchive(c *gin.Context) {
	h.respondNote(c, "archive")(h.notes.ToggleArchived(c.Request.Context(), userID(c), c.Param("id")))
}

func (h *NotesHandler) TogglePin(c *gin.Context) {
	h.respondNote(c, "pin")(h.notes.TogglePinned(c.Request.Context(), userID(c), c.Param("id")))
}

func (h *NotesHandler) respondNote(c *gin.Context, operation string) func(*dto.NoteResponse, error) {
	return func(note *dto.NoteResponse, err error) {
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		middleware.TrackNoteOperation(operation)
		utils.Success(c, note)
	}
}

func (h *NotesHandler) AttachTag(c *gin.Context) {
	if err := h.tags.Attach(c.Request.Context(), userID(c), c.Param("id"), c.Param("tag_id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	middleware.TrackNoteOperation("attach_tag")
	utils.SuccessWithMessage(c, "Tag attached to note", nil)
}

func (h *NotesHandler) DetachTag(c *gin.Context) {
	if err := h.tags.Detach(c.Request.Context(), userID(c), c.Param("id"), c.Param("tag_id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	middleware.TrackNoteOperation("detach_tag")
	utils.SuccessWithMessage(c, "Tag removed from note", nil)
}

func (h *NotesHandler) Search(c *gin.Context) {
	result, err := h.notes.SemanticSearch(c.Request.Context(), userID(c), c.Query("query"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.Success(c, result)
}

func (h *NotesHandler) Stats(c *gin.Context) {
	stats, err := h.notes.Stats(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.Success(c, stats)
}

func (h *NotesHandler) Versions(c *gin.Context) {
	versions, err := h.notes.Versions(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.Success(c, versions)
}

func (h *NotesHandler) Summary(c *gin.Context) {
	summary, err := h.notes.Summarize(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.Success(c, summary)
}
