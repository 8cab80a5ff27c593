package handler

import (
	"log/slog"

	"github.com/bayramdkmn/notepad-intern/dto"
	"github.com/bayramdkmn/notepad-intern/middleware"
	"github.com/bayramdkmn/notepad-intern/model"
	"github.com/bayramdkmn/notepad-intern/usecase"
	"github.com/bayramdkmn/notepad-intern/utils"
	"github.com/gin-gonic/gin"
)

type TagsHandler struct {
	tags   *usecase.TagsService
	logger *slog.Logger
}

func NewTagsHandler(tags *usecase.TagsService, logger *slog.Logger) *TagsHandler {
	return &TagsHandler{tags: tags, logger: logger}
}

func (h *TagsHandler) respondTag(c *gin.Context, created bool) func(*model.Tag, error) {
	return func(tag *model.Tag, err error) {
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		if created {
			utils.Created(c, tag)
			return
		}
		utils.Success(c, tag)
	}
}

func (h *TagsHandler) respondTags(c *gin.Context) func([]*model.Tag, error) {
	return func(tags []*model.Tag, err error) {
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		utils.Success(c, tags)
	}
}

func (h *TagsHandler) Create(c *gin.Context) {
	var req dto.TagRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respondTag(c, true)(h.tags.Create(c.Request.Context(), userID(c), req.Name))
}

// CreateGlobal is mounted behind RequireRole(admin).
func (h *TagsHandler) CreateGlobal(c *gin.Context) {
	var req dto.TagRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respondTag(c, true)(h.tags.CreateGlobal(c.Request.Context(), req.Name))
}

func (h *TagsHandler) List(c *gin.Context) {
	h.respondTags(c)(h.tags.List(c.Request.Context(), userID(c)))
}

func (h *TagsHandler) ListGlobal(c *gin.Context) {
	h.respondTags(c)(h.tags.ListGlobal(c.Request.Context()))
}

func (h *TagsHandler) Search(c *gin.Context) {
	h.respondTags(c)(h.tags.Search(c.Request.Context(), userID(c), c.Query("query")))
}

func (h *TagsHandler) Get(c *gin.Context) {
	h.respondTag(c, false)(h.tags.Get(c.Request.Context(), userID(c), c.Param("id")))
}

func (h *TagsHandler) Rename(c *gin.Context) {
	var req dto.TagRequest
	if !bindJSON(c, &req) {
		return
	}
	principal, _ := middleware.PrincipalFrom(c)
	h.respondTag(c, false)(h.tags.Rename(c.Request.Context(), principal, c.Param("id"), req.Name))
}

func (h *TagsHandler) Delete(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)
	result, err := h.tags.Delete(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	middleware.TrackNoteOperation("delete_tag")
	if len(result.DeletedNotes) > 0 {
		h.logger.InfoContext(c.Request.Context(), "tag delete removed untagged notes",
			"tag_id", result.Tag.ID,
			"notes", len(result.DeletedNotes),
		)
	}
	utils.SuccessWithMessage(c, "Tag deleted successfully", result)
}

func (h *TagsHandler) Suggest(c *gin.Context) {
	resp, err := h.tags.SuggestForNote(c.Request.Context(), userID(c), c.Param("note_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.Success(c, resp)
}
