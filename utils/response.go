package utils

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bayramdkmn/notepad-intern/model"
	"github.com/gin-gonic/gin"
)

type Response struct {
	Status  int         `json:"-"`                 // HTTP status code
	Message string      `json:"message,omitempty"` // Optional message
	Error   string      `json:"error,omitempty"`   // Error message
	Data    interface{} `json:"data,omitempty"`    // Response data
}

// Success responses
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, &Response{
		Status: http.StatusOK,
		Data:   data,
	})
}

func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, &Response{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, &Response{
		Status:  http.StatusCreated,
		Message: "Resource created successfully",
		Data:    data,
	})
}

// Error responses
func Unauthorized(c *gin.Context, message string) {
	abortWith(c, http.StatusUnauthorized, message)
}

func BadRequest(c *gin.Context, message string) {
	abortWith(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	abortWith(c, http.StatusNotFound, message)
}

func InternalError(c *gin.Context, message string) {
	abortWith(c, http.StatusInternalServerError, message)
}

func Conflict(c *gin.Context, message string) {
	abortWith(c, http.StatusConflict, message)
}

func Forbidden(c *gin.Context, message string) {
	abortWith(c, http.StatusForbidden, message)
}

// Respond aborts with an error envelope for statuses without a helper.
func Respond(c *gin.Context, status int, message string) {
	abortWith(c, status, message)
}

func abortWith(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, &Response{
		Status: status,
		Error:  message,
	})
}

// StatusFor maps an error kind from the model package onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err using the status of its kind. Internal errors are
// logged and reported with a generic message.
func RespondError(c *gin.Context, logger *slog.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.ErrorContext(c.Request.Context(), "request failed",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"error", err,
			)
		}
		c.Error(err)
		abortWith(c, status, "internal server error")
		return
	}
	abortWith(c, status, err.Error())
}
