package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bayramdkmn/notepad-intern/middleware"
	"github.com/bayramdkmn/notepad-intern/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var errorKinds = map[int]string{
	http.StatusNotFound:            "not_found",
	http.StatusConflict:            "conflict",
	http.StatusUnauthorized:        "unauthenticated",
	http.StatusForbidden:           "forbidden",
	http.StatusBadRequest:          "validation",
	http.StatusInternalServerError: "internal",
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	middleware.TrackError(errorKinds[utils.StatusFor(err)])
	utils.RespondError(c, logger, err)
}

// bindJSON binds and validates the body, answering 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.TrackError("validation")
		utils.BadRequest(c, bindingMessage(err))
		return false
	}
	return true
}

func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "password":
		return "password must be at least " + strconv.Itoa(utils.MinPasswordLength) + " characters and contain a digit"
	case "priority":
		return "priority must be Low, Medium or High"
	case "email":
		return "invalid email address"
	default:
		return fe.Field() + " failed " + fe.Tag() + " validation"
	}
}

// boolQuery reads a required true/false query parameter.
func boolQuery(c *gin.Context, name string) (bool, bool) {
	value, err := strconv.ParseBool(c.Query(name))
	if err != nil {
		utils.BadRequest(c, name+" must be true or false")
		return false, false
	}
	return value, true
}

func userID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}
