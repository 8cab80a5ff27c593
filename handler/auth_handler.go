package handler

import (
	"log/slog"

	"github.com/bayramdkmn/notepad-intern/dto"
	"github.com/bayramdkmn/notepad-intern/middleware"
	"github.com/bayramdkmn/notepad-intern/usecase"
	"github.com/bayramdkmn/notepad-intern/utils"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth   *usecase.AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth *usecase.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.InfoContext(c.Request.Context(), "user registered", "user_id", user.ID)
	utils.Created(c, dto.ToUserProfileResponse(user))
}

// Login accepts a JSON body or the form fields of an OAuth2 password grant.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.TrackAuthAttempt("failure", "login")
		utils.BadRequest(c, bindingMessage(err))
		return
	}

	device := utils.DeviceLabel(c.Request.UserAgent())
	user, pair, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, device)
	if err != nil {
		middleware.TrackAuthAttempt("failure", "login")
		respondError(c, h.logger, err)
		return
	}

	middleware.TrackAuthAttempt("success", "login")
	utils.SuccessWithMessage(c, "Login successful", dto.LoginResponse{
		User:      dto.ToUserProfileResponse(user),
		TokenPair: *pair,
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		middleware.TrackAuthAttempt("failure", "refresh")
		respondError(c, h.logger, err)
		return
	}

	middleware.TrackAuthAttempt("success", "refresh")
	utils.Success(c, resp)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.auth.Me(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.Success(c, dto.ToUserProfileResponse(user))
}

func (h *AuthHandler) UpdateUser(c *gin.Context) {
	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	device := utils.DeviceLabel(c.Request.UserAgent())
	user, pair, err := h.auth.UpdateProfile(c.Request.Context(), userID(c), req, device)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	message := "Profile updated successfully"
	if pair != nil {
		message = "Email changed. Please use the new tokens"
	}
	utils.SuccessWithMessage(c, message, dto.UpdateUserResponse{
		User:   dto.ToUserProfileResponse(user),
		Tokens: pair,
	})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), userID(c), req); err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessWithMessage(c, "Password changed successfully", nil)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	revoked, err := h.auth.Logout(c.Request.Context(), userID(c), c.GetString(middleware.ContextAccessToken))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessWithMessage(c, "Logged out successfully", dto.LogoutResponse{RevokedTokens: revoked})
}

func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.PasswordResetRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessWithMessage(c, "Password reset requested", resp)
}

func (h *AuthHandler) VerifyResetCode(c *gin.Context) {
	var req dto.VerifyResetCodeRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.auth.VerifyResetCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		middleware.TrackAuthAttempt("failure", "reset_code")
		respondError(c, h.logger, err)
		return
	}
	middleware.TrackAuthAttempt("success", "reset_code")
	utils.Success(c, resp)
}

func (h *AuthHandler) ResetPasswordWithToken(c *gin.Context) {
	var req dto.ResetPasswordWithTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.ResetPasswordWithToken(c.Request.Context(), req); err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessWithMessage(c, "Password has been reset. Please log in again", nil)
}
