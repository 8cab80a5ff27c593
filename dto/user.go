package dto

import (
	"time"

	"github.com/bayramdkmn/notepad-intern/model"
)

type RegisterRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=20"`
	Surname     string `json:"surname" binding:"required,min=2,max=20"`
	Username    string `json:"username" binding:"required,min=5,max=15"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,password"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,max=20"`
}

// LoginRequest accepts JSON or the form fields an OAuth2 password grant sends.
type LoginRequest struct {
	Email    string `json:"email" form:"username" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateUserRequest changes only the fields that are present.
type UpdateUserRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=2,max=20"`
	Surname     *string `json:"surname" binding:"omitempty,min=2,max=20"`
	Username    *string `json:"username" binding:"omitempty,min=5,max=15"`
	Email       *string `json:"email" binding:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,max=20"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,password"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyResetCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

type ResetPasswordWithTokenRequest struct {
	Token           string `json:"token" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type UserProfileResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Surname     string    `json:"surname"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToUserProfileResponse(user *model.User) UserProfileResponse {
	return UserProfileResponse{
		ID:          user.ID,
		Name:        user.Name,
		Surname:     user.Surname,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		PhoneNumber: user.PhoneNumber,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type LoginResponse struct {
	User UserProfileResponse `json:"user"`
	TokenPair
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// UpdateUserResponse carries a new token pair only when the email changed.
type UpdateUserResponse struct {
	User   UserProfileResponse `json:"user"`
	Tokens *TokenPair          `json:"tokens,omitempty"`
}

// PasswordResetResponse exposes the token and code only in dev mode.
type PasswordResetResponse struct {
	ExpiresAt  time.Time `json:"expires_at"`
	ResetToken string    `json:"reset_token,omitempty"`
	ResetCode  string    `json:"reset_code,omitempty"`
}

type VerifyResetCodeResponse struct {
	ResetToken string    `json:"reset_token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type LogoutResponse struct {
	RevokedTokens int `json:"revoked_tokens"`
}

// Principal is the identity the authentication gate hands to handlers.
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}
