package model

import "time"

const (
	TokenTypeAccess  = "access_token"
	TokenTypeRefresh = "refresh_token"
)

// Token is a live refresh token record. Access tokens are never persisted.
type Token struct {
	ID         string    `bson:"_id" json:"id"`
	UserID     string    `bson:"user_id" json:"user_id"`
	Token      string    `bson:"token" json:"-"`
	TokenType  string    `bson:"token_type" json:"token_type"`
	JTI        string    `bson:"jti" json:"jti"`
	DeviceInfo string    `bson:"device_info,omitempty" json:"device_info,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt  time.Time `bson:"expires_at" json:"expires_at"`
}

// BlacklistedToken records a revoked token. Entries are never removed.
type BlacklistedToken struct {
	ID        string    `bson:"_id" json:"id"`
	JTI       string    `bson:"jti" json:"jti"`
	Token     string    `bson:"token" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type PasswordResetToken struct {
	ID             string    `bson:"_id" json:"id"`
	UserID         string    `bson:"user_id" json:"user_id"`
	Token          string    `bson:"token" json:"-"`
	OTPSecret      string    `bson:"otp_secret" json:"-"`
	Used           bool      `bson:"used" json:"used"`
	FailedAttempts int       `bson:"failed_attempts" json:"failed_attempts"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt      time.Time `bson:"expires_at" json:"expires_at"`
}

// Usable reports whether the reset token can still be redeemed at now.
func (t *PasswordResetToken) Usable(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
