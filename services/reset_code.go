package services

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const resetCodeIssuer = "notepad"

// ResetCodes issues the six digit codes that accompany a password reset
// token. Each reset request gets its own TOTP secret whose period matches
// the reset token lifetime.
type ResetCodes struct {
	opts totp.ValidateOpts
}

func NewResetCodes(validity time.Duration) *ResetCodes {
	period := uint(validity / time.Second)
	if period == 0 {
		period = 30
	}
	return &ResetCodes{opts: totp.ValidateOpts{
		Period:    period,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}}
}

// NewSecret creates a secret bound to account (the user's email).
func (r *ResetCodes) NewSecret(account string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      resetCodeIssuer,
		AccountName: account,
		Period:      r.opts.Period,
		Digits:      r.opts.Digits,
		Algorithm:   r.opts.Algorithm,
	})
	if err != nil {
		return "", fmt.Errorf("generate reset secret: %w", err)
	}
	return key.Secret(), nil
}

func (r *ResetCodes) Code(secret string, at time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, at, r.opts)
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return code, nil
}

func (r *ResetCodes) Verify(code, secret string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at, r.opts)
	return err == nil && ok
}
