package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bayramdkmn/notepad-intern/dto"
	"github.com/bayramdkmn/notepad-intern/model"
	"github.com/bayramdkmn/notepad-intern/utils"
)

const (
	MinResetPasswordLength = 8
	MinUsernameLength      = 5

	// MaxResetCodeAttempts wrong codes burn a reset token.
	MaxResetCodeAttempts = 5
)

var errBadCredentials = fmt.Errorf("%w: invalid email or password", model.ErrUnauthenticated)

// AuthService owns registration, login, profile and password flows. Every
// call runs in a single transaction.
type AuthService struct {
	Tx         TxManager
	Users      UserRepository
	Resets     ResetTokenRepository
	Hasher     PasswordHasher
	Ledger     *TokenLedger
	ResetCodes ResetCodeGenerator
	ResetTTL   time.Duration
	DevMode    bool
	Now        func() time.Time
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeUsername trims surrounding space and rejects what is left if it is
// shorter than MinUsernameLength.
func normalizeUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	if username == "" {
		return "", fmt.Errorf("%w: username cannot be empty", model.ErrValidation)
	}
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return "", fmt.Errorf("%w: username must be at least %d characters", model.ErrValidation, MinUsernameLength)
	}
	return username, nil
}

func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*model.User, error) {
	email := normalizeEmail(req.Email)
	username, err := normalizeUsername(req.Username)
	if err != nil {
		return nil, err
	}

	var user *model.User
	err = s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		taken, err := s.Users.ExistsByEmail(ctx, email, "")
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: email is already registered", model.ErrConflict)
		}
		taken, err = s.Users.ExistsByUsername(ctx, username, "")
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: username is already taken", model.ErrConflict)
		}

		hash, err := s.Hasher.Hash(req.Password)
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrInternal, err)
		}

		now := clock(s.Now)
		user = &model.User{
			ID:           utils.NewID(),
			Name:         strings.TrimSpace(req.Name),
			Surname:      strings.TrimSpace(req.Surname),
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			Role:         model.RoleUser,
			PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return s.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login answers unknown emails and wrong passwords with the same error.
func (s *AuthService) Login(ctx context.Context, email, password, device string) (*model.User, *dto.TokenPair, error) {
	var (
		user *model.User
		pair *dto.TokenPair
	)
	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.Users.GetByEmail(ctx, normalizeEmail(email))
		if errors.Is(err, model.ErrNotFound) {
			return errBadCredentials
		}
		if err != nil {
			return err
		}

		ok, err := s.Hasher.Verify(password, user.PasswordHash)
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrInternal, err)
		}
		if !ok {
			return errBadCredentials
		}

		pair, err = s.Ledger.IssuePair(ctx, user, device)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh exchanges a live refresh token for a new access token carrying
// the user's current role.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error) {
	var resp *dto.RefreshResponse
	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		claims, err := s.Ledger.ValidateRefresh(ctx, refreshToken)
		if err != nil {
			return err
		}
		user, err := s.Users.GetByID(ctx, claims.UserID)
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrInvalidToken
		}
		if err != nil {
			return err
		}
		resp, err = s.Ledger.IssueAccess(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Logout revokes every refresh token of the user and the presented access token.
func (s *AuthService) Logout(ctx context.Context, userID, accessToken string) (int, error) {
	var revoked int
	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if revoked, err = s.Ledger.RevokeAllForUser(ctx, userID); err != nil {
			return err
		}
		if accessToken == "" {
			return nil
		}
		return s.Ledger.RevokeAccessToken(ctx, accessToken)
	})
	if err != nil {
		return 0, err
	}
	return revoked, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%w: user not found", model.ErrNotFound)
	}
	return user, err
}

// UpdateProfile applies the present fields. Changing the email revokes the
// user's refresh tokens and returns a new pair bound to the new address.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req dto.UpdateUserRequest, device string) (*model.User, *dto.TokenPair, error) {
	var (
		user *model.User
		pair *dto.TokenPair
	)
	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.Me(ctx, userID)
		if err != nil {
			return err
		}

		if req.Username != nil {
			username, err := normalizeUsername(*req.Username)
			if err != nil {
				return err
			}
			if username != user.Username {
				taken, err := s.Users.ExistsByUsername(ctx, username, user.ID)
				if err != nil {
					return err
				}
				if taken {
					return fmt.Errorf("%w: username is already taken", model.ErrConflict)
				}
				user.Username = username
			}
		}

		emailChanged := false
		if req.Email != nil {
			email := normalizeEmail(*req.Email)
			if email != user.Email {
				taken, err := s.Users.ExistsByEmail(ctx, email, user.ID)
				if err != nil {
					return err
				}
				if taken {
					return fmt.Errorf("%w: email is already registered", model.ErrConflict)
				}
				user.Email = email
				emailChanged = true
			}
		}

		if req.Name != nil {
			user.Name = strings.TrimSpace(*req.Name)
		}
		if req.Surname != nil {
			user.Surname = strings.TrimSpace(*req.Surname)
		}
		if req.PhoneNumber != nil {
			user.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
		}
		user.UpdatedAt = clock(s.Now)

		if err := s.Users.Update(ctx, user); err != nil {
			return err
		}
		if !emailChanged {
			return nil
		}

		if _, err := s.Ledger.RevokeAllForUser(ctx, user.ID); err != nil {
			return err
		}
		pair, err = s.Ledger.IssuePair(ctx, user, device)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// ChangePassword is the signed-in flow: the current password must verify.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req dto.ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return fmt.Errorf("%w: passwords do not match", model.ErrValidation)
	}

	return s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		user, err := s.Me(ctx, userID)
		if err != nil {
			return err
		}
		ok, err := s.Hasher.Verify(req.OldPassword, user.PasswordHash)
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrInternal, err)
		}
		if !ok {
			return fmt.Errorf("%w: current password is incorrect", model.ErrValidation)
		}
		return s.setPassword(ctx, user, req.NewPassword)
	})
}

func (s *AuthService) setPassword(ctx context.Context, user *model.User, password string) error {
	same, err := s.Hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrInternal, err)
	}
	if same {
		return fmt.Errorf("%w: new password must differ from the current one", model.ErrValidation)
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrInternal, err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = clock(s.Now)
	return s.Users.Update(ctx, user)
}

// RequestPasswordReset creates a single-use reset token and its code. The
// token and code are only returned in dev mode.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*dto.PasswordResetResponse, error) {
	var resp *dto.PasswordResetResponse
	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		user, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("%w: user not found", model.ErrNotFound)
		}
		if err != nil {
			return err
		}

		secret, err := s.ResetCodes.NewSecret(user.Email)
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrInternal, err)
		}

		now := clock(s.Now)
		reset := &model.PasswordResetToken{
			ID:        utils.NewID(),
			UserID:    user.ID,
			Token:     utils.NewID(),
			OTPSecret: secret,
			CreatedAt: now,
			ExpiresAt: now.Add(s.ResetTTL),
		}
		if err := s.Resets.Create(ctx, reset); err != nil {
			return err
		}

		resp = &dto.PasswordResetResponse{ExpiresAt: reset.ExpiresAt}
		if s.DevMode {
			code, err := s.ResetCodes.Code(secret, now)
			if err != nil {
				return fmt.Errorf("%w: %v", model.ErrInternal, err)
			}
			resp.ResetToken = reset.Token
			resp.ResetCode = code
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// VerifyResetCode trades a valid code for the user's newest usable reset
// token. Every wrong code is counted against that token and the token is
// burned after MaxResetCodeAttempts failures.
func (s *AuthService) VerifyResetCode(ctx context.Context, email, code string) (*dto.VerifyResetCodeResponse, error) {
	var (
		resp     *dto.VerifyResetCodeResponse
		rejected error
	)
	err := s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		user, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("%w: user not found", model.ErrNotFound)
		}
		if err != nil {
			return err
		}

		now := clock(s.Now)
		reset, err := s.Resets.LatestUsable(ctx, user.ID, now)
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("%w: no active password reset request", model.ErrNotFound)
		}
		if err != nil {
			return err
		}
		if !s.ResetCodes.Verify(code, reset.OTPSecret, now) {
			// the attempt is committed even though the call fails
			burned, err := s.Resets.RecordFailedAttempt(ctx, reset.ID, MaxResetCodeAttempts)
			if err != nil {
				return err
			}
			rejected = fmt.Errorf("%w: invalid or expired code", model.ErrValidation)
			if burned {
				rejected = fmt.Errorf("%w: too many invalid codes, request a new password reset", model.ErrValidation)
			}
			return nil
		}
		resp = &dto.VerifyResetCodeResponse{ResetToken: reset.Token, ExpiresAt: reset.ExpiresAt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rejected != nil {
		return nil, rejected
	}
	return resp, nil
}

// ResetPasswordWithToken redeems a reset token and signs the user out everywhere.
func (s *AuthService) ResetPasswordWithToken(ctx context.Context, req dto.ResetPasswordWithTokenRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return fmt.Errorf("%w: passwords do not match", model.ErrValidation)
	}
	if len([]rune(req.NewPassword)) < MinResetPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", model.ErrValidation, MinResetPasswordLength)
	}

	return s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		reset, err := s.Resets.GetByToken(ctx, req.Token)
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired reset token", model.ErrValidation)
		}
		if err != nil {
			return err
		}
		if !reset.Usable(clock(s.Now)) {
			return fmt.Errorf("%w: invalid or expired reset token", model.ErrValidation)
		}

		user, err := s.Me(ctx, reset.UserID)
		if err != nil {
			return err
		}
		if err := s.setPassword(ctx, user, req.NewPassword); err != nil {
			return err
		}
		if err := s.Resets.MarkUsed(ctx, reset.ID); err != nil {
			return err
		}
		_, err = s.Ledger.RevokeAllForUser(ctx, user.ID)
		return err
	})
}
