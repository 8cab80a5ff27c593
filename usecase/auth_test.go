package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayramdkmn/notepad-intern/dto"
	"github.com/bayramdkmn/notepad-intern/model"
	"github.com/bayramdkmn/notepad-intern/usecase"
)

func TestRegister(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	user := h.register(t, "alice01", "Alice@Example.com ")
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	tests := []struct {
		name     string
		username string
		email    string
		msg      string
	}{
		{"duplicate email", "alice02", "alice@example.com", "email is already registered"},
		{"duplicate username", "alice01", "other@example.com", "username is already taken"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.auth.Register(ctx, dto.RegisterRequest{
				Name: "Alice", Surname: "Smith", Username: tt.username, Email: tt.email, Password: "secret123",
			})
			require.ErrorIs(t, err, model.ErrConflict)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestRegisterRejectsBlankUsername(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.auth.Register(ctx, dto.RegisterRequest{
		Name: "Alice", Surname: "Smith", Username: "       ", Email: "alice@example.com", Password: "secret123",
	})
	require.ErrorIs(t, err, model.ErrValidation)
	assert.Contains(t, err.Error(), "username cannot be empty")

	taken, err := h.store.Users.ExistsByEmail(ctx, "alice@example.com", "")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "alice01", "alice@example.com")

	user, pair, err := h.auth.Login(ctx, "ALICE@example.com", "secret123", "Chrome on Linux")
	require.NoError(t, err)
	assert.Equal(t, "alice01", user.Username)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.Equal(t, int64(1200), pair.ExpiresIn)
	assert.Equal(t, 1, h.store.Tokens.Count())

	records, err := h.store.Tokens.ListByUser(ctx, user.ID, model.TokenTypeRefresh)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Chrome on Linux", records[0].DeviceInfo)

	_, _, err = h.auth.Login(ctx, "alice@example.com", "wrong-pass1", "")
	require.ErrorIs(t, err, model.ErrUnauthenticated)
	_, _, err = h.auth.Login(ctx, "nobody@example.com", "secret123", "")
	require.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestRefreshCarriesRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.register(t, "alice01", "alice@example.com")
	h.makeAdmin(t, user)

	_, pair, err := h.auth.Login(ctx, "alice@example.com", "secret123", "")
	require.NoError(t, err)

	h.clock.Advance(time.Minute)
	resp, err := h.auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	claims, err := h.ledger.Issuer.ValidateAccess(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Subject)
}

func TestRefreshRejectsBadTokens(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "alice01", "alice@example.com")
	_, pair, err := h.auth.Login(ctx, "alice@example.com", "secret123", "")
	require.NoError(t, err)

	t.Run("access token", func(t *testing.T) {
		_, err := h.auth.Refresh(ctx, pair.AccessToken)
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := h.auth.Refresh(ctx, "not-a-token")
		require.ErrorIs(t, err, model.ErrUnauthenticated)
	})

	t.Run("expired", func(t *testing.T) {
		h.clock.Advance(8 * 24 * time.Hour)
		defer h.clock.Advance(-8 * 24 * time.Hour)
		_, err := h.auth.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, model.ErrExpiredToken)
	})
}

func TestLogoutRevokesEverything(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.register(t, "alice01", "alice@example.com")

	_, first, err := h.auth.Login(ctx, "alice@example.com", "secret123", "phone")
	require.NoError(t, err)
	h.clock.Advance(time.Second)
	_, second, err := h.auth.Login(ctx, "alice@example.com", "secret123", "laptop")
	require.NoError(t, err)

	revoked, err := h.auth.Logout(ctx, user.ID, second.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, 2, revoked)
	assert.Equal(t, 0, h.store.Tokens.Count())

	for _, token := range []string{first.RefreshToken, second.RefreshToken} {
		_, err := h.auth.Refresh(ctx, token)
		require.ErrorIs(t, err, model.ErrRevokedToken)
	}

	gone, err := h.ledger.IsRevoked(ctx, second.AccessToken)
	require.NoError(t, err)
	assert.True(t, gone)

	// a second logout is harmless
	revoked, err = h.auth.Logout(ctx, user.ID, second.AccessToken)
	require.NoError(t, err)
	assert.Zero(t, revoked)
}

func TestLoginInSameSecondAfterLogout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.register(t, "alice01", "alice@example.com")

	_, before, err := h.auth.Login(ctx, "alice@example.com", "secret123", "")
	require.NoError(t, err)
	_, err = h.auth.Logout(ctx, user.ID, before.AccessToken)
	require.NoError(t, err)

	_, after, err := h.auth.Login(ctx, "alice@example.com", "secret123", "")
	require.NoError(t, err)
	assert.NotEqual(t, before.AccessToken, after.AccessToken)

	revoked, err := h.ledger.IsRevoked(ctx, after.AccessToken)
	require.NoError(t, err)
	assert.False(t, revoked)

	claims, err := h.ledger.Issuer.ValidateAccess(after.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	refreshed, err := h.auth.Refresh(ctx, after.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, before.AccessToken, refreshed.AccessToken)
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.register(t, "alice01", "alice@example.com")
	h.register(t, "bobby01", "bob@example.com")
	_, old, err := h.auth.Login(ctx, "alice@example.com", "secret123", "")
	require.NoError(t, err)

	t.Run("plain fields keep tokens", func(t *testing.T) {
		updated, pair, err := h.auth.UpdateProfile(ctx, user.ID, dto.UpdateUserRequest{Name: ptr("Alicia")}, "")
		require.NoError(t, err)
		assert.Nil(t, pair)
		assert.Equal(t, "Alicia", updated.Name)
	})

	t.Run("taken username", func(t *testing.T) {
		_, _, err := h.auth.UpdateProfile(ctx, user.ID, dto.UpdateUserRequest{Username: ptr("bobby01")}, "")
		require.ErrorIs(t, err, model.ErrConflict)
	})

	t.Run("blank username", func(t *testing.T) {
		for _, raw := range []string{"     ", "  ab   "} {
			_, _, err := h.auth.UpdateProfile(ctx, user.ID, dto.UpdateUserRequest{Username: ptr(raw)}, "")
			require.ErrorIs(t, err, model.ErrValidation)
		}
		current, err := h.auth.Me(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice01", current.Username)
	})

	t.Run("taken email", func(t *testing.T) {
		_, _, err := h.auth.UpdateProfile(ctx, user.ID, dto.UpdateUserRequest{Email: ptr("bob@example.com")}, "")
		require.ErrorIs(t, err, model.ErrConflict)
	})

	t.Run("email change reissues tokens", func(t *testing.T) {
		h.clock.Advance(time.Second)
		updated, pair, err := h.auth.UpdateProfile(ctx, user.ID, dto.UpdateUserRequest{Email: ptr("new@example.com")}, "")
		require.NoError(t, err)
		require.NotNil(t, pair)
		assert.Equal(t, "new@example.com", updated.Email)

		_, err = h.auth.Refresh(ctx, old.RefreshToken)
		require.ErrorIs(t, err, model.ErrRevokedToken)

		claims, err := h.ledger.Issuer.ValidateAccess(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", claims.Subject)
	})
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.register(t, "alice01", "alice@example.com")

	tests := []struct {
		name string
		req  dto.ChangePasswordRequest
	}{
		{"mismatch", dto.ChangePasswordRequest{OldPassword: "secret123", NewPassword: "newpass12", ConfirmPassword: "newpass13"}},
		{"wrong current", dto.ChangePasswordRequest{OldPassword: "nope12345", NewPassword: "newpass12", ConfirmPassword: "newpass12"}},
		{"unchanged", dto.ChangePasswordRequest{OldPassword: "secret123", NewPassword: "secret123", ConfirmPassword: "secret123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, h.auth.ChangePassword(ctx, user.ID, tt.req), model.ErrValidation)
		})
	}

	require.NoError(t, h.auth.ChangePassword(ctx, user.ID, dto.ChangePasswordRequest{
		OldPassword: "secret123", NewPassword: "newpass12", ConfirmPassword: "newpass12",
	}))
	_, _, err := h.auth.Login(ctx, "alice@example.com", "newpass12", "")
	require.NoError(t, err)
}

func flipDigit(code string) string {
	b := []byte(code)
	b[0] = '0' + (b[0]-'0'+1)%10
	return string(b)
}

func TestPasswordResetFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "alice01", "alice@example.com")
	_, session, err := h.auth.Login(ctx, "alice@example.com", "secret123", "")
	require.NoError(t, err)

	_, err = h.auth.RequestPasswordReset(ctx, "ghost@example.com")
	require.ErrorIs(t, err, model.ErrNotFound)

	reset, err := h.auth.RequestPasswordReset(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, reset.ResetToken)
	require.Len(t, reset.ResetCode, 6)
	assert.Equal(t, h.clock.Now().Add(15*time.Minute), reset.ExpiresAt)

	_, err = h.auth.VerifyResetCode(ctx, "alice@example.com", flipDigit(reset.ResetCode))
	require.ErrorIs(t, err, model.ErrValidation)

	verified, err := h.auth.VerifyResetCode(ctx, "alice@example.com", reset.ResetCode)
	require.NoError(t, err)
	assert.Equal(t, reset.ResetToken, verified.ResetToken)

	invalid := []dto.ResetPasswordWithTokenRequest{
		{Token: reset.ResetToken, NewPassword: "longpass1", ConfirmPassword: "longpass2"},
		{Token: reset.ResetToken, NewPassword: "short1", ConfirmPassword: "short1"},
		{Token: reset.ResetToken, NewPassword: "secret123", ConfirmPassword: "secret123"},
		{Token: "unknown", NewPassword: "longpass1", ConfirmPassword: "longpass1"},
	}
	for _, req := range invalid {
		require.ErrorIs(t, h.auth.ResetPasswordWithToken(ctx, req), model.ErrValidation)
	}

	good := dto.ResetPasswordWithTokenRequest{Token: reset.ResetToken, NewPassword: "longpass1", ConfirmPassword: "longpass1"}
	require.NoError(t, h.auth.ResetPasswordWithToken(ctx, good))

	// single use
	good.NewPassword, good.ConfirmPassword = "longpass2", "longpass2"
	require.ErrorIs(t, h.auth.ResetPasswordWithToken(ctx, good), model.ErrValidation)

	_, err = h.auth.Refresh(ctx, session.RefreshToken)
	require.ErrorIs(t, err, model.ErrRevokedToken)

	_, _, err = h.auth.Login(ctx, "alice@example.com", "longpass1", "")
	require.NoError(t, err)
}

func TestVerifyResetCodeBurnsTokenAfterFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.register(t, "alice01", "alice@example.com")

	reset, err := h.auth.RequestPasswordReset(ctx, "alice@example.com")
	require.NoError(t, err)
	pending, err := h.store.Resets.LatestUsable(ctx, user.ID, h.clock.Now())
	require.NoError(t, err)

	var wrong []string
	for i := 0; len(wrong) < usecase.MaxResetCodeAttempts; i++ {
		code := fmt.Sprintf("%06d", i)
		if !h.auth.ResetCodes.Verify(code, pending.OTPSecret, h.clock.Now()) {
			wrong = append(wrong, code)
		}
	}

	for i, code := range wrong {
		_, err := h.auth.VerifyResetCode(ctx, "alice@example.com", code)
		require.ErrorIs(t, err, model.ErrValidation, "attempt %d", i+1)
	}

	_, err = h.auth.VerifyResetCode(ctx, "alice@example.com", reset.ResetCode)
	require.ErrorIs(t, err, model.ErrNotFound)

	err = h.auth.ResetPasswordWithToken(ctx, dto.ResetPasswordWithTokenRequest{
		Token: reset.ResetToken, NewPassword: "longpass1", ConfirmPassword: "longpass1",
	})
	require.ErrorIs(t, err, model.ErrValidation)

	// a new request starts a fresh budget
	again, err := h.auth.RequestPasswordReset(ctx, "alice@example.com")
	require.NoError(t, err)
	verified, err := h.auth.VerifyResetCode(ctx, "alice@example.com", again.ResetCode)
	require.NoError(t, err)
	assert.Equal(t, again.ResetToken, verified.ResetToken)
}

func TestVerifyResetCodeCountsFailuresBelowLimit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.register(t, "alice01", "alice@example.com")

	reset, err := h.auth.RequestPasswordReset(ctx, "alice@example.com")
	require.NoError(t, err)

	_, err = h.auth.VerifyResetCode(ctx, "alice@example.com", flipDigit(reset.ResetCode))
	require.ErrorIs(t, err, model.ErrValidation)

	pending, err := h.store.Resets.LatestUsable(ctx, user.ID, h.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, pending.FailedAttempts)

	verified, err := h.auth.VerifyResetCode(ctx, "alice@example.com", reset.ResetCode)
	require.NoError(t, err)
	assert.Equal(t, reset.ResetToken, verified.ResetToken)
}

func TestPasswordResetExpires(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "alice01", "alice@example.com")

	reset, err := h.auth.RequestPasswordReset(ctx, "alice@example.com")
	require.NoError(t, err)

	h.clock.Advance(16 * time.Minute)
	_, err = h.auth.VerifyResetCode(ctx, "alice@example.com", reset.ResetCode)
	require.ErrorIs(t, err, model.ErrNotFound)

	err = h.auth.ResetPasswordWithToken(ctx, dto.ResetPasswordWithTokenRequest{
		Token: reset.ResetToken, NewPassword: "longpass1", ConfirmPassword: "longpass1",
	})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestPasswordResetHidesSecretsOutsideDevMode(t *testing.T) {
	h := newHarness(t)
	h.auth.DevMode = false
	h.register(t, "alice01", "alice@example.com")

	reset, err := h.auth.RequestPasswordReset(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Empty(t, reset.ResetToken)
	assert.Empty(t, reset.ResetCode)
}
