package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/bayramdkmn/notepad-intern/dto"
	"github.com/bayramdkmn/notepad-intern/model"
	"github.com/bayramdkmn/notepad-intern/services"
	"github.com/bayramdkmn/notepad-intern/utils"
)

const (
	bearerTokenType = "bearer"

	// maxAccessReissues bounds how far issued-at is moved past a revoked token.
	maxAccessReissues = 5
)

// TokenLedger issues token pairs, keeps live refresh tokens and the
// revocation list. Access tokens are only ever stored once revoked.
type TokenLedger struct {
	Issuer    *services.TokenIssuer
	Tokens    TokenRepository
	Blacklist BlacklistRepository
	Now       func() time.Time
}

func identityOf(user *model.User) services.Identity {
	return services.Identity{Email: user.Email, UserID: user.ID, Role: user.Role}
}

// IssuePair mints an access and a refresh token for user and persists the
// refresh token with the device it was issued to.
func (l *TokenLedger) IssuePair(ctx context.Context, user *model.User, device string) (*dto.TokenPair, error) {
	id := identityOf(user)

	access, err := l.mintAccess(ctx, id)
	if err != nil {
		return nil, err
	}
	refresh, claims, err := l.Issuer.IssueRefreshToken(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInternal, err)
	}

	record := &model.Token{
		ID:         utils.NewID(),
		UserID:     user.ID,
		Token:      refresh,
		TokenType:  model.TokenTypeRefresh,
		JTI:        claims.ID,
		DeviceInfo: device,
		CreatedAt:  claims.IssuedAt.Time,
		ExpiresAt:  claims.ExpiresAt.Time,
	}
	if err := l.Tokens.Create(ctx, record); err != nil {
		return nil, err
	}

	return &dto.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    bearerTokenType,
		ExpiresIn:    int64(l.Issuer.AccessTTL().Seconds()),
	}, nil
}

// IssueAccess mints a fresh access token for user.
func (l *TokenLedger) IssueAccess(ctx context.Context, user *model.User) (*dto.RefreshResponse, error) {
	access, err := l.mintAccess(ctx, identityOf(user))
	if err != nil {
		return nil, err
	}
	return &dto.RefreshResponse{
		AccessToken: access,
		TokenType:   bearerTokenType,
		ExpiresIn:   int64(l.Issuer.AccessTTL().Seconds()),
	}, nil
}

// mintAccess signs an access token that is not already blacklisted. Access
// claims have second resolution and no jti, so a token minted in the same
// second as one revoked at logout would be byte-identical; issued-at is
// moved forward a second at a time until the token is new.
func (l *TokenLedger) mintAccess(ctx context.Context, id services.Identity) (string, error) {
	issuedAt := clock(l.Now)
	for range maxAccessReissues {
		access, _, err := l.Issuer.IssueAccessTokenAt(id, 0, issuedAt)
		if err != nil {
			return "", fmt.Errorf("%w: %v", model.ErrInternal, err)
		}
		revoked, err := l.Blacklist.ExistsByToken(ctx, access)
		if err != nil {
			return "", err
		}
		if !revoked {
			return access, nil
		}
		issuedAt = issuedAt.Add(time.Second)
	}
	return "", fmt.Errorf("%w: could not mint an unrevoked access token", model.ErrInternal)
}

// Revoke blacklists a live refresh token and removes its record.
func (l *TokenLedger) Revoke(ctx context.Context, record *model.Token) error {
	if err := l.blacklist(ctx, record.JTI, record.Token); err != nil {
		return err
	}
	if err := l.Tokens.Delete(ctx, record.ID); err != nil && !errors.Is(err, model.ErrNotFound) {
		return err
	}
	return nil
}

// RevokeAllForUser revokes every live refresh token of the user and returns
// how many there were.
func (l *TokenLedger) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	records, err := l.Tokens.ListByUser(ctx, userID, model.TokenTypeRefresh)
	if err != nil {
		return 0, err
	}
	for _, record := range records {
		if err := l.Revoke(ctx, record); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

// RevokeAccessToken blacklists an access token. Access tokens carry no jti,
// so the entry is keyed by a digest of the token.
func (l *TokenLedger) RevokeAccessToken(ctx context.Context, raw string) error {
	sum := sha256.Sum256([]byte(raw))
	return l.blacklist(ctx, "access:"+hex.EncodeToString(sum[:]), raw)
}

func (l *TokenLedger) blacklist(ctx context.Context, jti, raw string) error {
	err := l.Blacklist.Add(ctx, &model.BlacklistedToken{
		ID:        utils.NewID(),
		JTI:       jti,
		Token:     raw,
		CreatedAt: clock(l.Now),
	})
	if errors.Is(err, model.ErrConflict) {
		return nil
	}
	return err
}

// ValidateRefresh accepts a refresh token only if it is not blacklisted, is
// correctly signed and unexpired, and still has a live record.
func (l *TokenLedger) ValidateRefresh(ctx context.Context, raw string) (*services.Claims, error) {
	revoked, err := l.Blacklist.ExistsByToken(ctx, raw)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, model.ErrRevokedToken
	}

	claims, err := l.Issuer.ValidateRefresh(raw)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.UserID == "" || claims.Subject == "" {
		return nil, model.ErrInvalidToken
	}

	revoked, err = l.Blacklist.ExistsByJTI(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, model.ErrRevokedToken
	}

	record, err := l.Tokens.GetByJTI(ctx, claims.ID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if record.Token != raw || record.UserID != claims.UserID {
		return nil, model.ErrInvalidToken
	}
	return claims, nil
}

// IsRevoked is the single lookup the authentication gate makes per request.
func (l *TokenLedger) IsRevoked(ctx context.Context, raw string) (bool, error) {
	return l.Blacklist.ExistsByToken(ctx, raw)
}

// PurgeExpired drops live refresh records that can no longer be used.
func (l *TokenLedger) PurgeExpired(ctx context.Context) (int64, error) {
	return l.Tokens.DeleteExpired(ctx, clock(l.Now))
}
