package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/bayramdkmn/notepad-intern/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrMissingRole = errors.New("role is required to issue a token")

// Identity is what a token asserts about its bearer.
type Identity struct {
	Email  string
	UserID string
	Role   string
}

// Claims is the token payload: sub (email), id, role, type, iat, exp and,
// for refresh tokens only, jti.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() Identity {
	return Identity{Email: c.Subject, UserID: c.UserID, Role: c.Role}
}

// TokenIssuer signs and validates HS256 tokens. Access and refresh tokens use
// separate keys so one can never be presented as the other.
type TokenIssuer struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessKey:  []byte(accessSecret),
		refreshKey: []byte(refreshSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	i.now = now
	return i
}

func (i *TokenIssuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *TokenIssuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssueAccessToken signs an access token valid for ttl, or the configured
// lifetime when ttl is zero.
func (i *TokenIssuer) IssueAccessToken(id Identity, ttl time.Duration) (string, *Claims, error) {
	return i.IssueAccessTokenAt(id, ttl, i.now())
}

// IssueAccessTokenAt is IssueAccessToken with an explicit issued-at time.
func (i *TokenIssuer) IssueAccessTokenAt(id Identity, ttl time.Duration, issuedAt time.Time) (string, *Claims, error) {
	if ttl <= 0 {
		ttl = i.accessTTL
	}
	return i.sign(id, model.TokenTypeAccess, "", ttl, i.accessKey, issuedAt)
}

// IssueRefreshToken signs a refresh token carrying a fresh jti.
func (i *TokenIssuer) IssueRefreshToken(id Identity) (string, *Claims, error) {
	return i.sign(id, model.TokenTypeRefresh, uuid.NewString(), i.refreshTTL, i.refreshKey, i.now())
}

func (i *TokenIssuer) sign(id Identity, tokenType, jti string, ttl time.Duration, key []byte, issuedAt time.Time) (string, *Claims, error) {
	if id.Role == "" {
		return "", nil, ErrMissingRole
	}
	if id.Email == "" || id.UserID == "" {
		return "", nil, errors.New("email and user id are required to issue a token")
	}

	now := issuedAt.UTC()
	claims := &Claims{
		UserID: id.UserID,
		Role:   id.Role,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", nil, fmt.Errorf("sign %s: %w", tokenType, err)
	}
	return signed, claims, nil
}

// ValidateAccess checks signature, expiry and type of an access token.
func (i *TokenIssuer) ValidateAccess(token string) (*Claims, error) {
	return i.validate(token, i.accessKey, model.TokenTypeAccess)
}

// ValidateRefresh checks signature, expiry and type of a refresh token.
func (i *TokenIssuer) ValidateRefresh(token string) (*Claims, error) {
	return i.validate(token, i.refreshKey, model.TokenTypeRefresh)
}

func (i *TokenIssuer) validate(token string, key []byte, tokenType string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, model.ErrExpiredToken
	case err != nil:
		return nil, model.ErrInvalidToken
	}

	if claims.Type != tokenType {
		return nil, model.ErrInvalidToken
	}
	return claims, nil
}
