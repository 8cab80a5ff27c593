package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayramdkmn/notepad-intern/model"
	"github.com/bayramdkmn/notepad-intern/services"
)

type stubRevocations struct {
	revoked map[string]bool
	err     error
}

func (s stubRevocations) IsRevoked(ctx context.Context, token string) (bool, error) {
	return s.revoked[token], s.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newGateRouter(issuer *services.TokenIssuer, rev RevocationChecker) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(issuer, rev, nil), func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": p.UserID, "email": p.Email, "role": p.Role, "token": c.GetString(ContextAccessToken)})
	})
	r.GET("/admin", AuthMiddleware(issuer, rev, nil), RequireRole(model.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	issuer := services.NewTokenIssuer("access", "refresh", time.Minute, time.Hour)
	user := services.Identity{Email: "alice@example.com", UserID: "u1", Role: model.RoleUser}

	access, _, err := issuer.IssueAccessToken(user, 0)
	require.NoError(t, err)
	refresh, _, err := issuer.IssueRefreshToken(user)
	require.NoError(t, err)
	revokedToken, _, err := issuer.IssueAccessToken(user, 2*time.Minute)
	require.NoError(t, err)
	foreign, _, err := services.NewTokenIssuer("other", "other", time.Minute, time.Hour).IssueAccessToken(user, 0)
	require.NoError(t, err)
	expired, _, err := services.NewTokenIssuer("access", "refresh", time.Minute, time.Hour).
		WithClock(func() time.Time { return time.Now().Add(-time.Hour) }).
		IssueAccessToken(user, 0)
	require.NoError(t, err)

	rev := stubRevocations{revoked: map[string]bool{revokedToken: true}}

	tests := []struct {
		name   string
		header string
		rev    RevocationChecker
		want   int
	}{
		{"missing header", "", rev, http.StatusUnauthorized},
		{"wrong scheme", "Basic " + access, rev, http.StatusUnauthorized},
		{"empty bearer", "Bearer ", rev, http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", rev, http.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh, rev, http.StatusUnauthorized},
		{"foreign key", "Bearer " + foreign, rev, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, rev, http.StatusUnauthorized},
		{"revoked", "Bearer " + revokedToken, rev, http.StatusUnauthorized},
		{"lookup failure", "Bearer " + access, stubRevocations{err: errors.New("db down")}, http.StatusUnauthorized},
		{"valid", "Bearer " + access, rev, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newGateRouter(issuer, tt.rev).ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"id":"u1","email":"alice@example.com","role":"user","token":"`+access+`"}`, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	issuer := services.NewTokenIssuer("access", "refresh", time.Minute, time.Hour)
	router := newGateRouter(issuer, stubRevocations{})

	tests := []struct {
		role string
		want int
	}{
		{model.RoleUser, http.StatusForbidden},
		{model.RoleAdmin, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			token, _, err := issuer.IssueAccessToken(services.Identity{Email: "a@b.co", UserID: "u1", Role: tt.role}, 0)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
