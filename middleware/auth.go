package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bayramdkmn/notepad-intern/dto"
	"github.com/bayramdkmn/notepad-intern/services"
	"github.com/bayramdkmn/notepad-intern/utils"
	"github.com/gin-gonic/gin"
)

// Keys the gate stores on the gin context.
const (
	ContextUserID      = "user_id"
	ContextEmail       = "email"
	ContextRole        = "role"
	ContextAccessToken = "access_token"
)

type AccessValidator interface {
	ValidateAccess(token string) (*services.Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware admits a request only with a valid, unrevoked access token
// that carries a full identity. Every failure is a 401.
func AuthMiddleware(tokens AccessValidator, revocations RevocationChecker, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.Unauthorized(c, "Missing or invalid token")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			utils.Unauthorized(c, "Missing or invalid token")
			return
		}

		claims, err := tokens.ValidateAccess(tokenString)
		if err != nil {
			TrackAuthAttempt("failure", "access")
			utils.Unauthorized(c, "Invalid token")
			return
		}

		id := claims.Identity()
		if id.Email == "" || id.UserID == "" || id.Role == "" {
			TrackAuthAttempt("failure", "access")
			utils.Unauthorized(c, "Invalid token claims")
			return
		}

		revoked, err := revocations.IsRevoked(c.Request.Context(), tokenString)
		if err != nil {
			if logger != nil {
				logger.ErrorContext(c.Request.Context(), "revocation lookup failed", "error", err)
			}
			utils.Unauthorized(c, "Invalid token")
			return
		}
		if revoked {
			TrackAuthAttempt("failure", "access")
			utils.Unauthorized(c, "Token has been invalidated")
			return
		}

		c.Set(ContextUserID, id.UserID)
		c.Set(ContextEmail, id.Email)
		c.Set(ContextRole, id.Role)
		c.Set(ContextAccessToken, tokenString)
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != role {
			utils.Forbidden(c, "Insufficient permissions")
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the identity set by AuthMiddleware.
func PrincipalFrom(c *gin.Context) (dto.Principal, bool) {
	p := dto.Principal{
		UserID: c.GetString(ContextUserID),
		Email:  c.GetString(ContextEmail),
		Role:   c.GetString(ContextRole),
	}
	return p, p.UserID != ""
}
