package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/bayramdkmn/notepad-intern/utils"
	"github.com/gin-gonic/gin"
)

// EnhancedRecoveryMiddleware turns a panic into a 500 and logs it with the
// stack. The client only sees a generic message.
func EnhancedRecoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.ErrorContext(c.Request.Context(), "panic recovered",
					"error", err,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"request_id", c.GetString(ContextRequestID),
					"stack", string(debug.Stack()),
				)
				TrackError("panic")
				utils.InternalError(c, "internal server error")
			}
		}()
		c.Next()
	}
}
