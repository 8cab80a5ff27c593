package middleware

import "github.com/gin-gonic/gin"

// NoStoreMiddleware keeps responses carrying tokens or profile data out of
// shared caches.
func NoStoreMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
