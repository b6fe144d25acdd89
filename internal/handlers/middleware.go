package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/PrepMaster-App/analytics-service/internal/auth"
	"github.com/PrepMaster-App/analytics-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// RequestLogger emits one structured line per completed request.
func RequestLogger(logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.LogRequest(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).String(),
			"remote_addr", c.ClientIP())
	}
}

// AuthMiddleware verifies the bearer token on incoming requests and stores
// the resolved user on the gin context for downstream handlers.
func AuthMiddleware(provider auth.Provider, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Missing authorization header"})
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid authorization header"})
			return
		}

		user, err := provider.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Warn("Token verification failed",
				"path", c.Request.URL.Path,
				"error", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid or expired token"})
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}
