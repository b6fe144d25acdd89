package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParseIntQuery reads an integer query parameter, falling back to a default
// when the parameter is absent or malformed.
func ParseIntQuery(c *gin.Context, param string, defaultValue int) int {
	raw := c.Query(param)
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

// CurrentUserID returns the authenticated user resolved by the auth
// middleware, or "" when the request is unauthenticated.
func CurrentUserID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return ""
}
