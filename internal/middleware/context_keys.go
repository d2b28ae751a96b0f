package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/harborlend/loancrm/internal/core/domain"
)

// userIDKey is the key used to store the authenticated user's ID in the
// request context. userKey stores the fully loaded user.
const (
	userIDKey = contextKey("userID")
	userKey   = contextKey("user")
)

// GetUserIDFromContext retrieves the authenticated user ID from the Gin
// context. It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal := c.Request.Context().Value(userIDKey)
	if userIDVal == nil {
		return "", false
	}
	userID, ok := userIDVal.(string)
	if !ok {
		return "", false
	}
	return userID, true
}

// GetUserFromContext retrieves the fully loaded authenticated user from the
// Gin context.
func GetUserFromContext(c *gin.Context) (*domain.User, bool) {
	userVal := c.Request.Context().Value(userKey)
	if userVal == nil {
		return nil, false
	}
	user, ok := userVal.(*domain.User)
	if !ok {
		return nil, false
	}
	return user, true
}
