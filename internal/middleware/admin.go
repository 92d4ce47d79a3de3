package middleware

import (
	"net/http" // HTTP status codes

	"finance_portal/internal/credentials" // User lookups

	"github.com/gin-gonic/gin" // Gin web framework
)

// AdminOnlyMiddleware checks the user's role from the database on each request
func AdminOnlyMiddleware(users *credentials.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint(CtxUserID)
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "message": "Please log in"})
			return
		}
		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": "forbidden", "message": "Admin access required"})
			return
		}
		c.Set(CtxRole, user.Role)
		c.Next()
	}
}
