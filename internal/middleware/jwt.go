package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"finance_portal/internal/utils" // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set by the middlewares
const (
	CtxUserID    = "userID"
	CtxFirstName = "firstName"
	CtxRole      = "role"
	CtxRequestID = "requestID"
)

// JWTAuthMiddleware validates the session token from the Authorization header,
// falling back to the session cookie
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "message": "Please log in"})
			return
		}
		claims, err := utils.ParseJWT(tokenStr, secret) // Parse the JWT token
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "message": "Session expired, please log in again"})
			return
		}
		c.Set(CtxUserID, claims.UserID)       // Store userID in context
		c.Set(CtxFirstName, claims.FirstName) // Used for the greeting
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookie, err := c.Cookie(utils.SessionCookie); err == nil {
		return cookie
	}
	return ""
}
