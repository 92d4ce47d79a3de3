package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"finance_portal/internal/credentials" // User store
	"finance_portal/internal/domain"      // Error taxonomy
	"finance_portal/internal/middleware"  // Context keys
	"finance_portal/internal/utils"       // JWT and password policy

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// RegisterRequest carries the registration form
type RegisterRequest struct {
	FirstName       string `json:"first_name" binding:"required"`       // First name must be provided
	LastName        string `json:"last_name" binding:"required"`        // Last name must be provided
	Email           string `json:"email" binding:"required"`            // Email must be provided
	Username        string `json:"username" binding:"required"`         // Username must be provided
	Password        string `json:"password" binding:"required"`         // Password must be provided
	ConfirmPassword string `json:"confirm_password" binding:"required"` // Confirmation must be provided
}

// LoginRequest carries the login form
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// ChangePasswordRequest carries the profile password form
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"` // Current password must be provided
	NewPassword     string `json:"new_password" binding:"required"`     // New password must be provided
	ConfirmPassword string `json:"confirm_password" binding:"required"` // Confirmation must be provided
}

// anyBlank reports whether any of the values is whitespace only, which binding:"required" lets through
func anyBlank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// RegisterHandler creates a standard user
func RegisterHandler(users *credentials.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond(c, http.StatusBadRequest, "missing_fields", nil)
			return
		}
		if anyBlank(req.FirstName, req.LastName, req.Email, req.Username, req.Password, req.ConfirmPassword) {
			respond(c, http.StatusBadRequest, "missing_fields", nil)
			return
		}
		if req.Password != req.ConfirmPassword {
			respond(c, http.StatusBadRequest, "password_mismatch", nil)
			return
		}
		if !utils.IsValidPassword(req.Password) {
			respond(c, http.StatusBadRequest, "invalid_password", nil)
			return
		}
		id, err := users.CreateUser(c.Request.Context(), credentials.NewUser{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Username:  req.Username,
			Password:  req.Password,
		})
		switch {
		case errors.Is(err, domain.ErrDuplicateUsername):
			respond(c, http.StatusConflict, "username_exists", nil)
		case errors.Is(err, domain.ErrDuplicateEmail):
			respond(c, http.StatusConflict, "email_exists", nil)
		case errors.Is(err, domain.ErrDuplicate):
			respond(c, http.StatusConflict, "failed", nil) // Lost a concurrent registration race
		case err != nil:
			logrus.WithField("error", err.Error()).Error("Registration failed")
			respond(c, http.StatusInternalServerError, "failed", nil)
		default:
			respond(c, http.StatusCreated, "registration_success", gin.H{"user_id": id})
		}
	}
}

// LoginHandler authenticates a user, returns a session token and sets it as an HttpOnly cookie
func LoginHandler(users *credentials.Store, jwtSecret string, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil || anyBlank(req.Username, req.Password) {
			respond(c, http.StatusBadRequest, "missing_fields", nil)
			return
		}
		user, err := users.Authenticate(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
		if errors.Is(err, domain.ErrInvalidCredentials) {
			logrus.WithField("username", req.Username).Warn("Login rejected")
			respond(c, http.StatusUnauthorized, "failed", nil)
			return
		}
		if err != nil {
			logrus.WithField("error", err.Error()).Error("Login failed")
			respond(c, http.StatusInternalServerError, "failed", nil)
			return
		}
		token, err := utils.GenerateJWT(user.ID, user.FirstName, jwtSecret)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": user.ID,     // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to generate token")
			respond(c, http.StatusInternalServerError, "failed", nil)
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(utils.SessionCookie, token, int(utils.SessionTTL.Seconds()), "/", "", secureCookie, true)
		respond(c, http.StatusOK, "login_success", gin.H{
			"token":      token,          // JWT token
			"user_id":    user.ID,        // User ID
			"first_name": user.FirstName, // Greeting name
			"role":       user.Role,      // A or U
		})
	}
}

// LogoutHandler clears the session cookie. Bearer tokens stay valid until they expire.
func LogoutHandler(secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(utils.SessionCookie, "", -1, "/", "", secureCookie, true)
		respond(c, http.StatusOK, "logout", nil)
	}
}

// ChangePasswordHandler replaces the logged-in user's password after checking the current one
func ChangePasswordHandler(users *credentials.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint(middleware.CtxUserID)
		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil || anyBlank(req.CurrentPassword, req.NewPassword, req.ConfirmPassword) {
			respond(c, http.StatusBadRequest, "missing_fields", nil)
			return
		}
		if req.NewPassword != req.ConfirmPassword {
			respond(c, http.StatusBadRequest, "password_mismatch", nil)
			return
		}
		if !utils.IsValidPassword(req.NewPassword) {
			respond(c, http.StatusBadRequest, "invalid_password", nil)
			return
		}
		err := users.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword)
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			respond(c, http.StatusForbidden, "incorrect_password", nil)
		case errors.Is(err, domain.ErrNotFound):
			respond(c, http.StatusNotFound, "account_not_found", nil)
		case err != nil:
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Error("Password update failed")
			respond(c, http.StatusInternalServerError, "update_error", nil)
		default:
			logrus.WithField("user_id", userID).Info("Password updated")
			respond(c, http.StatusOK, "password_updated", nil)
		}
	}
}
