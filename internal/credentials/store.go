// Package credentials persists user identity and password material.
package credentials

import (
	"context" // Request-scoped cancellation
	"errors"  // Error classification
	"strings" // Input normalisation

	"finance_portal/internal/domain" // Importing domain models
	"finance_portal/internal/utils"  // Password hashing

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// Store reads and writes the users table
type Store struct {
	db *gorm.DB
}

// NewStore returns a Store backed by db
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// NewUser carries the registration fields
type NewUser struct {
	FirstName string
	LastName  string
	Email     string
	Username  string
	Password  string
}

// FindByUsername returns the user with the given user_name
func (s *Store) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("user_name = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Persistence("find user by username", err)
	}
	return &user, nil
}

// FindByID returns the user with the given id
func (s *Store) FindByID(ctx context.Context, userID uint) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Persistence("find user by id", err)
	}
	return &user, nil
}

// VerifyPassword checks candidate against the user's stored credential,
// through the legacy plaintext path when the record has no salt
func (s *Store) VerifyPassword(user *domain.User, candidate string) bool {
	return utils.ResolvePassword(user.Password, user.SaltValue()).Verify(candidate)
}

// UpgradeLegacyPassword moves a legacy record to the salted scheme. The caller
// must already have verified plain against the stored plaintext.
func (s *Store) UpgradeLegacyPassword(ctx context.Context, user *domain.User, plain string) error {
	stored, err := utils.HashPassword(plain)
	if err != nil {
		return err
	}
	if err := s.savePassword(ctx, user.ID, stored); err != nil {
		return err
	}
	user.Password = stored.Value // Keep the in-memory record in step
	user.Salt = &stored.Salt
	logrus.WithField("user_id", user.ID).Info("Legacy password migrated")
	return nil
}

// Authenticate looks the user up and verifies the password. A successful legacy
// login transparently migrates the record; a failed migration does not fail the login.
func (s *Store) Authenticate(ctx context.Context, username, candidate string) (*domain.User, error) {
	user, err := s.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	legacy := user.SaltValue() == ""
	if !s.VerifyPassword(user, candidate) {
		return nil, domain.ErrInvalidCredentials
	}
	if legacy {
		if err := s.UpgradeLegacyPassword(ctx, user, candidate); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": user.ID,     // User ID
				"error":   err.Error(), // Error message
			}).Error("Legacy password migration failed")
		}
	}
	return user, nil
}

// UpdatePassword stores a freshly salted hash of newPlain. An unknown user id is
// not an error: the update simply touches no rows.
func (s *Store) UpdatePassword(ctx context.Context, userID uint, newPlain string) error {
	stored, err := utils.HashPassword(newPlain)
	if err != nil {
		return err
	}
	return s.savePassword(ctx, userID, stored)
}

// ChangePassword verifies the current password before replacing it
func (s *Store) ChangePassword(ctx context.Context, userID uint, current, newPlain string) error {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.VerifyPassword(user, current) {
		return domain.ErrInvalidCredentials
	}
	return s.UpdatePassword(ctx, userID, newPlain)
}

// CreateUser registers a standard user. Username and email are checked before the
// insert; two concurrent registrations can both pass the check, in which case the
// unique indexes reject the second insert with ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, in NewUser) (uint, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	taken, err := s.exists(ctx, "user_name = ?", in.Username)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, domain.ErrDuplicateUsername
	}
	taken, err = s.exists(ctx, "email = ?", in.Email)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, domain.ErrDuplicateEmail
	}

	stored, err := utils.HashPassword(in.Password)
	if err != nil {
		return 0, err
	}
	user := domain.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      domain.RoleStandard, // New users are never admins
		Email:     in.Email,
		Username:  in.Username,
		Password:  stored.Value,
		Salt:      &stored.Salt,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, domain.ErrDuplicate // Lost the check-then-insert race
		}
		return 0, domain.Persistence("create user", err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,       // New user ID
		"username": user.Username, // Username
	}).Info("User registered")
	return user.ID, nil
}

func (s *Store) exists(ctx context.Context, where string, arg any) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Where(where, arg).Count(&count).Error; err != nil {
		return false, domain.Persistence("check user uniqueness", err)
	}
	return count > 0, nil
}

func (s *Store) savePassword(ctx context.Context, userID uint, stored utils.StoredPassword) error {
	err := s.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"password": stored.Value, "salt": stored.Salt}).Error
	if err != nil {
		return domain.Persistence("update password", err)
	}
	return nil
}
