package utils

import (
	"crypto/rand"   // Salt generation
	"crypto/subtle" // Constant-time comparison for legacy rows
	"encoding/hex"  // Salt encoding
	"regexp"        // Password policy checks

	"golang.org/x/crypto/bcrypt" // Password hashing
)

// PasswordScheme tells how a stored password must be verified
type PasswordScheme int

const (
	LegacyPlaintext PasswordScheme = iota // No salt, password column holds the plaintext
	SaltedHash                            // bcrypt over password+salt
)

// StoredPassword is the password material of one user record
type StoredPassword struct {
	Scheme PasswordScheme // Resolved from the salt
	Value  string         // Plaintext or bcrypt hash
	Salt   string         // Empty for LegacyPlaintext
}

// ResolvePassword builds the variant for a stored password/salt pair
func ResolvePassword(password, salt string) StoredPassword {
	if salt == "" {
		return StoredPassword{Scheme: LegacyPlaintext, Value: password}
	}
	return StoredPassword{Scheme: SaltedHash, Value: password, Salt: salt}
}

// Verify checks candidate against the stored material
func (p StoredPassword) Verify(candidate string) bool {
	switch p.Scheme {
	case LegacyPlaintext:
		return subtle.ConstantTimeCompare([]byte(p.Value), []byte(candidate)) == 1
	case SaltedHash:
		return bcrypt.CompareHashAndPassword([]byte(p.Value), []byte(candidate+p.Salt)) == nil
	}
	return false
}

// NewSalt returns 128 random bits, hex encoded (32 characters)
func NewSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashPassword generates a fresh salt and the bcrypt hash of plain+salt
func HashPassword(plain string) (StoredPassword, error) {
	salt, err := NewSalt()
	if err != nil {
		return StoredPassword{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain+salt), bcrypt.DefaultCost)
	if err != nil {
		return StoredPassword{}, err
	}
	return StoredPassword{Scheme: SaltedHash, Value: string(hash), Salt: salt}, nil
}

var (
	upperRe  = regexp.MustCompile(`[A-Z]`)        // At least one uppercase letter
	digitRe  = regexp.MustCompile(`[0-9]`)        // At least one digit
	symbolRe = regexp.MustCompile(`[^A-Za-z0-9]`) // At least one symbol
)

// IsValidPassword checks the portal password policy: 8-20 characters with an
// uppercase letter, a digit and a symbol
func IsValidPassword(password string) bool {
	if len(password) < 8 || len(password) > 20 {
		return false // Length out of range
	}
	return upperRe.MatchString(password) && digitRe.MatchString(password) && symbolRe.MatchString(password)
}
