package credentials

import (
	"context"
	"testing"

	"finance_portal/internal/db/dbtest"
	"finance_portal/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newStore(t *testing.T) (*Store, *gorm.DB) {
	gdb := dbtest.Open(t)
	return NewStore(gdb), gdb
}

func seedLegacyUser(t *testing.T, gdb *gorm.DB, username, password string) *domain.User {
	user := &domain.User{
		FirstName: "Legacy",
		LastName:  "User",
		Role:      domain.RoleStandard,
		Email:     username + "@example.com",
		Username:  username,
		Password:  password,
	}
	require.NoError(t, gdb.Create(user).Error)
	return user
}

func register(t *testing.T, s *Store, username, email string) uint {
	id, err := s.CreateUser(context.Background(), NewUser{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Username:  username,
		Password:  "Str0ng!pass",
	})
	require.NoError(t, err)
	return id
}

func TestCreateUserHashesWithSalt(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	id := register(t, s, "ada", "ada@example.com")

	user, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ada", user.Username)
	assert.Equal(t, domain.RoleStandard, user.Role)
	assert.Len(t, user.SaltValue(), 32)
	assert.NotEqual(t, "Str0ng!pass", user.Password)
	assert.True(t, s.VerifyPassword(user, "Str0ng!pass"))
	assert.False(t, s.VerifyPassword(user, "wrong"))
}

func TestCreateUserTrimsFields(t *testing.T) {
	s, _ := newStore(t)

	id, err := s.CreateUser(context.Background(), NewUser{
		FirstName: "  Ada ",
		LastName:  " Lovelace",
		Email:     " ada@example.com ",
		Username:  " ada ",
		Password:  "Str0ng!pass",
	})
	require.NoError(t, err)

	user, err := s.FindByUsername(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	s, _ := newStore(t)
	register(t, s, "ada", "ada@example.com")

	_, err := s.CreateUser(context.Background(), NewUser{Username: "ada", Email: "other@example.com", Password: "Str0ng!pass"})

	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s, _ := newStore(t)
	register(t, s, "ada", "ada@example.com")

	_, err := s.CreateUser(context.Background(), NewUser{Username: "grace", Email: "ada@example.com", Password: "Str0ng!pass"})

	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestCreateUserUsernameCheckedBeforeEmail(t *testing.T) {
	s, _ := newStore(t)
	register(t, s, "ada", "ada@example.com")

	_, err := s.CreateUser(context.Background(), NewUser{Username: "ada", Email: "ada@example.com", Password: "Str0ng!pass"})

	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)
}

func TestUniqueIndexBacksTheCheck(t *testing.T) {
	// A second insert that skipped the application check still hits the index
	_, gdb := newStore(t)
	seedLegacyUser(t, gdb, "ada", "pw")

	err := gdb.Create(&domain.User{FirstName: "A", LastName: "B", Email: "x@example.com", Username: "ada", Password: "pw"}).Error

	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestFindNotFound(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.FindByID(ctx, 999999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLegacyLoginUpgradesRecord(t *testing.T) {
	s, gdb := newStore(t)
	ctx := context.Background()
	legacy := seedLegacyUser(t, gdb, "old", "testpassword")
	require.Empty(t, legacy.SaltValue())

	user, err := s.Authenticate(ctx, "old", "testpassword")
	require.NoError(t, err)
	assert.Equal(t, legacy.ID, user.ID)
	assert.NotEmpty(t, user.SaltValue())

	reloaded, err := s.FindByID(ctx, legacy.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.SaltValue(), 32)
	assert.NotEqual(t, "testpassword", reloaded.Password)
	// The next verification goes through the salted path
	assert.True(t, s.VerifyPassword(reloaded, "testpassword"))

	again, err := s.Authenticate(ctx, "old", "testpassword")
	require.NoError(t, err)
	assert.Equal(t, reloaded.Password, again.Password, "salted login must not rehash")
}

func TestLegacyLoginWrongPasswordLeavesRecord(t *testing.T) {
	s, gdb := newStore(t)
	ctx := context.Background()
	legacy := seedLegacyUser(t, gdb, "old", "testpassword")

	_, err := s.Authenticate(ctx, "old", "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	reloaded, err := s.FindByID(ctx, legacy.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.SaltValue())
	assert.Equal(t, "testpassword", reloaded.Password)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.Authenticate(context.Background(), "ghost", "whatever")

	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestUpdatePassword(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	id := register(t, s, "ada", "ada@example.com")
	before, err := s.FindByID(ctx, id)
	require.NoError(t, err)

	require.NoError(t, s.UpdatePassword(ctx, id, "N3w!password"))

	after, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, before.SaltValue(), after.SaltValue(), "a fresh salt is generated")
	assert.True(t, s.VerifyPassword(after, "N3w!password"))
	assert.False(t, s.VerifyPassword(after, "Str0ng!pass"))
}

func TestUpdatePasswordUnknownUserIsPermissive(t *testing.T) {
	// Deliberately permissive contract: no row, no error
	s, _ := newStore(t)

	assert.NoError(t, s.UpdatePassword(context.Background(), 999999, "N3w!password"))
}

func TestChangePassword(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	id := register(t, s, "ada", "ada@example.com")

	assert.ErrorIs(t, s.ChangePassword(ctx, id, "wrong", "N3w!password"), domain.ErrInvalidCredentials)
	assert.ErrorIs(t, s.ChangePassword(ctx, 999999, "Str0ng!pass", "N3w!password"), domain.ErrNotFound)
	require.NoError(t, s.ChangePassword(ctx, id, "Str0ng!pass", "N3w!password"))

	_, err := s.Authenticate(ctx, "ada", "N3w!password")
	assert.NoError(t, err)
}

func TestChangePasswordFromLegacy(t *testing.T) {
	s, gdb := newStore(t)
	ctx := context.Background()
	legacy := seedLegacyUser(t, gdb, "old", "testpassword")

	require.NoError(t, s.ChangePassword(ctx, legacy.ID, "testpassword", "N3w!password"))

	user, err := s.Authenticate(ctx, "old", "N3w!password")
	require.NoError(t, err)
	assert.NotEmpty(t, user.SaltValue())
}
