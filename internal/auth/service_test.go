package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/database/accounts"
)

func testAuthConfig() config.Auth {
	return config.Auth{
		BcryptCost:         4, // Low cost for faster tests
		DefaultRole:        "Student",
		SessionLifetime:    24 * time.Hour,
		SessionIdleTimeout: time.Hour,
		MaxLoginAttempts:   3,
		RateLimitWindow:    time.Minute,
		LockoutDuration:    time.Minute,
	}
}

func setupService(t *testing.T) (*Service, *database.Database) {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Path:     filepath.Join(t.TempDir(), "auth.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(accounts.NewRepository(db.DB), testAuthConfig()), db
}

func TestService_Register(t *testing.T) {
	svc, _ := setupService(t)

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		role     string
		wantErr  error
	}{
		{"missing name", "  ", "a@example.com", "password123", "", ErrNameRequired},
		{"missing email", "Ann", "", "password123", "", ErrEmailRequired},
		{"invalid email", "Ann", "not-an-email", "password123", "", ErrEmailInvalid},
		{"missing password", "Ann", "a@example.com", "", "", ErrPasswordRequired},
		{"short password", "Ann", "a@example.com", "short", "", ErrPasswordTooShort},
		{"unknown role", "Ann", "a@example.com", "password123", "Librarian", accounts.ErrRoleNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(tt.userName, tt.email, tt.password, tt.role)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	has, err := svc.HasUsers()
	require.NoError(t, err)
	assert.False(t, has)
}

func TestService_Register_DefaultRoleAndNormalizedEmail(t *testing.T) {
	svc, _ := setupService(t)

	user, err := svc.Register(" Ann ", "  Ann@Example.COM ", "password123", "")
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, "Student", user.Role.Name)
	assert.NotEqual(t, "password123", user.PasswordHash)

	_, err = svc.Register("Other", "ann@example.com", "password123", "")
	assert.ErrorIs(t, err, accounts.ErrEmailTaken)

	has, err := svc.HasUsers()
	require.NoError(t, err)
	assert.True(t, has)
}

func TestService_Authenticate(t *testing.T) {
	svc, _ := setupService(t)
	created, err := svc.Register("Ann", "ann@example.com", "password123", "Teacher")
	require.NoError(t, err)

	user, err := svc.Authenticate("ANN@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = svc.Authenticate("ann@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate("nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_UserExists(t *testing.T) {
	svc, db := setupService(t)
	user, err := svc.Register("Ann", "ann@example.com", "password123", "")
	require.NoError(t, err)

	for _, tt := range []struct {
		id   uint
		want bool
	}{
		{user.ID, true},
		{0, false},
		{user.ID + 100, false},
	} {
		exists, err := svc.UserExists(tt.id)
		require.NoError(t, err)
		assert.Equal(t, tt.want, exists, "user %d", tt.id)
	}

	require.NoError(t, db.Close())
	exists, err := svc.UserExists(user.ID)
	assert.Error(t, err)
	assert.False(t, exists)
}
