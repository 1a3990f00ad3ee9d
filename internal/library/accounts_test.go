package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/database/accounts"
)

func roleID(t *testing.T, env *testEnv, admin *SessionIdentity, name string) uint {
	t.Helper()
	roles, err := env.svc.ListRoles(env.ctx, admin)
	require.NoError(t, err)
	for _, r := range roles {
		if r.Name == name {
			return r.ID
		}
	}
	t.Fatalf("role %s not seeded", name)
	return 0
}

func TestUsers_CRUD(t *testing.T) {
	env := setupService(t)
	admin := env.userWithRole(t, "admin@x.com", "Administrator")

	created, err := env.svc.CreateUser(env.ctx, admin, UserInput{
		Name:     "Tess",
		Email:    "tess@x.com",
		Password: "password123",
		RoleID:   roleID(t, env, admin, "Teacher"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Teacher", created.Role)

	users, err := env.svc.ListUsers(env.ctx, admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	updated, err := env.svc.UpdateUser(env.ctx, admin, created.ID, UserInput{
		Email:  "Tess.New@x.com",
		RoleID: roleID(t, env, admin, "Student"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Tess", updated.Name)
	assert.Equal(t, "tess.new@x.com", updated.Email)
	assert.Equal(t, "Student", updated.Role)

	// Password unchanged when not supplied, replaced when it is.
	_, err = env.svc.Authenticate(env.ctx, "tess.new@x.com", "password123")
	require.NoError(t, err)
	_, err = env.svc.UpdateUser(env.ctx, admin, created.ID, UserInput{Password: "new-password"})
	require.NoError(t, err)
	_, err = env.svc.Authenticate(env.ctx, "tess.new@x.com", "password123")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = env.svc.Authenticate(env.ctx, "tess.new@x.com", "new-password")
	require.NoError(t, err)

	got, err := env.svc.GetUser(env.ctx, admin, created.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)

	require.NoError(t, env.svc.DeleteUser(env.ctx, admin, created.ID))
	_, err = env.svc.GetUser(env.ctx, admin, created.ID)
	assert.ErrorIs(t, err, accounts.ErrUserNotFound)
}

func TestUsers_Conflicts(t *testing.T) {
	env := setupService(t)
	admin := env.userWithRole(t, "admin@x.com", "Administrator")
	student := env.userWithRole(t, "student@x.com", "Student")

	_, err := env.svc.UpdateUser(env.ctx, admin, student.UserID, UserInput{Email: "admin@x.com"})
	assert.ErrorIs(t, err, accounts.ErrEmailTaken)

	_, err = env.svc.UpdateUser(env.ctx, admin, student.UserID, UserInput{RoleID: 999})
	assert.ErrorIs(t, err, accounts.ErrRoleNotFound)

	assert.ErrorIs(t, env.svc.DeleteUser(env.ctx, admin, admin.UserID), ErrCannotDeleteSelf)

	book := env.addBook(t, admin, "X", 1)
	_, err = env.svc.Borrow(env.ctx, student, book.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, env.svc.DeleteUser(env.ctx, admin, student.UserID), accounts.ErrUserHasActiveLoans)
}

func TestUsers_Permissions(t *testing.T) {
	env := setupService(t)
	teacher := env.userWithRole(t, "teacher@x.com", "Teacher")

	_, err := env.svc.ListUsers(env.ctx, teacher)
	assertKind(t, err, apperr.Forbidden)
	_, err = env.svc.CreateUser(env.ctx, teacher, UserInput{Name: "X", Email: "x@x.com", Password: "password123"})
	assertKind(t, err, apperr.Forbidden)
	_, err = env.svc.ListRights(env.ctx, teacher)
	assertKind(t, err, apperr.Forbidden)
	_, err = env.svc.ListUsers(env.ctx, nil)
	assertKind(t, err, apperr.Unauthorized)
}

func TestRoles(t *testing.T) {
	env := setupService(t)
	admin := env.userWithRole(t, "admin@x.com", "Administrator")

	rights, err := env.svc.ListRights(env.ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, []string{"delete_books", "manage_books", "manage_loans", "manage_users", "view_statistics"}, rights)

	studentID := roleID(t, env, admin, "Student")
	role, err := env.svc.GetRole(env.ctx, admin, studentID)
	require.NoError(t, err)
	assert.Empty(t, role.Rights)

	require.NoError(t, env.svc.GrantRight(env.ctx, admin, studentID, "view_statistics"))
	require.NoError(t, env.svc.GrantRight(env.ctx, admin, studentID, "view_statistics"))
	role, err = env.svc.GetRole(env.ctx, admin, studentID)
	require.NoError(t, err)
	assert.Equal(t, []string{"view_statistics"}, role.Rights)

	assert.ErrorIs(t, env.svc.GrantRight(env.ctx, admin, studentID, "fly"), accounts.ErrRightNotFound)
	_, err = env.svc.GetRole(env.ctx, admin, 999)
	assert.ErrorIs(t, err, accounts.ErrRoleNotFound)
}
