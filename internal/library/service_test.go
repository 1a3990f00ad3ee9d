package library

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/database/accounts"
	auditrepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
)

type testEnv struct {
	svc   *Service
	db    *gorm.DB
	clock time.Time
	ctx   context.Context
}

func (e *testEnv) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

func setupService(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Path:     filepath.Join(t.TempDir(), "library.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:    db.DB,
		clock: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		ctx:   context.Background(),
	}
	authService := auth.NewService(accounts.NewRepository(db.DB), config.Auth{BcryptCost: 4, DefaultRole: "Student"})
	env.svc = NewService(db.DB, authService, Options{
		Loans: config.Loans{PeriodDays: 21, ReminderWindowDays: 30, ReminderCriticalDays: 5},
		Stats: config.Stats{TopBooks: 10},
		Now:   func() time.Time { return env.clock },
	})
	return env
}

// userWithRole creates an account with the given seeded role and returns its identity.
func (e *testEnv) userWithRole(t *testing.T, email, role string) *SessionIdentity {
	t.Helper()
	user, err := e.svc.auth.Register(email, email, "password123", role)
	require.NoError(t, err)
	return &SessionIdentity{UserID: user.ID}
}

func (e *testEnv) addBook(t *testing.T, admin *SessionIdentity, name string, quantity int) *BookView {
	t.Helper()
	book, err := e.svc.AddBook(e.ctx, admin, BookFields{Name: name, Author: "Author"}, quantity)
	require.NoError(t, err)
	return book
}

func (e *testEnv) available(t *testing.T, bookID uint) int {
	t.Helper()
	n, err := e.svc.AvailableCount(e.ctx, bookID)
	require.NoError(t, err)
	return n
}

func assertKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperr.KindOf(err), "error: %v", err)
}

func TestAuthorize(t *testing.T) {
	env := setupService(t)
	admin := env.userWithRole(t, "admin@x.com", "Administrator")
	student := env.userWithRole(t, "student@x.com", "Student")

	assertKind(t, env.svc.authorize(nil, entities.RightManageBooks), apperr.Unauthorized)
	assertKind(t, env.svc.authorize(&SessionIdentity{UserID: 999}, entities.RightManageBooks), apperr.Unauthorized)
	assertKind(t, env.svc.authorize(student, entities.RightManageBooks), apperr.Forbidden)
	assert.NoError(t, env.svc.authorize(admin, entities.RightManageBooks))
}

func TestRightRevocationTakesEffectImmediately(t *testing.T) {
	env := setupService(t)
	admin := env.userWithRole(t, "admin@x.com", "Administrator")
	teacher := env.userWithRole(t, "teacher@x.com", "Teacher")

	_, err := env.svc.Statistics(env.ctx, teacher)
	require.NoError(t, err)

	roles, err := env.svc.ListRoles(env.ctx, admin)
	require.NoError(t, err)
	var teacherRole RoleView
	for _, r := range roles {
		if r.Name == "Teacher" {
			teacherRole = r
		}
	}
	require.Contains(t, teacherRole.Rights, entities.RightViewStatistics)

	require.NoError(t, env.svc.RevokeRight(env.ctx, admin, teacherRole.ID, entities.RightViewStatistics))
	_, err = env.svc.Statistics(env.ctx, teacher)
	assertKind(t, err, apperr.Forbidden)

	require.NoError(t, env.svc.GrantRight(env.ctx, admin, teacherRole.ID, entities.RightViewStatistics))
	_, err = env.svc.Statistics(env.ctx, teacher)
	assert.NoError(t, err)

	// Teachers cannot manage roles themselves.
	err = env.svc.GrantRight(env.ctx, teacher, teacherRole.ID, entities.RightManageUsers)
	assertKind(t, err, apperr.Forbidden)
}

func TestRegisterAndAuthenticateScenario(t *testing.T) {
	env := setupService(t)

	summary, err := env.svc.Register(env.ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "Student", summary.Role)

	_, err = env.svc.Register(env.ctx, RegisterInput{Name: "B", Email: "a@x.com", Password: "password456"})
	assertKind(t, err, apperr.Conflict)

	identity, err := env.svc.Authenticate(env.ctx, "a@x.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, summary.ID, identity.UserID)

	_, err = env.svc.Authenticate(env.ctx, "a@x.com", "wrong-password")
	assertKind(t, err, apperr.Unauthorized)

	_, err = env.svc.Register(env.ctx, RegisterInput{Name: "C", Email: "c@x.com"})
	assertKind(t, err, apperr.Validation)
}

func TestCurrentUser(t *testing.T) {
	env := setupService(t)
	teacher := env.userWithRole(t, "teacher@x.com", "Teacher")
	student := env.userWithRole(t, "student@x.com", "Student")

	me, err := env.svc.CurrentUser(env.ctx, teacher)
	require.NoError(t, err)
	assert.Equal(t, "teacher@x.com", me.Email)
	assert.Equal(t, "Teacher", me.Role)
	assert.Equal(t, []string{"manage_books", "manage_loans", "view_statistics"}, me.Rights)

	me, err = env.svc.CurrentUser(env.ctx, student)
	require.NoError(t, err)
	assert.NotNil(t, me.Rights)
	assert.Empty(t, me.Rights)

	_, err = env.svc.CurrentUser(env.ctx, nil)
	assertKind(t, err, apperr.Unauthorized)
}

func TestAuditPageSize(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, 25},
		{-5, 25},
		{10, 10},
		{200, 200},
		{500, 200},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AuditPageSize(tt.limit), "limit %d", tt.limit)
	}

	env := setupService(t)
	admin := env.userWithRole(t, "admin@x.com", "Administrator")
	page, err := env.svc.AuditEvents(env.ctx, admin, auditrepo.Filter{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 200, page.Limit)
}

func TestAuthorize_StorageFailureIsInternal(t *testing.T) {
	env := setupService(t)
	student := env.userWithRole(t, "student@x.com", "Student")

	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = env.svc.authorize(student, entities.RightManageBooks)
	assertKind(t, err, apperr.Internal)

	_, err = env.svc.Borrow(env.ctx, student, 1)
	assertKind(t, err, apperr.Internal)
}

func TestLogout_IsAudited(t *testing.T) {
	env := setupService(t)
	auditService := audit.NewService(auditrepo.NewRepository(env.db))
	env.svc.audit = auditService
	student := env.userWithRole(t, "student@x.com", "Student")

	ended := false
	require.NoError(t, env.svc.Logout(env.ctx, student, func() error {
		ended = true
		return nil
	}))
	assert.True(t, ended)

	storeErr := errors.New("session store unavailable")
	assert.ErrorIs(t, env.svc.Logout(env.ctx, student, func() error { return storeErr }), storeErr)
	require.NoError(t, env.svc.Logout(env.ctx, nil, nil))
	auditService.Wait()

	events, total, err := auditService.ListEvents(auditrepo.Filter{EventType: entities.AuditEventAuth})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	for _, e := range events {
		assert.Equal(t, "logout", e.Action)
		assert.Equal(t, student.UserID, e.UserID)
	}
	statuses := []entities.AuditStatus{events[0].Status, events[1].Status}
	assert.ElementsMatch(t, []entities.AuditStatus{entities.AuditStatusSuccess, entities.AuditStatusFailed}, statuses)
}

func TestAuditEvents(t *testing.T) {
	env := setupService(t)
	auditService := audit.NewService(auditrepo.NewRepository(env.db))
	env.svc.audit = auditService

	admin := env.userWithRole(t, "admin@x.com", "Administrator")
	student := env.userWithRole(t, "student@x.com", "Student")
	book := env.addBook(t, admin, "X", 1)
	_, err := env.svc.Borrow(env.ctx, student, book.ID)
	require.NoError(t, err)
	_, err = env.svc.Borrow(env.ctx, student, book.ID)
	require.Error(t, err)
	auditService.Wait()

	_, err = env.svc.AuditEvents(env.ctx, student, auditrepo.Filter{})
	assertKind(t, err, apperr.Forbidden)

	page, err := env.svc.AuditEvents(env.ctx, admin, auditrepo.Filter{EventType: entities.AuditEventBorrow})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 25, page.Limit)

	statuses := []entities.AuditStatus{page.Events[0].Status, page.Events[1].Status}
	assert.ElementsMatch(t, []entities.AuditStatus{entities.AuditStatusSuccess, entities.AuditStatusFailed}, statuses)
}
