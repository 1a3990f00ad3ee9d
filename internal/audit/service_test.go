package audit

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	auditRepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.AuditEvent{}))

	return NewService(auditRepo.NewRepository(db)), db
}

func TestService_Record(t *testing.T) {
	svc, db := setupTestService(t)

	ctx := WithRequestMeta(context.Background(), RequestMeta{
		RequestID: "req-1",
		IPAddress: "10.0.0.1",
		UserAgent: strings.Repeat("a", 600),
	})

	svc.Record(ctx, 3, entities.AuditEventBorrow, "book_borrow", "book", 9, "Borrowed Dune", nil)
	svc.Record(ctx, 3, entities.AuditEventReturn, "book_return", "borrow", 0, "", errors.New("already returned"))
	svc.Wait()

	var events []entities.AuditEvent
	require.NoError(t, db.Order("id").Find(&events).Error)
	require.Len(t, events, 2)

	assert.Equal(t, "req-1", events[0].RequestID)
	assert.Equal(t, "10.0.0.1", events[0].IPAddress)
	assert.Len(t, events[0].UserAgent, 500)
	require.NotNil(t, events[0].EntityID)
	assert.Equal(t, uint(9), *events[0].EntityID)
	assert.Equal(t, entities.AuditStatusSuccess, events[0].Status)

	assert.Nil(t, events[1].EntityID)
	assert.Equal(t, entities.AuditStatusFailed, events[1].Status)
	assert.Equal(t, "already returned", events[1].ErrorMsg)
}

func TestService_NilIsNoop(t *testing.T) {
	var svc *Service
	assert.NotPanics(t, func() {
		svc.Record(context.Background(), 1, entities.AuditEventAuth, "login", "user", 1, "", nil)
	})
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, db := setupTestService(t)

	require.NoError(t, db.Create(&entities.AuditEvent{Action: "old", CreatedAt: time.Now().Add(-48 * time.Hour)}).Error)
	require.NoError(t, db.Create(&entities.AuditEvent{Action: "new"}).Error)

	deleted, err := svc.DeleteOldEvents(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	events, total, err := svc.ListEvents(auditRepo.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "new", events[0].Action)
}

func TestService_ExportJSON(t *testing.T) {
	svc, _ := setupTestService(t)
	svc.LogAuth(context.Background(), 1, "login", nil)
	svc.LogAuth(context.Background(), 2, "login", errors.New("bad password"))
	svc.Wait()

	dir := filepath.Join(t.TempDir(), "exports")
	name, err := svc.ExportJSON(dir, auditRepo.Filter{UserID: 2})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".json"))

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)

	var events []entities.AuditEvent
	require.NoError(t, json.Unmarshal(data, &events))
	require.Len(t, events, 1)
	assert.Equal(t, uint(2), events[0].UserID)
	assert.Equal(t, entities.AuditStatusFailed, events[0].Status)
}
