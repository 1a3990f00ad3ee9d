package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/library/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.AuditEvent{}))
	return db
}

func TestRepository_LogEvent(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	event := &entities.AuditEvent{
		UserID:    1,
		EventType: entities.AuditEventBorrow,
		Action:    "book_borrow",
		Status:    entities.AuditStatusSuccess,
	}
	require.NoError(t, repo.LogEvent(event))

	assert.NotZero(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestRepository_ListEvents(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	base := time.Now().Add(-time.Hour)

	for i, e := range []struct {
		userID uint
		kind   entities.AuditEventType
	}{
		{1, entities.AuditEventBorrow},
		{1, entities.AuditEventReturn},
		{2, entities.AuditEventBorrow},
		{2, entities.AuditEventAuth},
	} {
		require.NoError(t, repo.LogEvent(&entities.AuditEvent{
			UserID:    e.userID,
			EventType: e.kind,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	t.Run("all events newest first", func(t *testing.T) {
		events, total, err := repo.ListEvents(Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, events, 4)
		assert.Equal(t, entities.AuditEventAuth, events[0].EventType)
	})

	t.Run("filtered by user and type", func(t *testing.T) {
		events, total, err := repo.ListEvents(Filter{UserID: 2, EventType: entities.AuditEventBorrow})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, events, 1)
		assert.Equal(t, uint(2), events[0].UserID)
	})

	t.Run("paginated", func(t *testing.T) {
		events, total, err := repo.ListEvents(Filter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, events, 2)
	})
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	require.NoError(t, repo.LogEvent(&entities.AuditEvent{UserID: 1, CreatedAt: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{UserID: 1}))

	deleted, err := repo.DeleteOldEvents(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, total, err := repo.ListEvents(Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
