package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8080), cfg.HTTP.Port)
	assert.Equal(t, DatabaseDriverSQLite, cfg.Database.Driver)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, time.Hour, cfg.Auth.SessionIdleTimeout)
	assert.Equal(t, SessionStoreDatabase, cfg.Auth.SessionStore)
	assert.Equal(t, "Student", cfg.Auth.DefaultRole)
	assert.Equal(t, DefaultLoanPeriodDays, cfg.Loans.PeriodDays)
	assert.Equal(t, DefaultTopBooks, cfg.Stats.TopBooks)
	assert.Equal(t, "0 2 * * *", cfg.DelaySweep.Schedule)
	assert.Equal(t, 365, cfg.Audit.RetentionDays)
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("DATABASE_DSN", "u:p@tcp(db:3306)/library")
	t.Setenv("AUTH_SESSION_IDLE_TIMEOUT", "30m")
	t.Setenv("LOAN_PERIOD_DAYS", "14")
	t.Setenv("TASKS_ENABLED", "false")

	cfg := NewConfig()

	assert.Equal(t, DatabaseDriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "u:p@tcp(db:3306)/library", cfg.Database.DSN)
	assert.Equal(t, 30*time.Minute, cfg.Auth.SessionIdleTimeout)
	assert.Equal(t, 14, cfg.Loans.PeriodDays)
	assert.False(t, cfg.Tasks.Enabled)
}
