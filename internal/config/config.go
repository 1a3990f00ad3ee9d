package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Loans
		Stats
		Tasks
		DelaySweep
		Audit
		Seed
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Driver   string // "sqlite" or "mysql"
		Path     string // SQLite file path
		DSN      string // MySQL DSN, e.g. "user:pass@tcp(127.0.0.1:3306)/library?parseTime=true"
		LogLevel string // "silent", "error", "warn" or "info"
	}
	Auth struct {
		SessionSecret      string
		SessionLifetime    time.Duration
		SessionIdleTimeout time.Duration
		SessionStore       string // "database" or "redis"
		RedisAddr          string
		RedisPassword      string
		RedisDB            int
		TokenSecret        string // HMAC key for API bearer tokens
		TokenExpiry        time.Duration
		BcryptCost         int
		SecureCookies      bool // Set to false for local dev without HTTPS
		CSRFEnabled        bool
		DefaultRole        string // Role assigned to self-registered users

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Loans struct {
		PeriodDays           int
		ReminderWindowDays   int
		ReminderCriticalDays int
	}
	Stats struct {
		TopBooks int
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	DelaySweep struct {
		Enabled  bool
		Schedule string // Cron format: "0 2 * * *" = daily at 02:00
	}
	Audit struct {
		RetentionDays   int    // 0 keeps events forever
		CleanupSchedule string // Cron format
		ExportDir       string
	}
	Seed struct {
		File string // Optional YAML file overriding the built-in roles and rights
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("database_driver", DatabaseDriverSQLite)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_log_level", "warn")

	// Auth defaults
	v.SetDefault("auth_session_secret", "") // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")
	v.SetDefault("auth_session_idle_timeout", "1h")
	v.SetDefault("auth_session_store", SessionStoreDatabase)
	v.SetDefault("auth_redis_addr", "localhost:6379")
	v.SetDefault("auth_redis_password", "")
	v.SetDefault("auth_redis_db", 0)
	v.SetDefault("auth_token_secret", "") // Bearer tokens disabled if empty
	v.SetDefault("auth_token_expiry", "24h")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_csrf_enabled", true)
	v.SetDefault("auth_default_role", "Student")
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_lockout_duration", "30m")

	v.SetDefault("loan_period_days", DefaultLoanPeriodDays)
	v.SetDefault("reminder_window_days", 30)
	v.SetDefault("reminder_critical_days", 5)
	v.SetDefault("stats_top_books", DefaultTopBooks)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	v.SetDefault("delay_sweep_enabled", true)
	v.SetDefault("delay_sweep_schedule", "0 2 * * *")

	v.SetDefault("audit_retention_days", 365)
	v.SetDefault("audit_cleanup_schedule", "30 3 * * 0")
	v.SetDefault("audit_export_dir", "./exports")

	v.SetDefault("seed_file", "")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver:   v.GetString("DATABASE_DRIVER"),
			Path:     v.GetString("DATABASE_PATH"),
			DSN:      v.GetString("DATABASE_DSN"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Auth: Auth{
			SessionSecret:      v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:    v.GetDuration("AUTH_SESSION_LIFETIME"),
			SessionIdleTimeout: v.GetDuration("AUTH_SESSION_IDLE_TIMEOUT"),
			SessionStore:       v.GetString("AUTH_SESSION_STORE"),
			RedisAddr:          v.GetString("AUTH_REDIS_ADDR"),
			RedisPassword:      v.GetString("AUTH_REDIS_PASSWORD"),
			RedisDB:            v.GetInt("AUTH_REDIS_DB"),
			TokenSecret:        v.GetString("AUTH_TOKEN_SECRET"),
			TokenExpiry:        v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:         v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:      v.GetBool("AUTH_SECURE_COOKIES"),
			CSRFEnabled:        v.GetBool("AUTH_CSRF_ENABLED"),
			DefaultRole:        v.GetString("AUTH_DEFAULT_ROLE"),
			MaxLoginAttempts:   v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:    v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:    v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Loans: Loans{
			PeriodDays:           v.GetInt("LOAN_PERIOD_DAYS"),
			ReminderWindowDays:   v.GetInt("REMINDER_WINDOW_DAYS"),
			ReminderCriticalDays: v.GetInt("REMINDER_CRITICAL_DAYS"),
		},
		Stats: Stats{
			TopBooks: v.GetInt("STATS_TOP_BOOKS"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		DelaySweep: DelaySweep{
			Enabled:  v.GetBool("DELAY_SWEEP_ENABLED"),
			Schedule: v.GetString("DELAY_SWEEP_SCHEDULE"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
			ExportDir:       v.GetString("AUDIT_EXPORT_DIR"),
		},
		Seed: Seed{
			File: v.GetString("SEED_FILE"),
		},
	}
}
