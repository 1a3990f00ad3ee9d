package entrypoint

import (
	"context"
	"fmt"
	"log"

	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/database/accounts"
	auditrepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/library"
	"github.com/mrlokans/library/internal/tasks"
)

// App holds the services shared by the server and the CLI commands.
type App struct {
	Config  *config.Config
	DB      *database.Database
	Auth    *auth.Service
	Audit   *audit.Service
	Library *library.Service
	Tasks   *tasks.Client
}

// NewApp opens the database, applies the optional seed file and wires the
// services. The task queue is only opened when withTasks is set.
func NewApp(cfg *config.Config, withTasks bool) (*App, error) {
	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Seed.File != "" {
		doc, err := database.LoadSeedFile(cfg.Seed.File)
		if err != nil {
			db.Close()
			return nil, err
		}
		if err := db.Seed(doc); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply seed file %s: %w", cfg.Seed.File, err)
		}
		log.Printf("Applied seed file %s", cfg.Seed.File)
	}

	app := &App{Config: cfg, DB: db}
	app.Auth = auth.NewService(accounts.NewRepository(db.DB), cfg.Auth)
	app.Audit = audit.NewService(auditrepo.NewRepository(db.DB))
	app.Library = library.NewService(db.DB, app.Auth, library.Options{
		Loans: cfg.Loans,
		Stats: cfg.Stats,
		Audit: app.Audit,
	})

	if withTasks && cfg.Tasks.Enabled {
		taskClient, err := tasks.NewClient(tasks.DatabasePath(cfg.Database.Path), cfg.Tasks)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		taskClient.Register(
			tasks.NewRecordDelaysQueue(app.Library),
			tasks.NewCleanupAuditEventsQueue(app.Audit),
		)
		app.Tasks = taskClient
		app.Library.SetDelayQueue(taskClient)
	}

	return app, nil
}

// Close flushes pending audit writes and releases the databases. Stop the
// task queue before calling it.
func (a *App) Close() {
	a.Audit.Wait()
	if a.Tasks != nil {
		if err := a.Tasks.Close(); err != nil {
			log.Printf("Error closing task client: %v", err)
		}
	}
	if err := a.DB.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}

// sessionStore picks the session backend for the configured store and
// database driver.
func (a *App) sessionStore(ctx context.Context) (sessionBackend, error) {
	cfg := a.Config
	if cfg.Auth.SessionStore == config.SessionStoreRedis {
		store, err := auth.NewRedisStore(ctx, cfg.Auth.RedisAddr, cfg.Auth.RedisPassword, cfg.Auth.RedisDB)
		if err != nil {
			return sessionBackend{}, fmt.Errorf("failed to connect to redis session store: %w", err)
		}
		log.Printf("Session store: redis (%s)", cfg.Auth.RedisAddr)
		return sessionBackend{store: store, close: store.Close}, nil
	}

	if a.DB.Driver == config.DatabaseDriverSQLite {
		sqlDB, err := a.DB.DB.DB()
		if err != nil {
			return sessionBackend{}, fmt.Errorf("failed to get SQL DB for sessions: %w", err)
		}
		store, err := auth.NewSQLiteStore(sqlDB)
		if err != nil {
			return sessionBackend{}, err
		}
		log.Printf("Session store: database")
		return sessionBackend{store: store}, nil
	}

	log.Printf("WARNING: no persistent session store for driver %s, sessions are kept in memory. Set AUTH_SESSION_STORE=redis to share them.", a.DB.Driver)
	return sessionBackend{store: auth.NewMemoryStore()}, nil
}
