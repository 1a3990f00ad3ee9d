package database

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"sigs.k8s.io/yaml"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/entities"
)

//go:embed seed.yaml
var defaultSeed []byte

// SeedDocument describes the reference data the application needs: the set
// of rights and the roles that bundle them.
type SeedDocument struct {
	Rights []string   `json:"rights"`
	Roles  []SeedRole `json:"roles"`
}

type SeedRole struct {
	Name   string   `json:"name"`
	Rights []string `json:"rights"`
}

type Database struct {
	DB     *gorm.DB
	Driver string
}

// NewDatabase connects using the configured driver, migrates the schema and
// seeds the built-in roles and rights.
func NewDatabase(cfg config.Database) (*Database, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(parseLogLevel(cfg.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	database := &Database{DB: db, Driver: driverName(cfg)}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	doc, err := ParseSeed(defaultSeed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse built-in seed: %w", err)
	}
	if err := database.Seed(doc); err != nil {
		return nil, fmt.Errorf("failed to seed roles: %w", err)
	}

	log.Printf("Database initialized successfully (%s)", database.Driver)

	return database, nil
}

func driverName(cfg config.Database) string {
	if cfg.Driver == "" {
		return config.DatabaseDriverSQLite
	}
	return cfg.Driver
}

func openDialector(cfg config.Database) (gorm.Dialector, error) {
	switch driverName(cfg) {
	case config.DatabaseDriverSQLite:
		return sqlite.Open(sqliteDSN(cfg.Path)), nil
	case config.DatabaseDriverMySQL:
		if cfg.DSN == "" {
			return nil, errors.New("DATABASE_DSN is required for the mysql driver")
		}
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// sqliteDSN enables foreign keys and makes every transaction take the write
// lock up front so that concurrent borrows queue instead of failing.
func sqliteDSN(path string) string {
	if path == "" {
		path = config.DefaultDatabasePath
	}
	if strings.Contains(path, "?") {
		return path
	}
	return "file:" + path + "?_busy_timeout=5000&_foreign_keys=on&_txlock=immediate&_journal_mode=WAL"
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func (d *Database) migrate() error {
	err := d.DB.AutoMigrate(
		&entities.Right{},
		&entities.Role{},
		&entities.User{},
		&entities.Book{},
		&entities.LibraryStock{},
		&entities.Borrowed{},
		&entities.Delay{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return err
	}

	// One active loan per (user, book). MySQL has no partial indexes, there
	// the check inside the borrow transaction is the only guard.
	if d.Driver == config.DatabaseDriverSQLite {
		return d.DB.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_borrowed_active_user_book
			ON borrowed(user_id, book_id) WHERE returned = 0`).Error
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ParseSeed decodes a YAML (or JSON) seed document.
func ParseSeed(data []byte) (*SeedDocument, error) {
	var doc SeedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(doc.Rights))
	for _, r := range doc.Rights {
		known[r] = true
	}
	for _, role := range doc.Roles {
		if role.Name == "" {
			return nil, errors.New("seed role without a name")
		}
		for _, r := range role.Rights {
			if !known[r] {
				return nil, fmt.Errorf("role %s references unknown right %q", role.Name, r)
			}
		}
	}
	return &doc, nil
}

// LoadSeedFile reads and parses a seed document from disk.
func LoadSeedFile(path string) (*SeedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// Seed creates missing rights and roles. Grants are only applied to roles
// created by this call, so rights revoked by an administrator stay revoked
// across restarts.
func (d *Database) Seed(doc *SeedDocument) error {
	return d.DB.Transaction(func(tx *gorm.DB) error {
		rights := make(map[string]entities.Right, len(doc.Rights))
		for _, name := range doc.Rights {
			right := entities.Right{Name: name}
			if err := tx.Where("name = ?", name).FirstOrCreate(&right).Error; err != nil {
				return fmt.Errorf("failed to create right %s: %w", name, err)
			}
			rights[name] = right
		}

		for _, seedRole := range doc.Roles {
			var existing entities.Role
			err := tx.Where("name = ?", seedRole.Name).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			role := entities.Role{Name: seedRole.Name}
			for _, r := range seedRole.Rights {
				role.Rights = append(role.Rights, rights[r])
			}
			if err := tx.Create(&role).Error; err != nil {
				return fmt.Errorf("failed to create role %s: %w", seedRole.Name, err)
			}
			log.Printf("Created role: %s", role.Name)
		}
		return nil
	})
}
