package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/entities"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(config.Database{
		Path:     filepath.Join(t.TempDir(), "library.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func roleRights(t *testing.T, db *Database, name string) []string {
	t.Helper()
	var role entities.Role
	require.NoError(t, db.DB.Preload("Rights").Where("name = ?", name).First(&role).Error)
	names := make([]string, 0, len(role.Rights))
	for _, r := range role.Rights {
		names = append(names, r.Name)
	}
	return names
}

func TestNewDatabase_SeedsBuiltInRoles(t *testing.T) {
	db := setupTestDB(t)

	assert.Equal(t, config.DatabaseDriverSQLite, db.Driver)
	assert.ElementsMatch(t, []string{
		entities.RightManageBooks, entities.RightDeleteBooks, entities.RightManageUsers,
		entities.RightManageLoans, entities.RightViewStatistics,
	}, roleRights(t, db, "Administrator"))
	assert.ElementsMatch(t, []string{
		entities.RightManageBooks, entities.RightManageLoans, entities.RightViewStatistics,
	}, roleRights(t, db, "Teacher"))
	assert.Empty(t, roleRights(t, db, "Student"))
}

func TestSeed_KeepsRevokedRights(t *testing.T) {
	db := setupTestDB(t)

	var teacher entities.Role
	require.NoError(t, db.DB.Where("name = ?", "Teacher").First(&teacher).Error)
	var stats entities.Right
	require.NoError(t, db.DB.Where("name = ?", entities.RightViewStatistics).First(&stats).Error)
	require.NoError(t, db.DB.Model(&teacher).Association("Rights").Delete(&stats))

	doc, err := ParseSeed(defaultSeed)
	require.NoError(t, err)
	require.NoError(t, db.Seed(doc))

	assert.NotContains(t, roleRights(t, db, "Teacher"), entities.RightViewStatistics)

	var count int64
	require.NoError(t, db.DB.Model(&entities.Role{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestLoadSeedFile(t *testing.T) {
	db := setupTestDB(t)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rights: [manage_books, manage_loans]
roles:
  - name: Librarian
    rights: [manage_books, manage_loans]
`), 0o644))

	doc, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.NoError(t, db.Seed(doc))
	assert.ElementsMatch(t, []string{entities.RightManageBooks, entities.RightManageLoans}, roleRights(t, db, "Librarian"))

	_, err = LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseSeed_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown right", "rights: [manage_books]\nroles:\n  - name: X\n    rights: [fly]\n"},
		{"role without name", "rights: []\nroles:\n  - rights: []\n"},
		{"not yaml", "rights: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeed([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestOpenDialector(t *testing.T) {
	_, err := openDialector(config.Database{Driver: config.DatabaseDriverMySQL})
	assert.ErrorContains(t, err, "DATABASE_DSN")

	_, err = openDialector(config.Database{Driver: "postgres"})
	assert.ErrorContains(t, err, "unsupported")

	d, err := openDialector(config.Database{Driver: config.DatabaseDriverMySQL, DSN: "u:p@tcp(127.0.0.1:3306)/library?parseTime=true"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "file:data.db?_busy_timeout=5000&_foreign_keys=on&_txlock=immediate&_journal_mode=WAL", sqliteDSN("data.db"))
	assert.Equal(t, "file::memory:?cache=shared", sqliteDSN("file::memory:?cache=shared"))
	assert.Contains(t, sqliteDSN(""), config.DefaultDatabasePath)
}
