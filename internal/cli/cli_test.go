package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_LOG_LEVEL", "silent")
	t.Setenv("AUTH_BCRYPT_COST", "4")

	cmd := NewRootCommand(BuildInfo{Version: "1.2.3", Commit: "abcdef0"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "library 1.2.3 (commit: abcdef0)\n", out)
}

func TestCreateAdminCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "library.db")

	out, err := runCommand(t, "", "create-admin", "--db", db, "--email", "Admin@Example.com", "--password", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "Created administrator admin@example.com")

	_, err = runCommand(t, "", "create-admin", "--db", db, "--email", "admin@example.com", "--password", "other")
	assert.Error(t, err)
}

func TestCreateAdminCommand_PromptsForPassword(t *testing.T) {
	db := filepath.Join(t.TempDir(), "library.db")

	out, err := runCommand(t, "secret123\n", "create-admin", "--db", db, "--email", "admin@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Password: ")
	assert.Contains(t, out, "Created administrator")
}

func TestCreateAdminCommand_RequiresEmail(t *testing.T) {
	_, err := runCommand(t, "", "create-admin", "--db", filepath.Join(t.TempDir(), "library.db"))
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitConfig, exitErr.Code)
}

func TestSeedCommand(t *testing.T) {
	dir := t.TempDir()
	seedFile := filepath.Join(dir, "roles.yaml")
	require.NoError(t, os.WriteFile(seedFile, []byte(`
rights:
  - manage_books
  - manage_loans
roles:
  - name: Librarian
    rights: [manage_books, manage_loans]
`), 0o644))

	out, err := runCommand(t, "", "seed", "--db", filepath.Join(dir, "library.db"), seedFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Librarian")
	assert.Contains(t, out, "manage_books, manage_loans")
	assert.Contains(t, out, "Administrator")
}

func TestSeedCommand_UnknownRight(t *testing.T) {
	dir := t.TempDir()
	seedFile := filepath.Join(dir, "roles.yaml")
	require.NoError(t, os.WriteFile(seedFile, []byte("rights: []\nroles:\n  - name: X\n    rights: [fly]\n"), 0o644))

	_, err := runCommand(t, "", "seed", "--db", filepath.Join(dir, "library.db"), seedFile)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitDBConnect, exitErr.Code)
}

func TestSweepDelaysCommand(t *testing.T) {
	out, err := runCommand(t, "", "sweep-delays", "--db", filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	assert.Equal(t, "Recorded 0 delay(s)\n", out)
}

func TestExportAuditCommand(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "library.db")
	exportDir := filepath.Join(dir, "exports")

	_, err := runCommand(t, "", "create-admin", "--db", db, "--email", "admin@example.com", "--password", "secret123")
	require.NoError(t, err)

	out, err := runCommand(t, "", "export-audit", "--db", db, "--dir", exportDir, "--type", "auth")
	require.NoError(t, err)

	path := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(path, exportDir))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "create_admin")
}
