package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storesync/backend/migrations"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add store orders", "add_store_orders"},
		{"Add-Store-Orders", "add_store_orders"},
		{"ADD__STORE__ORDERS", "add_store_orders"},
		{"metrics 2", "metrics_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add store orders", "Orders keyed by external id")
	require.NoError(t, err)
	assert.Equal(t, "000001", first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_store_orders.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_store_orders.down.sql"), first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "Orders keyed by external id")
	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")

	second, err := CreateMigration(dir, "add metrics index", "")
	require.NoError(t, err)
	assert.Equal(t, "000002", second.Version)
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nested, "init", "")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestCreateMigration_RejectsNonNumericVersions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "init.up.sql"), []byte("--"), 0o644))

	_, err := CreateMigration(dir, "next", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_add_orders.up.sql":   {Data: []byte("--")},
		"000002_add_orders.down.sql": {Data: []byte("--")},
		"000001_init.up.sql":         {Data: []byte("--")},
		"000001_init.down.sql":       {Data: []byte("--")},
		"README.md":                  {Data: []byte("docs")},
		"subdir.up.sql/placeholder":  {Data: []byte("x")},
	}

	names, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init", "000002_add_orders"}, names)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	names, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "absent")))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestMissingDownMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000001_init.up.sql":   {Data: []byte("--")},
		"000001_init.down.sql": {Data: []byte("--")},
		"000002_orphan.up.sql": {Data: []byte("--")},
	}

	missing, err := MissingDownMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"000002_orphan"}, missing)
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"000001_create_profiles",
		"000002_create_store_integrations",
		"000003_create_store_orders",
		"000004_create_store_metrics",
	}, names)

	missing, err := MissingDownMigrations(migrations.FS)
	require.NoError(t, err)
	assert.Empty(t, missing)

	src, err := iofs.New(migrations.FS, ".")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.EqualValues(t, 1, first)

	version := first
	for range 3 {
		version, err = src.Next(version)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 4, version)
}
