package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateFS(Embedded, EmbeddedDir))

	entries, err := fs.ReadDir(Embedded, EmbeddedDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestEmbeddedMigrationsCoverCollections(t *testing.T) {
	var all strings.Builder
	entries, err := fs.ReadDir(Embedded, EmbeddedDir)
	require.NoError(t, err)
	for _, e := range entries {
		b, err := fs.ReadFile(Embedded, EmbeddedDir+"/"+e.Name())
		require.NoError(t, err)
		all.Write(b)
	}
	for _, table := range []string{"products", "orders", "order_items", "profiles", "notifications", "notification_reads", "order_issues", "refund_requests", "outbox_events"} {
		assert.Contains(t, all.String(), "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}

func TestValidateFSRejectsBadNames(t *testing.T) {
	fsys := fstest.MapFS{
		"m/create_things.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	}
	require.Error(t, ValidateFS(fsys, "m"))
}

func TestValidateFSRejectsDuplicateVersions(t *testing.T) {
	body := []byte("-- +goose Up\n-- +goose Down\n")
	fsys := fstest.MapFS{
		"m/20260101000000_a.sql": {Data: body},
		"m/20260101000000_b.sql": {Data: body},
	}
	require.Error(t, ValidateFS(fsys, "m"))
}

func TestValidateFSRequiresDownSection(t *testing.T) {
	fsys := fstest.MapFS{
		"m/20260101000000_a.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")},
	}
	require.Error(t, ValidateFS(fsys, "m"))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Product Tags!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_product_tags.sql"))

	_, err = os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, ValidateDir(filepath.Dir(path)))
}
