package migrate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/vps-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateFS(Migrations, embeddedDir))
}

func TestRunUpAndDownOnSQLite(t *testing.T) {
	ctx := context.Background()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Run(ctx, sqlDB, config.DriverSQLite, "up"))

	for _, table := range []string{"order_placements", "order_placement_steps"} {
		assert.True(t, conn.Migrator().HasTable(table), "missing table %s", table)
	}
	version, err := Version(ctx, sqlDB, config.DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(20260301120100), version)

	require.NoError(t, MigrateToVersion(ctx, sqlDB, config.DriverSQLite, "20260301120000"))
	assert.False(t, conn.Migrator().HasTable("order_placement_steps"))
	assert.True(t, conn.Migrator().HasTable("order_placements"))
}

func TestRunRejectsUnknownDriver(t *testing.T) {
	err := Run(context.Background(), nil, "mysql", "up")
	require.Error(t, err)

	_, err = gooseDialect("mysql")
	assert.Error(t, err)
}

func TestCreateAndValidateDir(t *testing.T) {
	dir := t.TempDir()
	require.Error(t, ValidateDir(dir))

	stamp := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	path, err := CreateSQLMigration(dir, "Add Refund Table!", stamp)
	require.NoError(t, err)
	assert.Equal(t, "20260302093000_add_refund_table.sql", filepath.Base(path))
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "add refund table", stamp)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.sql"), []byte("-- nothing"), 0o644))
	assert.Error(t, ValidateDir(dir))
}

func TestMigrationNameSlugs(t *testing.T) {
	_, err := MigrationName(" !!! ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	for input, want := range map[string]string{
		"Journal: add index":    "journal_add_index",
		"  steps__by  outcome ": "steps_by_outcome",
		"Add Refund Table!":     "add_refund_table",
	} {
		name, err := MigrationName(input)
		require.NoError(t, err)
		assert.Equal(t, want, name, "input %q", input)
	}
}

func TestValidateFSReportsEveryProblem(t *testing.T) {
	fsys := fstest.MapFS{
		"m/20260301120000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"m/20260301120000_b.sql": {Data: []byte("-- +goose Up\n")},
		"m/bad.sql":              {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"m/notes.txt":            {Data: []byte("ignored")},
	}

	err := ValidateFS(fsys, "m")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))
	// duplicate version, missing Down, bad filename
	assert.Len(t, multierr.Errors(errors.Unwrap(err)), 3)
	assert.Contains(t, err.Error(), "invalid migrations")
}
