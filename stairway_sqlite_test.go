package stairway

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rmazhuga/stairway/migration"
	"github.com/rmazhuga/stairway/sqladapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ItCanMigrateUpAndDownAgainstSqlite(t *testing.T) {
	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "stairway_test.db"))
	require.NoError(t, err)

	defer db.Close()

	m, closer, err := NewMigrator(
		UseSqlite(db.DB),
		UseMigrations(
			sqladapter.NewSQLMigration(1596897167, "create foo table").
				WithUp("CREATE TABLE foo (id INTEGER PRIMARY KEY);").
				WithDown("DROP TABLE foo;"),
			sqladapter.NewSQLMigration(1596897188, "create bar table").
				WithUp("CREATE TABLE bar (id INTEGER PRIMARY KEY);").
				WithDown("DROP TABLE bar;").
				DependsOn(1596897167),
		),
	)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, closer())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	migrated, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, migration.Versions{1596897167, 1596897188}, migrated)

	current, err := m.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, migration.Version(1596897188), current)

	adapter, ok := m.adapter.(*sqladapter.Adapter)
	require.True(t, ok)

	// versions table plus the two tables created by the migrations
	tables, err := adapter.ShowTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bar", "foo", sqladapter.DefaultVersionsTable}, tables)

	rolledBack, err := m.Down(ctx)
	require.NoError(t, err)
	assert.Equal(t, migration.Versions{1596897188, 1596897167}, rolledBack)

	current, err = m.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, migration.NoVersion, current)

	require.NoError(t, adapter.DropVersionsTable(ctx))
}

func Test_IrreversibleMigrationFailsRollbackAgainstSqlite(t *testing.T) {
	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "stairway_test.db"))
	require.NoError(t, err)

	defer db.Close()

	m, closer, err := NewMigrator(
		UseSqlite(db.DB),
		UseMigrations(
			sqladapter.NewSQLMigration(10, "create foo table").
				WithUp("CREATE TABLE foo (id INTEGER PRIMARY KEY);"),
		),
	)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, closer())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = m.Up(ctx)
	require.NoError(t, err)

	_, err = m.Down(ctx)
	require.Error(t, err)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, migration.Version(10), stepErr.Version)

	// the failed rollback left the version applied
	current, err := m.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, migration.Version(10), current)
}
