package sqladapter

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

const PostgresDefaultLockKey = 99887766

type PostgresOptions struct {
	VersionsTable string
	LockKey       int64
	NoLock        bool
	Connect       *ConnectOptions
}

func NewDefaultPostgresOptions() *PostgresOptions {
	return &PostgresOptions{
		VersionsTable: DefaultVersionsTable,
		LockKey:       PostgresDefaultLockKey,
	}
}

// NewPostgres creates a SQL adapter speaking the Postgres dialect,
// serialized through pg_advisory_lock.
func NewPostgres(db *sql.DB, options *PostgresOptions) *Adapter {
	if options == nil {
		options = NewDefaultPostgresOptions()
	}

	if options.VersionsTable == "" {
		options.VersionsTable = DefaultVersionsTable
	}

	var locker Locker
	if !options.NoLock {
		locker = &postgresLocker{lockKey: options.LockKey}
	}

	return New(
		MakeRetryingConnector(db, options.Connect),
		postgresDialect{versionsTable: options.VersionsTable},
		locker,
	)
}

type postgresDialect struct {
	versionsTable string
}

var _ Dialect = (*postgresDialect)(nil)

func (d postgresDialect) CreateVersionsTableQuery() string {
	const createSQL = `
		CREATE TABLE IF NOT EXISTS %s (
			version BIGINT PRIMARY KEY,
			description VARCHAR(255),
			applied_at TIMESTAMP default CURRENT_TIMESTAMP
		);
	`

	return fmt.Sprintf(createSQL, d.versionsTable)
}

func (d postgresDialect) DropVersionsTableQuery() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", d.versionsTable)
}

func (d postgresDialect) InsertVersionQuery() string {
	return fmt.Sprintf("INSERT INTO %s (version, description) VALUES ($1, $2);", d.versionsTable)
}

func (d postgresDialect) DeleteVersionQuery() string {
	return fmt.Sprintf("DELETE FROM %s WHERE version = $1;", d.versionsTable)
}

func (d postgresDialect) ReadVersionsQuery() string {
	return fmt.Sprintf("SELECT version FROM %s ORDER BY version ASC;", d.versionsTable)
}

func (d postgresDialect) ShowTablesQuery() string {
	return "SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = 'public' ORDER BY tablename;"
}

type postgresLocker struct {
	lockKey int64
}

func (l *postgresLocker) Lock(ctx context.Context, ex CtxExecutor) error {
	if _, err := ex.ExecContext(ctx, "SELECT pg_advisory_lock($1)", l.lockKey); err != nil {
		return errors.Wrapf(err, "could not obtain [%d] exclusive Postgres advisory lock", l.lockKey)
	}

	return nil
}

func (l *postgresLocker) Unlock(ctx context.Context, ex CtxExecutor) error {
	if _, err := ex.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockKey); err != nil {
		return errors.Wrapf(err, "could not release [%d] exclusive Postgres advisory lock", l.lockKey)
	}

	return nil
}
