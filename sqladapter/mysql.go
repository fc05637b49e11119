package sqladapter

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

const (
	MySQLDefaultLockKey     = "stairway_schema_versions"
	MySQLDefaultLockSeconds = 3
	MySQLDefaultCharset     = "utf8"
)

type MySQLOptions struct {
	VersionsTable string
	Charset       string
	LockKey       string
	LockFor       int
	NoLock        bool
	Connect       *ConnectOptions
}

func NewDefaultMySQLOptions() *MySQLOptions {
	return &MySQLOptions{
		VersionsTable: DefaultVersionsTable,
		Charset:       MySQLDefaultCharset,
		LockKey:       MySQLDefaultLockKey,
		LockFor:       MySQLDefaultLockSeconds,
	}
}

// NewMySQL creates a SQL adapter speaking the MySQL dialect, serialized
// through GET_LOCK.
func NewMySQL(db *sql.DB, options *MySQLOptions) *Adapter {
	if options == nil {
		options = NewDefaultMySQLOptions()
	}

	if options.VersionsTable == "" {
		options.VersionsTable = DefaultVersionsTable
	}

	if options.Charset == "" {
		options.Charset = MySQLDefaultCharset
	}

	var locker Locker
	if !options.NoLock {
		locker = &mysqlLocker{lockKey: options.LockKey, lockFor: options.LockFor}
	}

	return New(
		MakeRetryingConnector(db, options.Connect),
		mysqlDialect{versionsTable: options.VersionsTable, charset: options.Charset},
		locker,
	)
}

type mysqlDialect struct {
	versionsTable string
	charset       string
}

var _ Dialect = (*mysqlDialect)(nil)

func (d mysqlDialect) CreateVersionsTableQuery() string {
	const createSQL = `
		CREATE TABLE IF NOT EXISTS %s (
			version BIGINT PRIMARY KEY,
			description VARCHAR(255),
			applied_at TIMESTAMP default CURRENT_TIMESTAMP
		) ENGINE=InnoDB CHARACTER SET=%s;
	`

	return fmt.Sprintf(createSQL, d.versionsTable, d.charset)
}

func (d mysqlDialect) DropVersionsTableQuery() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", d.versionsTable)
}

func (d mysqlDialect) InsertVersionQuery() string {
	return fmt.Sprintf("INSERT INTO %s (`version`, `description`) VALUES (?, ?);", d.versionsTable)
}

func (d mysqlDialect) DeleteVersionQuery() string {
	return fmt.Sprintf("DELETE FROM %s WHERE `version` = ?;", d.versionsTable)
}

func (d mysqlDialect) ReadVersionsQuery() string {
	return fmt.Sprintf("SELECT `version` FROM %s ORDER BY `version` ASC;", d.versionsTable)
}

func (d mysqlDialect) ShowTablesQuery() string {
	return "SHOW TABLES;"
}

type mysqlLocker struct {
	lockKey string
	lockFor int
}

func (l *mysqlLocker) Lock(ctx context.Context, ex CtxExecutor) error {
	if _, err := ex.ExecContext(ctx, "SELECT GET_LOCK(?, ?)", l.lockKey, l.lockFor); err != nil {
		return errors.Wrapf(err, "could not obtain [%s] exclusive MySQL DB lock for [%d] seconds", l.lockKey, l.lockFor)
	}

	return nil
}

func (l *mysqlLocker) Unlock(ctx context.Context, ex CtxExecutor) error {
	if _, err := ex.ExecContext(ctx, "SELECT RELEASE_LOCK(?)", l.lockKey); err != nil {
		return errors.Wrapf(err, "could not release [%s] exclusive MySQL DB lock", l.lockKey)
	}

	return nil
}
