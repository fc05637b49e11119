package sqladapter

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SqliteOptions struct {
	VersionsTable string
	Connect       *ConnectOptions
}

func NewDefaultSqliteOptions() *SqliteOptions {
	return &SqliteOptions{
		VersionsTable: DefaultVersionsTable,
	}
}

// NewSqlite creates a SQL adapter speaking the sqlite dialect. Sqlite
// has no advisory locks; file locking is left to the driver.
func NewSqlite(db *sql.DB, options *SqliteOptions) *Adapter {
	if options == nil {
		options = NewDefaultSqliteOptions()
	}

	if options.VersionsTable == "" {
		options.VersionsTable = DefaultVersionsTable
	}

	return New(
		MakeRetryingConnector(db, options.Connect),
		sqliteDialect{versionsTable: options.VersionsTable},
		nil,
	)
}

type sqliteDialect struct {
	versionsTable string
}

var _ Dialect = (*sqliteDialect)(nil)

func (d sqliteDialect) CreateVersionsTableQuery() string {
	const createSQL = `
		CREATE TABLE IF NOT EXISTS %s (
			version BIGINT PRIMARY KEY,
			description VARCHAR(255),
			applied_at TIMESTAMP default CURRENT_TIMESTAMP
		);
	`

	return fmt.Sprintf(createSQL, d.versionsTable)
}

func (d sqliteDialect) DropVersionsTableQuery() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", d.versionsTable)
}

func (d sqliteDialect) InsertVersionQuery() string {
	return fmt.Sprintf("INSERT INTO %s (version, description) VALUES (?, ?);", d.versionsTable)
}

func (d sqliteDialect) DeleteVersionQuery() string {
	return fmt.Sprintf("DELETE FROM %s WHERE version = ?;", d.versionsTable)
}

func (d sqliteDialect) ReadVersionsQuery() string {
	return fmt.Sprintf("SELECT version FROM %s ORDER BY version ASC;", d.versionsTable)
}

func (d sqliteDialect) ShowTablesQuery() string {
	return "SELECT name FROM sqlite_master WHERE type='table' ORDER BY name;"
}
