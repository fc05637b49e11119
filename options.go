package stairway

import (
	"database/sql"

	"github.com/rmazhuga/stairway/internal/logger"
	"github.com/rmazhuga/stairway/migration"
	"github.com/rmazhuga/stairway/sqladapter"
)

type (
	OptionFunc func(*Migrator) error

	MySQLOptionFunc    func(*sqladapter.MySQLOptions)
	PostgresOptionFunc func(*sqladapter.PostgresOptions)
	SqliteOptionFunc   func(*sqladapter.SqliteOptions)
)

var _ Adapter = (*sqladapter.Adapter)(nil)

// UseAdapter installs a custom backend adapter.
func UseAdapter(a Adapter) OptionFunc {
	return func(m *Migrator) error {
		m.adapter = a
		return nil
	}
}

// UseMigrations registers migrations at construction time.
func UseMigrations(migrations ...migration.Migration) OptionFunc {
	return func(m *Migrator) error {
		return m.registry.Register(migrations...)
	}
}

func UseColorLogger(p logger.Printer, printSQL, printDebug bool) OptionFunc {
	return func(m *Migrator) error {
		m.lg = logger.NewColorLogger(p, printSQL, printDebug)
		return nil
	}
}

func UseLogger(p logger.Printer, printSQL, printDebug bool) OptionFunc {
	return func(m *Migrator) error {
		m.lg = logger.NewBWLogger(p, printSQL, printDebug)
		return nil
	}
}

func UseMySQL(db *sql.DB, options ...MySQLOptionFunc) OptionFunc {
	return func(m *Migrator) error {
		opts := sqladapter.NewDefaultMySQLOptions()
		for _, oFunc := range options {
			oFunc(opts)
		}

		adapter := sqladapter.NewMySQL(db, opts)
		m.adapter = adapter
		m.closerFns = append(m.closerFns, adapter.Close)

		return nil
	}
}

func UsePostgres(db *sql.DB, options ...PostgresOptionFunc) OptionFunc {
	return func(m *Migrator) error {
		opts := sqladapter.NewDefaultPostgresOptions()
		for _, oFunc := range options {
			oFunc(opts)
		}

		adapter := sqladapter.NewPostgres(db, opts)
		m.adapter = adapter
		m.closerFns = append(m.closerFns, adapter.Close)

		return nil
	}
}

func UseSqlite(db *sql.DB, options ...SqliteOptionFunc) OptionFunc {
	return func(m *Migrator) error {
		opts := sqladapter.NewDefaultSqliteOptions()
		for _, oFunc := range options {
			oFunc(opts)
		}

		adapter := sqladapter.NewSqlite(db, opts)
		m.adapter = adapter
		m.closerFns = append(m.closerFns, adapter.Close)

		return nil
	}
}

func WithMySQLVersionsTable(table string) MySQLOptionFunc {
	return func(opts *sqladapter.MySQLOptions) {
		opts.VersionsTable = table
	}
}

func WithMySQLNoLock() MySQLOptionFunc {
	return func(opts *sqladapter.MySQLOptions) {
		opts.NoLock = true
	}
}

func WithMySQLConnectOptions(connect *sqladapter.ConnectOptions) MySQLOptionFunc {
	return func(opts *sqladapter.MySQLOptions) {
		opts.Connect = connect
	}
}

func WithPostgresVersionsTable(table string) PostgresOptionFunc {
	return func(opts *sqladapter.PostgresOptions) {
		opts.VersionsTable = table
	}
}

func WithPostgresNoLock() PostgresOptionFunc {
	return func(opts *sqladapter.PostgresOptions) {
		opts.NoLock = true
	}
}

func WithSqliteVersionsTable(table string) SqliteOptionFunc {
	return func(opts *sqladapter.SqliteOptions) {
		opts.VersionsTable = table
	}
}
