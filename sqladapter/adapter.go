package sqladapter

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/rmazhuga/stairway/internal/logger"
	"github.com/rmazhuga/stairway/migration"
)

var ErrIncompatibleMigration = errors.New("migration does not target a SQL database")

const DefaultVersionsTable = "schema_versions"

// Migration is the contract the SQL adapter requires from registered
// migrations on top of the core one: forward and backward operations
// executed inside the transaction the adapter opens per step.
type Migration interface {
	migration.Migration

	Up(ctx context.Context, tx *sql.Tx) error

	// Down reverts the migration. Implementations that declare no
	// backward operation fail with migration.ErrIrreversible.
	Down(ctx context.Context, tx *sql.Tx) error
}

type CtxExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Dialect produces the bookkeeping queries for a concrete database.
type Dialect interface {
	CreateVersionsTableQuery() string
	DropVersionsTableQuery() string
	InsertVersionQuery() string
	DeleteVersionQuery() string
	ReadVersionsQuery() string
	ShowTablesQuery() string
}

// Locker serializes concurrent migrators targeting the same database,
// typically with an advisory lock. Databases without one use nullLocker.
type Locker interface {
	Lock(ctx context.Context, ex CtxExecutor) error
	Unlock(ctx context.Context, ex CtxExecutor) error
}

type nullLocker struct{}

func (nullLocker) Lock(_ context.Context, _ CtxExecutor) error   { return nil }
func (nullLocker) Unlock(_ context.Context, _ CtxExecutor) error { return nil }

// Adapter executes migrations against a SQL database and records applied
// versions in a bookkeeping table. Each step runs the migration's
// statements and the version record change in a single transaction, under
// the dialect's advisory lock when it has one.
type Adapter struct {
	connector *RetryingConnector
	dialect   Dialect
	locker    Locker
	lg        logger.Logger
}

func New(connector *RetryingConnector, dialect Dialect, locker Locker) *Adapter {
	if locker == nil {
		locker = nullLocker{}
	}

	return &Adapter{
		connector: connector,
		dialect:   dialect,
		locker:    locker,
		lg:        &logger.NullLogger{},
	}
}

func (a *Adapter) SetLogger(lg logger.Logger) {
	a.lg = lg
}

func (a *Adapter) Close() error {
	return a.connector.Close()
}

// AppliedVersions reads the recorded versions in ascending order,
// creating the bookkeeping table when it does not exist yet.
func (a *Adapter) AppliedVersions(ctx context.Context) (migration.Versions, error) {
	conn, err := a.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.createVersionsTable(ctx, conn); err != nil {
		return nil, err
	}

	q := a.dialect.ReadVersionsQuery()
	a.lg.SQL(q)

	rows, err := conn.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "could not read applied versions")
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			a.lg.Error(closeErr)
		}
	}()

	var result migration.Versions
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return result, errors.Wrap(err, "could not scan applied version")
		}

		result = append(result, migration.Version(v))
	}

	if err := rows.Err(); err != nil {
		return result, errors.Wrap(err, "applied versions iteration failed")
	}

	return result, nil
}

// Apply runs the forward operation of m and inserts its version record
// in the same transaction.
func (a *Adapter) Apply(ctx context.Context, m migration.Migration) error {
	sm, ok := m.(Migration)
	if !ok {
		return errors.Wrapf(ErrIncompatibleMigration, "version [%d]", m.Version())
	}

	return a.execUnderLock(ctx, func(tx *sql.Tx) error {
		if err := sm.Up(ctx, tx); err != nil {
			return errors.Wrapf(err, "could not run migration version [%d]", m.Version())
		}

		q := a.dialect.InsertVersionQuery()
		a.lg.SQL(q, int64(m.Version()), m.Description())

		if _, err := tx.ExecContext(ctx, q, int64(m.Version()), m.Description()); err != nil {
			return errors.Wrapf(err, "could not record migration version [%d]", m.Version())
		}

		return nil
	})
}

// Revert runs the backward operation of m and deletes its version record
// in the same transaction.
func (a *Adapter) Revert(ctx context.Context, m migration.Migration) error {
	sm, ok := m.(Migration)
	if !ok {
		return errors.Wrapf(ErrIncompatibleMigration, "version [%d]", m.Version())
	}

	return a.execUnderLock(ctx, func(tx *sql.Tx) error {
		if err := sm.Down(ctx, tx); err != nil {
			return errors.Wrapf(err, "could not roll back migration version [%d]", m.Version())
		}

		q := a.dialect.DeleteVersionQuery()
		a.lg.SQL(q, int64(m.Version()))

		if _, err := tx.ExecContext(ctx, q, int64(m.Version())); err != nil {
			return errors.Wrapf(err, "could not remove migration version [%d]", m.Version())
		}

		return nil
	})
}

// CreateVersionsTable creates the bookkeeping table if absent.
func (a *Adapter) CreateVersionsTable(ctx context.Context) error {
	conn, err := a.connector.Connect(ctx)
	if err != nil {
		return err
	}

	return a.createVersionsTable(ctx, conn)
}

// DropVersionsTable removes the bookkeeping table and all recorded state.
func (a *Adapter) DropVersionsTable(ctx context.Context) error {
	conn, err := a.connector.Connect(ctx)
	if err != nil {
		return err
	}

	q := a.dialect.DropVersionsTableQuery()
	a.lg.SQL(q)

	if _, err := conn.ExecContext(ctx, q); err != nil {
		return errors.Wrap(err, "could not drop the versions table")
	}

	return nil
}

// ShowTables lists the tables of the target database.
func (a *Adapter) ShowTables(ctx context.Context) ([]string, error) {
	conn, err := a.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}

	q := a.dialect.ShowTablesQuery()
	a.lg.SQL(q)

	rows, err := conn.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "could not list tables")
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			a.lg.Error(closeErr)
		}
	}()

	var result []string
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return result, err
		}

		result = append(result, table)
	}

	if err := rows.Err(); err != nil {
		return result, errors.Wrap(err, "tables iteration failed")
	}

	return result, nil
}

func (a *Adapter) createVersionsTable(ctx context.Context, conn *sql.Conn) error {
	q := a.dialect.CreateVersionsTableQuery()

	if _, err := conn.ExecContext(ctx, q); err != nil {
		return errors.Wrap(err, "could not create the versions table")
	}

	return nil
}

func (a *Adapter) execUnderLock(ctx context.Context, f func(*sql.Tx) error) error {
	conn, err := a.connector.Connect(ctx)
	if err != nil {
		return err
	}

	if err := a.locker.Lock(ctx, conn); err != nil {
		return errors.Wrap(err, "database lock failed")
	}

	if err := a.createVersionsTable(ctx, conn); err != nil {
		return a.unlockAfter(ctx, conn, err)
	}

	tx, err := conn.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return a.unlockAfter(ctx, conn, errors.Wrap(err, "could not start transaction"))
	}

	if err := f(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Wrap(err, rbErr.Error())
		}

		return a.unlockAfter(ctx, conn, err)
	}

	if err := tx.Commit(); err != nil {
		return a.unlockAfter(ctx, conn, errors.Wrap(err, "could not commit migration step"))
	}

	return a.locker.Unlock(ctx, conn)
}

func (a *Adapter) unlockAfter(ctx context.Context, conn *sql.Conn, err error) error {
	if unlockErr := a.locker.Unlock(ctx, conn); unlockErr != nil {
		return errors.Wrap(err, unlockErr.Error())
	}

	return err
}
