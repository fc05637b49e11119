package sqladapter

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/rmazhuga/stairway/migration"
)

// SQLMigration is a script-based migration: a list of forward statements
// and an optional list of backward statements. A migration without
// backward statements is irreversible.
type SQLMigration struct {
	version     migration.Version
	description string
	deps        []migration.Version
	up          []string
	down        []string
}

var _ Migration = (*SQLMigration)(nil)
var _ migration.DependencyAware = (*SQLMigration)(nil)

func NewSQLMigration(version migration.Version, description string) *SQLMigration {
	return &SQLMigration{version: version, description: description}
}

// WithUp appends forward statements.
func (m *SQLMigration) WithUp(statements ...string) *SQLMigration {
	m.up = append(m.up, statements...)
	return m
}

// WithDown appends backward statements.
func (m *SQLMigration) WithDown(statements ...string) *SQLMigration {
	m.down = append(m.down, statements...)
	return m
}

// DependsOn declares versions that must be registered before this one.
func (m *SQLMigration) DependsOn(versions ...migration.Version) *SQLMigration {
	m.deps = append(m.deps, versions...)
	return m
}

func (m *SQLMigration) Version() migration.Version {
	return m.version
}

func (m *SQLMigration) Description() string {
	return m.description
}

func (m *SQLMigration) Dependencies() []migration.Version {
	return m.deps
}

// Reversible reports whether the migration declares backward statements.
func (m *SQLMigration) Reversible() bool {
	return len(m.down) > 0
}

func (m *SQLMigration) Up(ctx context.Context, tx *sql.Tx) error {
	for _, statement := range m.up {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return errors.Wrapf(err, "statement [%s] failed", statement)
		}
	}

	return nil
}

func (m *SQLMigration) Down(ctx context.Context, tx *sql.Tx) error {
	if len(m.down) == 0 {
		return errors.Wrapf(migration.ErrIrreversible, "version [%d]", m.version)
	}

	for _, statement := range m.down {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return errors.Wrapf(err, "statement [%s] failed", statement)
		}
	}

	return nil
}

// StepFunc is a forward or backward operation coded in Go.
type StepFunc func(ctx context.Context, tx *sql.Tx) error

// FuncMigration is a migration whose operations are Go functions rather
// than SQL scripts. A nil down function marks it irreversible.
type FuncMigration struct {
	version     migration.Version
	description string
	deps        []migration.Version
	up          StepFunc
	down        StepFunc
}

var _ Migration = (*FuncMigration)(nil)
var _ migration.DependencyAware = (*FuncMigration)(nil)

func NewFuncMigration(
	version migration.Version,
	description string,
	up StepFunc,
	down StepFunc,
	deps ...migration.Version,
) *FuncMigration {
	return &FuncMigration{
		version:     version,
		description: description,
		deps:        deps,
		up:          up,
		down:        down,
	}
}

func (m *FuncMigration) Version() migration.Version {
	return m.version
}

func (m *FuncMigration) Description() string {
	return m.description
}

func (m *FuncMigration) Dependencies() []migration.Version {
	return m.deps
}

func (m *FuncMigration) Up(ctx context.Context, tx *sql.Tx) error {
	if m.up == nil {
		return nil
	}

	return m.up(ctx, tx)
}

func (m *FuncMigration) Down(ctx context.Context, tx *sql.Tx) error {
	if m.down == nil {
		return errors.Wrapf(migration.ErrIrreversible, "version [%d]", m.version)
	}

	return m.down(ctx, tx)
}
