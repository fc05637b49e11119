package stairway

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rmazhuga/stairway/internal/logger"
	"github.com/rmazhuga/stairway/migration"
)

var ErrAdapterNotInitialized = errors.New("database adapter has not been initialized")

type CloserFunc func() error

// Adapter is the contract the migrator requires from a backend. It reads
// the set of versions currently recorded as applied and executes a single
// migration step, durably recording the version change before returning.
//
// Recording must happen atomically with (or strictly after) the step's
// own effect. The migrator treats "step succeeded" and "version recorded"
// as a single unit and has no repair path when they diverge. Cross-process
// serialization, if needed, is also the adapter's job; the SQL adapter
// uses database advisory locks for it.
type Adapter interface {
	// AppliedVersions reports the versions currently applied to the
	// target, in no particular order.
	AppliedVersions(ctx context.Context) (migration.Versions, error)

	// Apply executes the forward operation of m and records its version
	// as applied.
	Apply(ctx context.Context, m migration.Migration) error

	// Revert executes the backward operation of m and removes its version
	// from the applied set. Fails with migration.ErrIrreversible when m
	// declares no backward operation.
	Revert(ctx context.Context, m migration.Migration) error
}

// LoggerAware adapters receive the migrator's logger during construction.
type LoggerAware interface {
	SetLogger(logger.Logger)
}

// Migrator tracks registered migrations and drives a backend adapter
// through the ordered sequence of apply/revert steps needed to reach a
// requested target version.
type Migrator struct {
	lg        logger.Logger
	registry  *migration.Registry
	adapter   Adapter
	closerFns []CloserFunc
}

// NewMigrator creates a migrator using option callbacks to install the
// adapter, logger and initial migrations. An adapter is mandatory.
func NewMigrator(opts ...OptionFunc) (*Migrator, CloserFunc, error) {
	m := new(Migrator)
	m.lg = &logger.NullLogger{}
	m.registry = migration.NewRegistry()

	for _, oFunc := range opts {
		if err := oFunc(m); err != nil {
			return nil, nil, err
		}
	}

	if m.adapter == nil {
		return nil, nil, ErrAdapterNotInitialized
	}

	if la, ok := m.adapter.(LoggerAware); ok {
		la.SetLogger(m.lg)
	}

	return m, m.close, nil
}

// Register adds migrations to the migrator's registry. Versions must be
// unique and any declared dependency must have been registered already,
// either in an earlier call or earlier in the same call.
func (m *Migrator) Register(migrations ...migration.Migration) error {
	return m.registry.Register(migrations...)
}

// Registered returns all registered versions in ascending order.
func (m *Migrator) Registered() migration.Versions {
	return m.registry.Versions()
}

// MigrateTo moves the target to the given version, inclusive: versions
// applied above the target are reverted in descending order, then
// unapplied versions at or below it are applied in ascending order.
// The target does not have to be a registered version; an unregistered
// target simply bounds the pending set. Versions present in the applied
// set but unknown to the registry are never touched.
//
// Execution stops at the first failing step; the returned error is a
// *StepError naming the version, and steps completed before it remain
// in effect. When the target state is already reached the call succeeds
// without invoking the adapter.
func (m *Migrator) MigrateTo(ctx context.Context, target migration.Version) (migration.Versions, error) {
	applied, err := m.adapter.AppliedVersions(ctx)
	if err != nil {
		m.lg.Error(err)
		return nil, errors.Wrap(err, "could not read applied versions")
	}

	p := newPlan(m.registry.Versions(), applied, target)
	if p.isNoop() {
		m.lg.Debugf("target version %d already reached, nothing to do", target)
		return nil, nil
	}

	var done migration.Versions

	for _, v := range p.revert {
		if err := m.revertOne(ctx, v); err != nil {
			return done, err
		}

		done = append(done, v)
	}

	for _, v := range p.apply {
		if err := m.applyOne(ctx, v); err != nil {
			return done, err
		}

		done = append(done, v)
	}

	return done, nil
}

// Up migrates to the highest registered version.
func (m *Migrator) Up(ctx context.Context) (migration.Versions, error) {
	return m.MigrateTo(ctx, m.registry.Last())
}

// Down reverts every applied registered version.
func (m *Migrator) Down(ctx context.Context) (migration.Versions, error) {
	return m.MigrateTo(ctx, migration.NoVersion)
}

// CurrentVersion reports the highest applied version, or
// migration.NoVersion when nothing has been applied.
func (m *Migrator) CurrentVersion(ctx context.Context) (migration.Version, error) {
	applied, err := m.adapter.AppliedVersions(ctx)
	if err != nil {
		m.lg.Error(err)
		return migration.NoVersion, errors.Wrap(err, "could not read applied versions")
	}

	return applied.Highest(), nil
}

func (m *Migrator) applyOne(ctx context.Context, v migration.Version) error {
	mig, err := m.registry.Get(v)
	if err != nil {
		return err
	}

	m.lg.Debugf("applying version %d: %s", v, mig.Description())

	if err := m.adapter.Apply(ctx, mig); err != nil {
		stepErr := &StepError{Version: v, Operation: OperationApply, Err: err}
		m.lg.Error(stepErr)
		return stepErr
	}

	m.lg.Successf("applied version %d: %s", v, mig.Description())

	return nil
}

func (m *Migrator) revertOne(ctx context.Context, v migration.Version) error {
	mig, err := m.registry.Get(v)
	if err != nil {
		return err
	}

	m.lg.Debugf("reverting version %d: %s", v, mig.Description())

	if err := m.adapter.Revert(ctx, mig); err != nil {
		stepErr := &StepError{Version: v, Operation: OperationRevert, Err: err}
		m.lg.Error(stepErr)
		return stepErr
	}

	m.lg.Successf("reverted version %d: %s", v, mig.Description())

	return nil
}

func (m *Migrator) close() error {
	var result error
	for _, closer := range m.closerFns {
		if err := closer(); err != nil {
			m.lg.Error(err)
			result = err
		}
	}

	return result
}
