package migration

import (
	"sort"

	"github.com/pkg/errors"
)

// Registry is an in-memory collection of migrations keyed by version.
// It validates version uniqueness and dependency well-formedness eagerly,
// at registration time. A dependency must be registered before its
// dependent, which makes dependency cycles structurally impossible.
//
// A Registry is meant to be populated once during initialization and is
// safe for concurrent reads afterwards. It is not safe for concurrent
// registration.
type Registry struct {
	byVersion map[Version]Migration
	ordered   Versions
}

func NewRegistry() *Registry {
	return &Registry{
		byVersion: make(map[Version]Migration),
	}
}

// Register adds migrations to the registry in the given order. A failed
// registration does not affect migrations registered before it, including
// earlier migrations of the same call.
func (r *Registry) Register(migrations ...Migration) error {
	for _, m := range migrations {
		if err := r.registerOne(m); err != nil {
			return err
		}
	}

	return nil
}

func (r *Registry) registerOne(m Migration) error {
	v := m.Version()
	if v <= NoVersion {
		return errors.Wrapf(ErrInvalidVersion, "got [%d]", v)
	}

	if r.Has(v) {
		return errors.Wrapf(ErrDuplicateVersion, "version [%d]", v)
	}

	for _, dep := range DependenciesOf(m) {
		if !r.Has(dep) {
			return errors.Wrapf(ErrUnknownDependency, "version [%d] depends on [%d]", v, dep)
		}
	}

	r.byVersion[v] = m

	i := sort.Search(len(r.ordered), func(i int) bool { return r.ordered[i] > v })
	r.ordered = append(r.ordered, NoVersion)
	copy(r.ordered[i+1:], r.ordered[i:])
	r.ordered[i] = v

	return nil
}

func (r *Registry) Has(v Version) bool {
	_, ok := r.byVersion[v]
	return ok
}

func (r *Registry) Get(v Version) (Migration, error) {
	m, ok := r.byVersion[v]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "version [%d]", v)
	}

	return m, nil
}

// Versions returns all registered versions in ascending order.
func (r *Registry) Versions() Versions {
	result := make(Versions, len(r.ordered))
	copy(result, r.ordered)
	return result
}

// First returns the lowest registered version, or NoVersion when
// the registry is empty.
func (r *Registry) First() Version {
	if len(r.ordered) == 0 {
		return NoVersion
	}

	return r.ordered[0]
}

// Last returns the highest registered version, or NoVersion when
// the registry is empty.
func (r *Registry) Last() Version {
	if len(r.ordered) == 0 {
		return NoVersion
	}

	return r.ordered[len(r.ordered)-1]
}

func (r *Registry) Len() int {
	return len(r.ordered)
}
