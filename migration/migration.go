package migration

import (
	"sort"
)

// Version is an ordered, unique identifier of a single migration.
// Registered migrations are applied in ascending order by version.
// Conventionally a timestamp-derived value, but any positive integer works.
type Version int64

// NoVersion is the sentinel reported when nothing has been applied yet.
const NoVersion Version = 0

// Migration is the minimal contract every schema change unit implements.
// Concrete adapters extend it with the operations they know how to execute,
// e.g. the SQL adapter requires Up and Down against a transaction.
type Migration interface {
	Version() Version
	Description() string
}

// DependencyAware is implemented by migrations that declare versions
// which must be registered before them.
type DependencyAware interface {
	Dependencies() []Version
}

// DependenciesOf returns the declared dependencies of m, if any.
func DependenciesOf(m Migration) []Version {
	if da, ok := m.(DependencyAware); ok {
		return da.Dependencies()
	}

	return nil
}

type Migrations []Migration

func (m Migrations) Len() int {
	return len(m)
}

func (m Migrations) Less(i, j int) bool {
	return m[i].Version() < m[j].Version()
}

func (m Migrations) Swap(i, j int) {
	m[i], m[j] = m[j], m[i]
}

// Versions returns the versions of the migrations in slice order.
func (m Migrations) Versions() Versions {
	result := make(Versions, len(m))
	for i := range m {
		result[i] = m[i].Version()
	}
	return result
}

type Versions []Version

func (vs Versions) Contains(v Version) bool {
	for i := range vs {
		if vs[i] == v {
			return true
		}
	}

	return false
}

// Highest returns the greatest version in the set, or NoVersion
// when the set is empty.
func (vs Versions) Highest() Version {
	result := NoVersion
	for i := range vs {
		if vs[i] > result {
			result = vs[i]
		}
	}

	return result
}

func (vs Versions) Sorted() Versions {
	result := make(Versions, len(vs))
	copy(result, vs)
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
