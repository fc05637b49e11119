package migration

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMigration struct {
	version     Version
	description string
	deps        []Version
}

func (m stubMigration) Version() Version        { return m.version }
func (m stubMigration) Description() string     { return m.description }
func (m stubMigration) Dependencies() []Version { return m.deps }

func Test_RegistryOrdersVersionsAscending(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(
		stubMigration{version: 30, description: "create baz"},
		stubMigration{version: 10, description: "create foo"},
		stubMigration{version: 20, description: "create bar"},
	))

	assert.Equal(t, Versions{10, 20, 30}, r.Versions())
	assert.Equal(t, Version(10), r.First())
	assert.Equal(t, Version(30), r.Last())
	assert.Equal(t, 3, r.Len())
}

func Test_EmptyRegistryHasNoFirstOrLastVersion(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, NoVersion, r.First())
	assert.Equal(t, NoVersion, r.Last())
	assert.Empty(t, r.Versions())
}

func Test_DuplicateVersionIsRejected(t *testing.T) {
	r := NewRegistry()

	first := stubMigration{version: 10, description: "create foo"}
	require.NoError(t, r.Register(first))

	err := r.Register(stubMigration{version: 10, description: "create foo again"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateVersion))

	// the registry keeps the original migration untouched
	assert.Equal(t, 1, r.Len())
	m, getErr := r.Get(10)
	require.NoError(t, getErr)
	assert.Equal(t, "create foo", m.Description())
}

func Test_UnknownDependencyIsRejected(t *testing.T) {
	r := NewRegistry()

	err := r.Register(stubMigration{version: 20, description: "create bar", deps: []Version{10}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownDependency))
	assert.Equal(t, 0, r.Len())
}

func Test_DependencyRegisteredEarlierInSameCallIsAccepted(t *testing.T) {
	r := NewRegistry()

	err := r.Register(
		stubMigration{version: 10, description: "create foo"},
		stubMigration{version: 20, description: "create bar", deps: []Version{10}},
	)

	require.NoError(t, err)
	assert.Equal(t, Versions{10, 20}, r.Versions())
}

func Test_FailedRegistrationKeepsEarlierMigrationsOfSameCall(t *testing.T) {
	r := NewRegistry()

	err := r.Register(
		stubMigration{version: 10, description: "create foo"},
		stubMigration{version: 20, description: "create bar", deps: []Version{15}},
	)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownDependency))
	assert.Equal(t, Versions{10}, r.Versions())
}

func Test_GetUnregisteredVersionFails(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get(999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func Test_NonPositiveVersionsAreRejected(t *testing.T) {
	r := NewRegistry()

	for _, v := range []Version{0, -5} {
		err := r.Register(stubMigration{version: v})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidVersion))
	}

	assert.Equal(t, 0, r.Len())
}
