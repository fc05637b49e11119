package cli

import (
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ItCreatesConfigFromYamlFile(t *testing.T) {
	cfg, err := createConfigFromYaml("./testdata/stairway.yaml")
	require.NoError(t, err)

	assert.Equal(t, "sqlite://./stairway.db", cfg.DatabaseURL)
	assert.Equal(t, "./migrations", cfg.MigrationsFolder)
	assert.Equal(t, "schema_versions", cfg.VersionsTable)
}

func Test_ItResolvesEnvIndirectionInYamlConfig(t *testing.T) {
	os.Setenv("STAIRWAY_DATABASE_URL", "mysql://stairway:secret@(127.0.0.1:3306)/stairway_db")
	os.Setenv("STAIRWAY_MIGRATIONS", "/var/lib/stairway/migrations")

	defer func() {
		os.Unsetenv("STAIRWAY_DATABASE_URL")
		os.Unsetenv("STAIRWAY_MIGRATIONS")
	}()

	cfg, err := createConfigFromYaml("./testdata/stairway_env.yaml")
	require.NoError(t, err)

	assert.Equal(t, "mysql://stairway:secret@(127.0.0.1:3306)/stairway_db", cfg.DatabaseURL)
	assert.Equal(t, "/var/lib/stairway/migrations", cfg.MigrationsFolder)
}

func Test_ItFailsWithoutADatabaseURL(t *testing.T) {
	_, err := createConfigFromYaml("./testdata/no_db.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDatabaseURLMissing))
}

func Test_ItRejectsAnUnknownDriver(t *testing.T) {
	_, _, err := createMigrator(Config{DatabaseURL: "oracle://whatever"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown database driver")
}
