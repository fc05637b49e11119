package cli

import (
	"io/ioutil"
	"log"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rmazhuga/stairway"
	"github.com/rmazhuga/stairway/source"
	"gopkg.in/yaml.v2"
)

type (
	migratorFactory    func(cfg Config) (*stairway.Migrator, stairway.CloserFunc, error)
	migratorFactoryMap map[string]migratorFactory

	migrationsSection struct {
		LocalFolder   string `yaml:"local_folder"`
		DatabaseURL   string `yaml:"database_url"`
		VersionsTable string `yaml:"versions_table"`
	}

	configFile struct {
		Version    string            `yaml:"version"`
		Migrations migrationsSection `yaml:"migrations"`
	}
)

func createConfigFromYaml(path string) (Config, error) {
	var cfg Config

	b, err := ioutil.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "could not read stairway configuration file")
	}

	var cfgFile configFile
	if err := yaml.Unmarshal(b, &cfgFile); err != nil {
		return cfg, errors.Wrap(err, "could not parse stairway configuration file")
	}

	cfg.DatabaseURL = resolveEnvIndirection(cfgFile.Migrations.DatabaseURL)
	cfg.MigrationsFolder = resolveEnvIndirection(cfgFile.Migrations.LocalFolder)
	cfg.VersionsTable = cfgFile.Migrations.VersionsTable

	if cfg.DatabaseURL == "" {
		return cfg, ErrDatabaseURLMissing
	}

	return cfg, nil
}

// resolveEnvIndirection resolves %%VAR%% values through the environment.
func resolveEnvIndirection(value string) string {
	if strings.HasPrefix(value, "%%") && strings.HasSuffix(value, "%%") {
		return os.Getenv(strings.ReplaceAll(value, "%%", ""))
	}

	return value
}

func createMigrator(cfg Config) (*stairway.Migrator, stairway.CloserFunc, error) {
	factoryMap := migratorFactoryMap{
		"mysql":    createMySQLMigrator,
		"postgres": createPostgresMigrator,
		"sqlite":   createSqliteMigrator,
	}

	var driver string
	switch {
	case strings.HasPrefix(cfg.DatabaseURL, "mysql"):
		driver = "mysql"
	case strings.HasPrefix(cfg.DatabaseURL, "postgres"):
		driver = "postgres"
	case strings.HasPrefix(cfg.DatabaseURL, "sqlite"):
		driver = "sqlite"
	default:
		return nil, nil, errors.Errorf("unknown database driver [%s]", cfg.DatabaseURL)
	}

	factory, ok := factoryMap[driver]
	if !ok {
		return nil, nil, errors.Errorf("could not find factory for driver [%s]", driver)
	}

	return factory(cfg)
}

func createMySQLMigrator(cfg Config) (*stairway.Migrator, stairway.CloserFunc, error) {
	db, err := sqlx.Open("mysql", strings.TrimPrefix(cfg.DatabaseURL, "mysql://"))
	if err != nil {
		return nil, nil, err
	}

	return newMigrator(cfg, stairway.UseMySQL(db.DB, stairway.WithMySQLVersionsTable(cfg.VersionsTable)))
}

func createPostgresMigrator(cfg Config) (*stairway.Migrator, stairway.CloserFunc, error) {
	db, err := sqlx.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	return newMigrator(cfg, stairway.UsePostgres(db.DB, stairway.WithPostgresVersionsTable(cfg.VersionsTable)))
}

func createSqliteMigrator(cfg Config) (*stairway.Migrator, stairway.CloserFunc, error) {
	path := strings.TrimPrefix(strings.TrimPrefix(cfg.DatabaseURL, "sqlite://"), "sqlite3://")

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, nil, err
	}

	return newMigrator(cfg, stairway.UseSqlite(db.DB, stairway.WithSqliteVersionsTable(cfg.VersionsTable)))
}

func newMigrator(cfg Config, adapterOpt stairway.OptionFunc) (*stairway.Migrator, stairway.CloserFunc, error) {
	migrations, err := source.NewLocal(cfg.MigrationsFolder).Load()
	if err != nil {
		return nil, nil, err
	}

	return stairway.NewMigrator(
		adapterOpt,
		stairway.UseMigrations(migrations...),
		stairway.UseColorLogger(log.New(os.Stdout, "", 0), true, false),
	)
}
