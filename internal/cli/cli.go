package cli

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rmazhuga/stairway"
	"github.com/rmazhuga/stairway/migration"
)

var ErrDatabaseURLMissing = errors.New("database url was not defined")

type (
	Config struct {
		DatabaseURL      string
		MigrationsFolder string
		VersionsTable    string
	}

	App struct {
		migrator *stairway.Migrator
	}
)

func NewFromYaml(path string) (*App, stairway.CloserFunc, error) {
	cfg, err := createConfigFromYaml(path)
	if err != nil {
		return nil, nil, err
	}

	return New(cfg)
}

func New(cfg Config) (*App, stairway.CloserFunc, error) {
	m, closer, err := createMigrator(cfg)
	if err != nil {
		return nil, nil, err
	}

	return &App{migrator: m}, closer, nil
}

func (app *App) Migrate(ctx context.Context) (migration.Versions, error) {
	return app.migrator.Up(ctx)
}

func (app *App) Rollback(ctx context.Context) (migration.Versions, error) {
	return app.migrator.Down(ctx)
}

func (app *App) MigrateTo(ctx context.Context, target migration.Version) (migration.Versions, error) {
	return app.migrator.MigrateTo(ctx, target)
}

func (app *App) CurrentVersion(ctx context.Context) (migration.Version, error) {
	return app.migrator.CurrentVersion(ctx)
}
