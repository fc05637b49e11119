package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/logrusorgru/aurora/v3"
	"github.com/rmazhuga/stairway"
	"github.com/rmazhuga/stairway/internal/cli"
	"github.com/rmazhuga/stairway/migration"
)

func main() {
	migrateCmd := flag.Bool("migrate", false, "apply all pending migrations")
	rollbackCmd := flag.Bool("rollback", false, "revert all applied migrations")
	versionCmd := flag.Bool("version", false, "print the current schema version")
	target := flag.Int64("to", 0, "migrate to the given version instead of the latest")

	databaseURL := flag.String("db", "", "database URL")
	folder := flag.String("folder", "", "local migrations folder")
	table := flag.String("table", "", "schema versions table name")
	configPath := flag.String("config", "", "path to a YAML config file")

	flag.Parse()

	app, closer, err := createApp(*configPath, *databaseURL, *folder, *table)
	if err != nil {
		fail(err.Error())
	}

	defer func() {
		if closeErr := closer(); closeErr != nil {
			fail(closeErr.Error())
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	switch {
	case *versionCmd:
		v, err := app.CurrentVersion(ctx)
		if err != nil {
			fail(err.Error())
		}

		if v == migration.NoVersion {
			fmt.Println(aurora.Green("stairway: "), "no versions applied")
		} else {
			fmt.Println(aurora.Green("stairway: "), "current version", int64(v))
		}
	case *target > 0:
		report(app.MigrateTo(ctx, migration.Version(*target)))
	case *migrateCmd:
		report(app.Migrate(ctx))
	case *rollbackCmd:
		report(app.Rollback(ctx))
	default:
		fail("unknown command")
	}
}

func createApp(configPath, databaseURL, folder, table string) (*cli.App, stairway.CloserFunc, error) {
	if configPath != "" {
		return cli.NewFromYaml(configPath)
	}

	if databaseURL == "" {
		return nil, nil, fmt.Errorf("database not specified")
	}

	return cli.New(cli.Config{
		DatabaseURL:      databaseURL,
		MigrationsFolder: folder,
		VersionsTable:    table,
	})
}

func report(done migration.Versions, err error) {
	if err != nil {
		fail(err.Error())
	}

	if len(done) == 0 {
		fmt.Println(aurora.Green("stairway: "), "nothing to do")
		return
	}

	fmt.Println(aurora.Green("stairway: "), "all done,", len(done), "step(s)")
}

func fail(msg string) {
	fmt.Println(aurora.Red("stairway: "), msg)
	os.Exit(1)
}
