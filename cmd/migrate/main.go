// Command migrate applies the SQL migrations in migrations/ with the
// atlas CLI. Only the DB_* environment variables are read, so it can
// run in contexts where the full app config is not set.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"ariga.io/atlas-go-sdk/atlasexec"
	"github.com/kelseyhightower/envconfig"

	"garage-booking/internal/pkg/config"
)

func main() {
	dirURL := flag.String("dir", "file://migrations?format=golang-migrate", "migration directory URL")
	atlasBin := flag.String("atlas", "atlas", "path to the atlas binary")
	flag.Parse()

	if err := run(context.Background(), *dirURL, *atlasBin); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dirURL, atlasBin string) error {
	var dbCfg config.DBConfig
	if err := envconfig.Process("", &dbCfg); err != nil {
		return fmt.Errorf("failed to process env config: %w", err)
	}

	client, err := atlasexec.NewClient(".", atlasBin)
	if err != nil {
		return fmt.Errorf("failed to initialize atlas client: %w", err)
	}

	res, err := client.MigrateApply(ctx, &atlasexec.MigrateApplyParams{
		URL:    dbCfg.BuildDSN(),
		DirURL: dirURL,
	})
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	for _, f := range res.Applied {
		slog.Info("applied migration", "file", f.Name)
	}
	slog.Info("database schema is up to date", "current", res.Current, "target", res.Target)

	return nil
}
