// Command importer seeds the stations table from the published polling unit
// registry CSV. Safe to re-run: existing natural keys are skipped.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"sheetwatch/internal/platform/logger"
	"sheetwatch/internal/registry"
)

func main() {
	csvPath := flag.String("csv", "", "path to the registry units CSV")
	postgresURL := flag.String("postgres-url", os.Getenv("SHEETWATCH_POSTGRES_URL"), "postgres connection URL")
	flag.Parse()

	log := logger.New()

	if err := run(*csvPath, *postgresURL, log); err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func run(csvPath, postgresURL string, log *slog.Logger) error {
	if csvPath == "" {
		return fmt.Errorf("-csv is required")
	}
	if postgresURL == "" {
		return fmt.Errorf("-postgres-url or SHEETWATCH_POSTGRES_URL is required")
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	units, err := registry.Parse(f)
	if err != nil {
		return err
	}
	log.Info("registry csv parsed", "units", len(units))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	conn, err := pgx.Connect(ctx, postgresURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close(ctx)

	_, err = registry.NewImporter(conn, log).Import(ctx, units)
	return err
}
