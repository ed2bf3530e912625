package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"

	"github.com/stemsi/cohortsched-backend/internal/cohort"
	"github.com/stemsi/cohortsched-backend/internal/config"
	"github.com/stemsi/cohortsched-backend/internal/logger"
)

func main() {
	var migrationDir string
	flag.StringVar(&migrationDir, "path", "migrations", "Path to migration files")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		return
	}

	// Cohort registration works on the live schema, not on migration files.
	if args[0] == "cohort" {
		if len(args) < 3 {
			log.Fatal().Msg("cohort requires <type> <number>")
		}
		key, err := cohort.NewKey(args[1], args[2])
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid cohort")
		}
		if err := createCohort(context.Background(), cfg.DatabaseURL, key); err != nil {
			log.Fatal().Err(err).Str("cohort", key.Name()).Msg("Cohort registration failed")
		}
		log.Info().Str("cohort", key.Name()).Str("partition", string(key.Partition())).Msg("Cohort registered")
		return
	}

	m, err := migrate.New(fmt.Sprintf("file://%s", migrationDir), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed to initialize")
	}
	defer m.Close()

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("Up failed")
		}
		log.Info().Msg("Migrated up successfully")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("Down failed")
		}
		log.Info().Msg("Migrated down successfully")
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal().Err(err).Msg("Version failed")
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Schema version")
	case "force":
		if len(args) < 2 {
			log.Fatal().Msg("force requires version argument")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid version")
		}
		if err := m.Force(v); err != nil {
			log.Fatal().Err(err).Msg("Force failed")
		}
		log.Info().Int("version", v).Msg("Forced version")
	default:
		printUsage()
	}
}

// createCohort registers the cohort and creates its schedule table in one transaction.
func createCohort(ctx context.Context, dsn string, key cohort.Key) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	return pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO cohorts (type, number) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			key.Type, key.Number,
		); err != nil {
			return fmt.Errorf("insert cohort: %w", err)
		}
		if _, err := tx.Exec(ctx, `SELECT create_schedule_partition($1)`, string(key.Partition())); err != nil {
			return fmt.Errorf("create partition: %w", err)
		}
		return nil
	})
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [flags] <command>")
	fmt.Fprintln(os.Stderr, "Commands: up, down, version, force <version>, cohort <type> <number>")
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}
