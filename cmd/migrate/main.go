package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/pagebound/bookstore-api/internal/config"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		log.Error("usage: migrate <up|down|version>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "file://migrations"
	}

	m, err := migrate.New(migrationsPath, cfg.DB.DSN())
	if err != nil {
		log.Error("create migrate instance", "error", err)
		os.Exit(1)
	}
	defer func() { _, _ = m.Close() }()

	switch args[0] {
	case "up":
		err = m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no pending migrations")
			return
		}
		if err != nil {
			log.Error("migration up failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

	case "down":
		err = m.Steps(-1)
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no migrations to roll back")
			return
		}
		if err != nil {
			log.Error("migration down failed", "error", err)
			os.Exit(1)
		}
		log.Info("migration rolled back")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info("no migrations applied yet")
			return
		}
		if err != nil {
			log.Error("get version", "error", err)
			os.Exit(1)
		}
		log.Info("current migration version", "version", version, "dirty", dirty)

	default:
		log.Error("unknown command", "command", args[0])
		os.Exit(1)
	}
}
