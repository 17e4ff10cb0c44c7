// Package main applies the database schema migrations.
package main

import (
	"errors"
	"flag"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/msw2004727/FB-sub000/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	source := flag.String("source", "file://migrations", "migration source URL")
	down := flag.Bool("down", false, "roll back instead of applying")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	m, err := migrate.New(*source, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("creating migrator: %v", err)
	}
	defer m.Close()

	if err := run(m, *down, *steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("schema already up to date")
			return
		}
		log.Fatalf("migration failed: %v", err)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Println("schema rolled back to empty")
		return
	}
	if err != nil {
		log.Fatalf("reading schema version: %v", err)
	}
	log.Printf("schema at version %d (dirty=%v)", version, dirty)
}

func run(m *migrate.Migrate, down bool, steps int) error {
	switch {
	case steps > 0 && down:
		return m.Steps(-steps)
	case steps > 0:
		return m.Steps(steps)
	case down:
		return m.Down()
	default:
		return m.Up()
	}
}
