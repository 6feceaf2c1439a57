package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"villa-offers-api/internal/config"
	"villa-offers-api/internal/database"
	"villa-offers-api/internal/logger"
	"villa-offers-api/internal/seed"
)

func main() {
	configFile := flag.String("config", "", "Optional JSON config file")
	fixture := flag.String("fixture", "config/seed.example.yaml", "YAML fixture of rooms and offers")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.App.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	res, err := run(context.Background(), cfg, *fixture)
	if err != nil {
		log.Fatal("Seeding stopped", "fixture", *fixture, "rooms", res.Rooms, "offers", res.Offers, "error", err)
	}

	log.Info("Seed complete", "fixture", *fixture, "rooms", res.Rooms, "offers", res.Offers)
}

func run(ctx context.Context, cfg *config.Config, fixture string) (seed.Result, error) {
	if err := cfg.Validate(); err != nil {
		return seed.Result{}, fmt.Errorf("invalid configuration: %w", err)
	}

	f, err := seed.Load(fixture)
	if err != nil {
		return seed.Result{}, fmt.Errorf("load fixture: %w", err)
	}

	db, err := database.NewDB(ctx, database.Options{
		Driver:         cfg.Database.Driver,
		DSN:            cfg.Database.DSN,
		MaxOpenConns:   cfg.Database.MaxOpenConns,
		MaxIdleConns:   cfg.Database.MaxIdleConns,
		AcquireTimeout: cfg.Database.AcquireTimeout.Std(),
		InitSchema:     true,
	})
	if err != nil {
		return seed.Result{}, fmt.Errorf("initialize %s database: %w", cfg.Database.Driver, err)
	}
	defer db.Close()

	return seed.Apply(ctx, db, f)
}
