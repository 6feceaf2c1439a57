package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"villa-offers-api/internal/config"
)

const testFixture = `
rooms:
  - villa_id: ocean-breeze
    tagline: Waves at your door
offers:
  - villa_id: ocean-breeze
    checkin_date: "2025-06-01"
    nights: 3
    adults: 2
    attractiveness_score: 41.5
`

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	t.Setenv("DATABASE_DRIVER", driver)
	t.Setenv("DATABASE_DSN", filepath.Join(t.TempDir(), "seed.db"))

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return cfg
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	if err := os.WriteFile(path, []byte(testFixture), 0o600); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

func TestRun_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, "postgres")

	_, err := run(context.Background(), cfg, writeFixture(t))
	if err == nil {
		t.Fatal("Expected an error for an unsupported driver")
	}
	if !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("Expected a configuration error, got %v", err)
	}
}

func TestRun_SeedsSQLite(t *testing.T) {
	cfg := testConfig(t, "sqlite3")

	res, err := run(context.Background(), cfg, writeFixture(t))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Rooms != 1 || res.Offers != 1 {
		t.Errorf("Expected 1 room and 1 offer, got %d and %d", res.Rooms, res.Offers)
	}
}
