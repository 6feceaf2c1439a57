package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Options configures the connection pool.
type Options struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	// AcquireTimeout bounds each store round-trip, waiting for a pooled
	// connection included. Zero means no bound beyond the caller's context.
	AcquireTimeout time.Duration
	// InitSchema creates the tables when missing. Only honored for sqlite3.
	InitSchema bool
}

// DB wraps the database connection and provides methods for data access.
type DB struct {
	conn    *sql.DB
	driver  string
	timeout time.Duration
}

// NewDB opens an offer store connection pool and, for sqlite, bootstraps the schema.
func NewDB(ctx context.Context, opts Options) (*DB, error) {
	dsn := opts.DSN
	if opts.Driver == "sqlite3" && !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000"
	}

	conn, err := sql.Open(opts.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", Classify(err))
	}

	if opts.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(opts.MaxIdleConns)
	}
	conn.SetConnMaxIdleTime(5 * time.Minute)

	db := &DB{conn: conn, driver: opts.Driver, timeout: opts.AcquireTimeout}

	pingCtx, cancel := db.withTimeout(ctx)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to reach database: %w", Classify(err))
	}

	if opts.InitSchema && opts.Driver == "sqlite3" {
		if err := db.initSchema(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, db.timeout)
}

// initSchema creates the development tables if they don't exist.
func (db *DB) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS offers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			villa_id TEXT NOT NULL,
			checkin_date TEXT NOT NULL,
			nights INTEGER NOT NULL,
			adults INTEGER NOT NULL,
			children INTEGER NOT NULL,
			attractiveness_score REAL NOT NULL,
			offer_status TEXT NOT NULL,
			price_for_guests REAL NOT NULL DEFAULT 0,
			total_face_value REAL NOT NULL DEFAULT 0,
			guest_savings_value REAL NOT NULL DEFAULT 0,
			guest_savings_percent REAL NOT NULL DEFAULT 0,
			perk_ids TEXT,
			has_wow_factor_perk INTEGER NOT NULL DEFAULT 0,
			last_calculated_at TEXT,
			UNIQUE (villa_id, checkin_date, nights, adults, children)
		)`,
		`CREATE TABLE IF NOT EXISTS room_descriptions (
			villa_id TEXT PRIMARY KEY,
			tagline TEXT,
			description TEXT,
			room_size TEXT,
			bathrooms INTEGER,
			bedrooms INTEGER,
			view_type TEXT,
			pool_type TEXT,
			image_urls TEXT,
			amenities TEXT,
			webpage_url TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_offers_occupancy_date ON offers(adults, children, checkin_date)`,
		`CREATE INDEX IF NOT EXISTS idx_offers_checkin_date ON offers(checkin_date)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}
