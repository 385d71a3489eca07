package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, registers "sqlite"
)

// Config holds permission database settings.
type Config struct {
	DSN      string
	ReadOnly bool
}

// DB is the access/permission database.
type DB struct {
	conn *sql.DB
}

// schema creates the permission tables. Ingestion owns the rows; the engine only reads them.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS containers (
		id        TEXT PRIMARY KEY,
		name      TEXT NOT NULL,
		parent_id TEXT REFERENCES containers(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_containers_parent ON containers(parent_id)`,
	`CREATE TABLE IF NOT EXISTS container_grants (
		user_id      TEXT NOT NULL,
		container_id TEXT NOT NULL REFERENCES containers(id),
		PRIMARY KEY (user_id, container_id)
	)`,
}

// Open opens the database and applies connection pragmas.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	dsn := cfg.DSN
	if cfg.ReadOnly {
		dsn += "?mode=ro"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if cfg.DSN == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		conn.SetMaxOpenConns(1)
	}
	conn.SetConnMaxIdleTime(5 * time.Minute)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	if !cfg.ReadOnly {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}

	return &DB{conn: conn}, nil
}

// Migrate creates missing tables and indexes.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Conn exposes the pool for repositories.
func (d *DB) Conn() *sql.DB { return d.conn }

// Ping checks connectivity.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// Close closes the pool.
func (d *DB) Close() error {
	return d.conn.Close()
}
