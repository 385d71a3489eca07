package sqlite

import (
	"context"
	"testing"
)

func TestOpen_MemoryMigrate(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, Config{DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = d.Close() }()

	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// idempotent
	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if err := d.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	var n int
	err = d.Conn().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('containers', 'container_grants')`,
	).Scan(&n)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 2 {
		t.Errorf("tables = %d, want 2", n)
	}
}

func TestOpen_RequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}
