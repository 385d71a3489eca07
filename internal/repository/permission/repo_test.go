package permission

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/arkwith7/abekm/internal/db/sqlite"
	"github.com/arkwith7/abekm/internal/domain"
)

func newTestRepo(t *testing.T) (*Repo, *sql.DB) {
	t.Helper()
	ctx := context.Background()

	d, err := sqlite.Open(ctx, sqlite.Config{DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	fixtures := []string{
		`INSERT INTO containers (id, name, parent_id) VALUES ('root', 'Company', NULL)`,
		`INSERT INTO containers (id, name, parent_id) VALUES ('rd', 'R&D', 'root')`,
		`INSERT INTO containers (id, name, parent_id) VALUES ('pumps', 'Pumps', 'rd')`,
		`INSERT INTO containers (id, name, parent_id) VALUES ('hr', 'HR', 'root')`,
		`INSERT INTO container_grants (user_id, container_id) VALUES ('alice', 'pumps')`,
		`INSERT INTO container_grants (user_id, container_id) VALUES ('alice', 'hr')`,
	}
	for _, stmt := range fixtures {
		if _, err := d.Conn().ExecContext(ctx, stmt); err != nil {
			t.Fatalf("fixture %q: %v", stmt, err)
		}
	}
	return New(d.Conn()), d.Conn()
}

func TestAccessibleContainers(t *testing.T) {
	repo, _ := newTestRepo(t)

	got, err := repo.AccessibleContainers(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 containers, got %d", len(got))
	}
	if got[0].ID() != "hr" || got[1].ID() != "pumps" {
		t.Errorf("unexpected order: %s, %s", got[0].ID(), got[1].ID())
	}
	if got[1].ParentID() != "rd" {
		t.Errorf("ParentID() = %q, want rd", got[1].ParentID())
	}
}

func TestAccessibleContainers_NoGrants(t *testing.T) {
	repo, _ := newTestRepo(t)

	got, err := repo.AccessibleContainers(context.Background(), "mallory")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected none, got %d", len(got))
	}
}

func TestAccessibleContainers_InjectionIsLiteral(t *testing.T) {
	repo, _ := newTestRepo(t)

	got, err := repo.AccessibleContainers(context.Background(), "' OR '1'='1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("bound parameter must not match any user, got %d", len(got))
	}
}

func TestContainersByID_Paths(t *testing.T) {
	repo, _ := newTestRepo(t)

	got, err := repo.ContainersByID(context.Background(), []string{"pumps", "hr", "missing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 containers, got %d", len(got))
	}
	if p := got["pumps"].PathString(); p != "Company > R&D > Pumps" {
		t.Errorf("pumps path = %q", p)
	}
	if got["pumps"].Name() != "Pumps" {
		t.Errorf("pumps name = %q", got["pumps"].Name())
	}
	if p := got["hr"].PathString(); p != "Company > HR" {
		t.Errorf("hr path = %q", p)
	}
}

func TestContainersByID_CycleIsBounded(t *testing.T) {
	repo, conn := newTestRepo(t)
	ctx := context.Background()

	if _, err := conn.ExecContext(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	stmts := []string{
		`INSERT INTO containers (id, name, parent_id) VALUES ('a', 'A', 'b')`,
		`INSERT INTO containers (id, name, parent_id) VALUES ('b', 'B', 'a')`,
	}
	for _, s := range stmts {
		if _, err := conn.ExecContext(ctx, s); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := repo.ContainersByID(ctx, []string{"a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(got["a"].Path()); n != maxDepth+1 {
		t.Errorf("path length = %d, want %d", n, maxDepth+1)
	}
}

func TestContainersByID_Empty(t *testing.T) {
	repo, _ := newTestRepo(t)
	got, err := repo.ContainersByID(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}

type failingQuerier struct{}

func (failingQuerier) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errors.New("disk I/O error")
}

func TestRepo_StoreErrorsWrapSentinel(t *testing.T) {
	repo := New(failingQuerier{})
	ctx := context.Background()

	if _, err := repo.AccessibleContainers(ctx, "alice"); !errors.Is(err, domain.ErrPermissionStore) {
		t.Errorf("expected ErrPermissionStore, got %v", err)
	}
	if _, err := repo.ContainersByID(ctx, []string{"x"}); !errors.Is(err, domain.ErrPermissionStore) {
		t.Errorf("expected ErrPermissionStore, got %v", err)
	}
}
