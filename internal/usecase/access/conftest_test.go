package access

import (
	"context"
	"testing"
	"time"

	"github.com/arkwith7/abekm/internal/domain/container"
)

// mockStore implements PermissionStore for tests.
type mockStore struct {
	accessibleFn func(ctx context.Context, userID string) ([]container.Container, error)
	byIDFn       func(ctx context.Context, ids []string) (map[string]container.Container, error)
	byIDCalls    [][]string
}

func (m *mockStore) AccessibleContainers(ctx context.Context, userID string) ([]container.Container, error) {
	if m.accessibleFn != nil {
		return m.accessibleFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockStore) ContainersByID(ctx context.Context, ids []string) (map[string]container.Container, error) {
	m.byIDCalls = append(m.byIDCalls, append([]string(nil), ids...))
	if m.byIDFn != nil {
		return m.byIDFn(ctx, ids)
	}
	return map[string]container.Container{}, nil
}

func mustContainer(t *testing.T, id, name string, path ...string) container.Container {
	t.Helper()
	c, err := container.New(id, name, "", path)
	if err != nil {
		t.Fatalf("container.New: %v", err)
	}
	return c
}

// fakeClock drives Cache expiry in tests.
type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }
