package access

import (
	"context"

	"github.com/arkwith7/abekm/internal/domain/container"
)

// PermissionStore reads grants and container metadata.
type PermissionStore interface {
	AccessibleContainers(ctx context.Context, userID string) ([]container.Container, error)
	ContainersByID(ctx context.Context, ids []string) (map[string]container.Container, error)
}
