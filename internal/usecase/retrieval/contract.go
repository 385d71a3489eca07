package retrieval

import (
	"context"

	"github.com/arkwith7/abekm/internal/repository/chunk"
)

// Index opens one chunk search connection per retrieval task.
type Index interface {
	Open(ctx context.Context) (chunk.Conn, error)
}
