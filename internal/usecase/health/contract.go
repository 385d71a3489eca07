package health

import "context"

// Pinger is a store probe: the chunk store or the permission database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker probes one embedding space's provider.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
