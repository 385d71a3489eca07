package access

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/arkwith7/abekm/internal/domain/container"
)

// Service resolves which containers a caller may read and serves their metadata.
type Service struct {
	store      PermissionStore
	cache      *Cache
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates an Access Resolver. cacheTotal (label "result") may be nil.
func New(store PermissionStore, cache *Cache, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Service {
	return &Service{store: store, cache: cache, cacheTotal: cacheTotal, logger: logger}
}

// Resolve intersects the user's grants with the requested containers.
// An unreadable permission store yields an empty set; callers treat empty as "no results".
func (s *Service) Resolve(ctx context.Context, userID string, requested []string) container.Set {
	granted, err := s.store.AccessibleContainers(ctx, userID)
	if err != nil {
		s.logger.Warn("Permission store unavailable, resolving to no containers",
			zap.String("user_id", userID), zap.Error(err))
		return container.NewSet()
	}

	ids := make([]string, len(granted))
	for i, c := range granted {
		ids[i] = c.ID()
	}
	return container.NewSet(ids...).Intersect(requested)
}

// Lookup returns metadata for ids, fetching every cache miss in one batched call.
// Ids the store does not know, or cannot return, are absent from the result.
func (s *Service) Lookup(ctx context.Context, ids []string) map[string]container.Container {
	out := make(map[string]container.Container, len(ids))
	var missing []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		if c, ok := s.cache.Get(id); ok {
			out[id] = c
			continue
		}
		missing = append(missing, id)
	}
	s.count("hit", len(out))
	if len(missing) == 0 {
		return out
	}
	s.count("miss", len(missing))

	fetched, err := s.store.ContainersByID(ctx, missing)
	if err != nil {
		s.logger.Warn("Container metadata refetch failed",
			zap.Int("missing", len(missing)), zap.Error(err))
		return out
	}
	for id, c := range fetched {
		s.cache.Put(c)
		out[id] = c
	}
	return out
}

func (s *Service) count(result string, n int) {
	if s.cacheTotal != nil && n > 0 {
		s.cacheTotal.WithLabelValues(result).Add(float64(n))
	}
}
