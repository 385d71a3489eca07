package filter

import (
	"fmt"
	"sort"

	"github.com/arkwith7/abekm/internal/domain/search/candidate"
)

// MaxContainers is the maximum number of containers in one pre-filter.
const MaxContainers = 1024

// Expression is the store pre-filter applied to every retriever:
// a chunk must belong to one of the containers and, when set, one of the modalities.
type Expression struct {
	containers []string
	modalities []candidate.Modality
}

// NewExpression validates and creates a filter Expression.
// Containers are deduplicated and sorted so identical inputs render identical queries.
func NewExpression(containers []string, modalities []candidate.Modality) (Expression, error) {
	if len(containers) == 0 {
		return Expression{}, fmt.Errorf("at least one container is required")
	}
	if len(containers) > MaxContainers {
		return Expression{}, fmt.Errorf("too many containers (max %d)", MaxContainers)
	}
	seen := make(map[string]struct{}, len(containers))
	ids := make([]string, 0, len(containers))
	for _, id := range containers {
		if id == "" {
			return Expression{}, fmt.Errorf("container id must not be empty")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var mods []candidate.Modality
	for _, m := range modalities {
		if !m.IsValid() {
			return Expression{}, fmt.Errorf("invalid modality: %q", m)
		}
		mods = append(mods, m)
	}
	return Expression{containers: ids, modalities: mods}, nil
}

// Containers returns the allowed container ids in sorted order.
func (e Expression) Containers() []string { return e.containers }

// Modalities returns the allowed modalities; empty means any.
func (e Expression) Modalities() []candidate.Modality { return e.modalities }

// AllowsModality reports whether a chunk of modality m passes the filter.
func (e Expression) AllowsModality(m candidate.Modality) bool {
	if len(e.modalities) == 0 {
		return true
	}
	for _, allowed := range e.modalities {
		if allowed == m {
			return true
		}
	}
	return false
}

// WithModalities returns a copy restricted to the given modalities.
func (e Expression) WithModalities(modalities ...candidate.Modality) Expression {
	e.modalities = append([]candidate.Modality(nil), modalities...)
	return e
}
