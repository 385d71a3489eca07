package retrieval

import "github.com/arkwith7/abekm/internal/domain/query"

// Threshold map keys that are not language tags.
const (
	// DefaultThresholdKey holds the base floor for languages without their own entry.
	DefaultThresholdKey = "default"
	// VisionThresholdKey holds the floor for hits in the CLIP image space.
	VisionThresholdKey = "vision"
)

// DefaultVisionFloor applies when Thresholds has no VisionThresholdKey entry.
const DefaultVisionFloor = 0.2

// FloorPolicy computes the minimum dense similarity for a query.
type FloorPolicy struct {
	// Thresholds maps a language tag to its base floor.
	Thresholds map[string]float64
	// ShortTerms is the term count at or below which a query is short.
	ShortTerms int
	// ShortRelax is subtracted from the base floor for short queries.
	ShortRelax float64
	// Min bounds the relaxed floor from below.
	Min float64
}

// Floor returns the similarity floor for q.
func (p FloorPolicy) Floor(q query.Query) float64 {
	base, ok := p.Thresholds[q.Language()]
	if !ok {
		base = p.Thresholds[DefaultThresholdKey]
	}
	if p.ShortTerms > 0 && q.IsShort(p.ShortTerms) {
		base -= p.ShortRelax
	}
	if base < p.Min {
		return p.Min
	}
	return base
}

// VisionFloor returns the floor for CLIP text-to-image hits. Cross-modal cosines sit
// on a lower scale than text ones, so this floor is neither relaxed nor bounded by Min.
func (p FloorPolicy) VisionFloor() float64 {
	if v, ok := p.Thresholds[VisionThresholdKey]; ok {
		return v
	}
	return DefaultVisionFloor
}

// VisualFloor returns the floor a dense-only image or table chunk must meet for q.
// Queries that searched the image space accept chunks at the vision floor.
func (p FloorPolicy) VisualFloor(q query.Query) float64 {
	floor := p.Floor(q)
	if len(q.VisionEmbedding()) > 0 {
		floor = min(floor, p.VisionFloor())
	}
	return floor
}
