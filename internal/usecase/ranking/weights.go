package ranking

import (
	"github.com/arkwith7/abekm/internal/domain/search/candidate"
	"github.com/arkwith7/abekm/internal/domain/search/mode"
)

// Weights are the per-method fusion weights.
type Weights struct {
	Vector   float64
	Keyword  float64
	Fulltext float64
	Image    float64
}

// Of returns the weight of m.
func (w Weights) Of(m candidate.Method) float64 {
	switch m {
	case candidate.MethodVector:
		return w.Vector
	case candidate.MethodKeyword:
		return w.Keyword
	case candidate.MethodFulltext:
		return w.Fulltext
	case candidate.MethodImage:
		return w.Image
	default:
		return 0
	}
}

func (w Weights) with(m candidate.Method, v float64) Weights {
	switch m {
	case candidate.MethodVector:
		w.Vector = v
	case candidate.MethodKeyword:
		w.Keyword = v
	case candidate.MethodFulltext:
		w.Fulltext = v
	case candidate.MethodImage:
		w.Image = v
	}
	return w
}

// Effective returns the weights for one request. Methods that did not run weigh zero.
// A lone active method, and the dense signals of an image-mode request, weigh 1.0.
func (w Weights) Effective(active candidate.MethodSet, m mode.Mode) Weights {
	var out Weights
	if active.Len() == 1 {
		return out.with(active.Slice()[0], 1)
	}
	for _, method := range active.Slice() {
		v := w.Of(method)
		if m == mode.Image && method.IsDense() {
			v = 1
		}
		out = out.with(method, v)
	}
	return out
}
