package retrieval

import (
	"context"

	"github.com/arkwith7/abekm/internal/domain/query"
	"github.com/arkwith7/abekm/internal/domain/search/candidate"
	"github.com/arkwith7/abekm/internal/domain/search/filter"
	"github.com/arkwith7/abekm/internal/domain/search/mode"
)

// Input is what every retriever receives for one request.
type Input struct {
	Query   query.Query
	Filters filter.Expression
	Mode    mode.Mode
	// TopK is the per-retriever candidate budget.
	TopK int
	// ImageEmbedding is a caller-supplied query image vector, if any.
	ImageEmbedding []float32
}

// Retriever produces candidates for one signal. It never returns an error:
// failures are reported in the Outcome.
type Retriever interface {
	Method() candidate.Method
	Retrieve(ctx context.Context, in Input) Outcome
}

// Outcome status labels.
const (
	StatusOK      = "ok"
	StatusEmpty   = "empty"
	StatusSkipped = "skipped"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// Outcome is one retriever's result. A failed or skipped outcome carries no candidates.
type Outcome struct {
	Method     candidate.Method
	Candidates []candidate.Candidate
	Err        error
	Skipped    bool
	TimedOut   bool
}

// Skip reports a retriever whose required input is absent.
func Skip(m candidate.Method) Outcome {
	return Outcome{Method: m, Skipped: true}
}

// Fail reports a retriever failure.
func Fail(m candidate.Method, err error) Outcome {
	return Outcome{Method: m, Err: err}
}

// Success reports retrieved candidates.
func Success(m candidate.Method, cands []candidate.Candidate) Outcome {
	return Outcome{Method: m, Candidates: cands}
}

// Degraded reports whether the signal was lost to a failure.
func (o Outcome) Degraded() bool { return o.Err != nil || o.TimedOut }

// Ran reports whether the retriever participated in the request.
func (o Outcome) Ran() bool { return !o.Skipped }

// Status returns the metric label for the outcome.
func (o Outcome) Status() string {
	switch {
	case o.TimedOut:
		return StatusTimeout
	case o.Err != nil:
		return StatusError
	case o.Skipped:
		return StatusSkipped
	case len(o.Candidates) == 0:
		return StatusEmpty
	default:
		return StatusOK
	}
}
