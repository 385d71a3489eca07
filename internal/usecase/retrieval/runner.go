package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arkwith7/abekm/internal/logger"
)

// Runner executes retrievers concurrently, each under its own deadline.
// A failing, panicking or slow retriever yields a degraded Outcome and never fails the batch.
type Runner struct {
	timeout  time.Duration
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// NewRunner creates a Runner. A zero timeout leaves the caller's deadline in charge.
// Metric vectors may be nil.
func NewRunner(timeout time.Duration, duration *prometheus.HistogramVec, outcomes *prometheus.CounterVec) *Runner {
	return &Runner{timeout: timeout, duration: duration, outcomes: outcomes}
}

// Run fans the retrievers out and returns their outcomes in input order.
func (r *Runner) Run(ctx context.Context, retrievers []Retriever, in Input) []Outcome {
	out := make([]Outcome, len(retrievers))

	var g errgroup.Group
	for i, ret := range retrievers {
		g.Go(func() error {
			out[i] = r.runOne(ctx, ret, in)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (r *Runner) runOne(ctx context.Context, ret Retriever, in Input) Outcome {
	method := ret.Method()
	taskCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan Outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- Fail(method, fmt.Errorf("retriever %s panicked: %v", method, p))
			}
		}()
		done <- ret.Retrieve(taskCtx, in)
	}()

	var o Outcome
	select {
	case o = <-done:
		if o.Err == nil && !o.Skipped && taskCtx.Err() != nil {
			// Results that arrive after the deadline are discarded.
			o = Fail(method, taskCtx.Err())
		}
	case <-taskCtx.Done():
		o = Fail(method, taskCtx.Err())
	}
	o.Method = method

	if o.Err != nil && errors.Is(taskCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		o.TimedOut = true
	}
	if o.Degraded() {
		o.Candidates = nil
		logger.FromContext(ctx).Warn("Retriever degraded",
			zap.String("method", string(method)),
			zap.Bool("timed_out", o.TimedOut),
			zap.Error(o.Err),
		)
	}
	r.observe(o, time.Since(start))
	return o
}

func (r *Runner) observe(o Outcome, d time.Duration) {
	method := string(o.Method)
	if r.duration != nil && !o.Skipped {
		r.duration.WithLabelValues(method).Observe(d.Seconds())
	}
	if r.outcomes != nil {
		r.outcomes.WithLabelValues(method, o.Status()).Inc()
	}
}
