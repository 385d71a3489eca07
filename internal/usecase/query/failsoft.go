package query

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/arkwith7/abekm/internal/domain/query"
	"github.com/arkwith7/abekm/internal/domain/search/mode"
)

// FailSoft never fails: any error or panic from the inner processor yields query.Minimal.
type FailSoft struct {
	inner  Processor
	logger *zap.Logger
}

// NewFailSoft wraps a processor.
func NewFailSoft(inner Processor, logger *zap.Logger) *FailSoft {
	return &FailSoft{inner: inner, logger: logger}
}

// Process returns the inner result or a minimal query.
func (f *FailSoft) Process(ctx context.Context, raw string, m mode.Mode) (q query.Query) {
	defer func() {
		if rvr := recover(); rvr != nil {
			f.logger.Error("Query processor panicked, using minimal query",
				zap.Any("panic", rvr), zap.Stack("stacktrace"))
			q = query.Minimal(raw)
		}
	}()

	processed, err := f.inner.Process(ctx, raw, m)
	if err != nil {
		f.logger.Warn("Query processor failed, using minimal query",
			zap.String("mode", string(m)), zap.Error(fmt.Errorf("process: %w", err)))
		return query.Minimal(raw)
	}
	return processed
}
