package tasks

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// registry dispatches jobs to handlers by kind.
type registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   *zap.Logger
}

func newRegistry(logger *zap.Logger) *registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &registry{handlers: map[string]Handler{}, logger: logger}
}

func (r *registry) Register(kind string, h Handler) {
	r.mu.Lock()
	r.handlers[kind] = h
	r.mu.Unlock()
}

// dispatch runs the job's handler, converting panics and errors into log entries.
func (r *registry) dispatch(ctx context.Context, job Job) {
	r.mu.RLock()
	h, ok := r.handlers[job.Kind]
	r.mu.RUnlock()
	if !ok {
		r.logger.Error("no handler for job", zap.String("kind", job.Kind), zap.String("job_id", job.ID))
		return
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("job panicked", zap.String("kind", job.Kind), zap.String("job_id", job.ID), zap.Error(fmt.Errorf("%v", p)))
		}
	}()
	if err := h(ctx, job); err != nil {
		r.logger.Error("job failed", zap.String("kind", job.Kind), zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	r.logger.Debug("job done", zap.String("kind", job.Kind), zap.String("job_id", job.ID))
}
