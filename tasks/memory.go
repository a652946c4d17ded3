package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryRunner keeps scheduled jobs in process timers. Pending jobs are lost on restart.
type MemoryRunner struct {
	*registry

	mu      sync.Mutex
	closed  bool
	timers  map[string]*time.Timer
	wg      sync.WaitGroup
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewMemoryRunner returns a runner backed by time.AfterFunc.
func NewMemoryRunner(logger *zap.Logger) *MemoryRunner {
	ctx, cancel := context.WithCancel(context.Background())
	return &MemoryRunner{
		registry: newRegistry(logger),
		timers:   map[string]*time.Timer{},
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Schedule arms a timer for job. The request context is not propagated to the handler.
func (m *MemoryRunner) Schedule(_ context.Context, job Job, delay time.Duration) error {
	if delay < 0 {
		delay = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrRunnerClosed
	}
	job.DueAt = time.Now().Add(delay).UTC()
	m.wg.Add(1)
	m.timers[job.ID] = time.AfterFunc(delay, func() {
		defer m.wg.Done()
		m.mu.Lock()
		delete(m.timers, job.ID)
		m.mu.Unlock()
		m.dispatch(m.baseCtx, job)
	})
	return nil
}

// Pending returns the number of jobs that have not fired yet.
func (m *MemoryRunner) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Wait blocks until every scheduled job has run.
func (m *MemoryRunner) Wait() {
	m.wg.Wait()
}

// Stop drops jobs that have not fired and waits for running handlers until ctx is done.
func (m *MemoryRunner) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		for id, t := range m.timers {
			if t.Stop() {
				m.wg.Done()
			}
			delete(m.timers, id)
		}
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.cancel()
		return nil
	case <-ctx.Done():
		m.cancel()
		return ctx.Err()
	}
}
