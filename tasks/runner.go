// Package tasks runs fire-and-forget jobs after a delay, detached from the request that scheduled them.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRunnerClosed is returned when scheduling on a runner that has been stopped.
var ErrRunnerClosed = errors.New("task runner closed")

// Job is a unit of deferred work. Payload is opaque to the runner.
type Job struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
	DueAt   time.Time       `json:"due_at"`
}

// NewJob encodes payload into a job of the given kind.
func NewJob(kind string, payload interface{}) (Job, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return Job{ID: uuid.NewString(), Kind: kind, Payload: b}, nil
}

// Handler executes a job. Its error is logged; jobs are never retried.
type Handler func(ctx context.Context, job Job) error

// Runner schedules jobs to run at most once after a delay.
type Runner interface {
	// Register binds the handler for jobs of kind. It must be called before Schedule.
	Register(kind string, h Handler)
	// Schedule queues job to run after delay and returns without waiting.
	Schedule(ctx context.Context, job Job, delay time.Duration) error
	// Stop prevents new jobs and releases resources, waiting for in-flight handlers until ctx ends.
	Stop(ctx context.Context) error
}
