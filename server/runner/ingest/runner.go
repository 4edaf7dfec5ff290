// Package ingest drives queued ingestion workflows in the background.
package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hrygo/noterag/internal/observability"
	"github.com/hrygo/noterag/store"
)

// Engine is the part of the workflow engine the runner drives.
type Engine interface {
	Pending(ctx context.Context) ([]*store.WorkflowInstance, error)
	Run(ctx context.Context, instanceID string) error
}

type Runner struct {
	engine   Engine
	interval time.Duration
	sem      *semaphore.Weighted
	wake     chan struct{}

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

// NewRunner creates a runner executing at most concurrency instances at once.
func NewRunner(engine Engine, concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{
		engine:   engine,
		interval: 30 * time.Second,
		sem:      semaphore.NewWeighted(int64(concurrency)),
		wake:     make(chan struct{}, 1),
		inflight: make(map[string]struct{}),
	}
}

// Run starts the background task. Instances left QUEUED or RUNNING by a
// previous process are picked up first.
func (r *Runner) Run(ctx context.Context) {
	r.dispatch(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.dispatch(ctx)
		case <-r.wake:
			r.dispatch(ctx)
		case <-ctx.Done():
			r.wg.Wait()
			slog.Info("ingest runner stopped")
			return
		}
	}
}

// Trigger wakes the runner without waiting for the next tick.
func (r *Runner) Trigger() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// RunOnce processes every pending instance and returns when they are done.
func (r *Runner) RunOnce(ctx context.Context) {
	r.dispatch(ctx)
	r.wg.Wait()
}

// dispatch starts a goroutine for each pending instance that is not already
// in flight, bounded by the semaphore.
func (r *Runner) dispatch(ctx context.Context) {
	pending, err := r.engine.Pending(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("failed to list pending workflow instances", "error", err)
		}
		return
	}
	if len(pending) == 0 {
		return
	}
	slog.Debug("dispatching workflow instances", "count", len(pending))

	for _, instance := range pending {
		if !r.claim(instance.ID) {
			continue
		}
		if err := r.sem.Acquire(ctx, 1); err != nil {
			r.release(instance.ID)
			return
		}
		r.wg.Add(1)
		go func(id string) {
			defer r.wg.Done()
			defer r.sem.Release(1)
			defer r.release(id)

			if err := r.engine.Run(ctx, id); err != nil && ctx.Err() == nil {
				slog.Error("workflow instance failed", observability.LogFieldWorkflowID, id, "error", err)
			}
		}(instance.ID)
	}
}

func (r *Runner) claim(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.inflight[id]; ok {
		return false
	}
	r.inflight[id] = struct{}{}
	return true
}

func (r *Runner) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, id)
}
