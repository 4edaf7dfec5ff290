// Package workflow runs named workflows as sequences of journaled steps.
// A step that completed once is never executed again for the same instance,
// so an instance interrupted by a crash resumes where it stopped.
package workflow

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/noterag/internal/observability"
	"github.com/hrygo/noterag/store"
)

// ErrUnknownWorkflow is returned when no workflow is registered under a name.
var ErrUnknownWorkflow = errors.New("unknown workflow")

// Workflow is a unit of durable work. Every side effect must go through step.Do.
type Workflow interface {
	Run(ctx context.Context, instance *store.WorkflowInstance, step *Step) error
}

// Func adapts a plain function to the Workflow interface.
type Func func(ctx context.Context, instance *store.WorkflowInstance, step *Step) error

// Run calls f.
func (f Func) Run(ctx context.Context, instance *store.WorkflowInstance, step *Step) error {
	return f(ctx, instance, step)
}

// Config controls step retries.
type Config struct {
	// RetryLimit is the number of retries after the first attempt.
	RetryLimit int
	// RetryDelay is the delay before the first retry. It doubles after each retry.
	RetryDelay time.Duration
	// StepTimeout bounds a single attempt.
	StepTimeout time.Duration
}

// DefaultConfig returns 5 retries starting at 10s with a 10 minute step timeout.
func DefaultConfig() Config {
	return Config{
		RetryLimit:  5,
		RetryDelay:  10 * time.Second,
		StepTimeout: 10 * time.Minute,
	}
}

// Engine creates and runs workflow instances.
type Engine struct {
	store  *store.Store
	config Config

	mu        sync.RWMutex
	workflows map[string]Workflow
}

// NewEngine creates an engine journaling into s.
func NewEngine(s *store.Store, config Config) *Engine {
	if config.RetryLimit < 0 {
		config.RetryLimit = 0
	}
	if config.StepTimeout <= 0 {
		config.StepTimeout = DefaultConfig().StepTimeout
	}
	return &Engine{
		store:     s,
		config:    config,
		workflows: make(map[string]Workflow),
	}
}

// Register makes a workflow available under name.
func (e *Engine) Register(name string, workflow Workflow) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.workflows[name] = workflow
}

func (e *Engine) lookup(name string) (Workflow, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	w, ok := e.workflows[name]
	return w, ok
}

// Create queues a new instance of the named workflow with JSON encoded params.
func (e *Engine) Create(ctx context.Context, name string, params any) (*store.WorkflowInstance, error) {
	if _, ok := e.lookup(name); !ok {
		return nil, errors.Wrap(ErrUnknownWorkflow, name)
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode workflow params")
	}
	instance, err := e.store.CreateWorkflowInstance(ctx, &store.WorkflowInstance{
		ID:     shortuuid.New(),
		Name:   name,
		Params: string(raw),
		Status: store.WorkflowQueued,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("workflow instance created", observability.LogFieldWorkflowID, instance.ID, "name", name)
	return instance, nil
}

// Pending lists instances that are queued or were interrupted while running.
func (e *Engine) Pending(ctx context.Context) ([]*store.WorkflowInstance, error) {
	return e.store.ListWorkflowInstances(ctx, &store.FindWorkflowInstance{
		StatusList: []store.WorkflowStatus{store.WorkflowQueued, store.WorkflowRunning},
	})
}

// Run executes the instance to completion. Finished instances are left alone.
// When ctx is canceled mid-run the instance stays RUNNING and is resumed later.
func (e *Engine) Run(ctx context.Context, instanceID string) error {
	instance, err := e.store.GetWorkflowInstance(ctx, instanceID)
	if err != nil {
		return err
	}
	if instance == nil {
		return errors.Errorf("workflow instance %s not found", instanceID)
	}
	if instance.Status == store.WorkflowComplete || instance.Status == store.WorkflowErrored {
		return nil
	}

	logger := slog.With(observability.LogFieldWorkflowID, instance.ID, "name", instance.Name)

	workflow, ok := e.lookup(instance.Name)
	if !ok {
		runErr := errors.Wrap(ErrUnknownWorkflow, instance.Name)
		if err := e.setStatus(ctx, instance, store.WorkflowErrored, runErr.Error()); err != nil {
			return err
		}
		return runErr
	}

	if err := e.setStatus(ctx, instance, store.WorkflowRunning, ""); err != nil {
		return err
	}
	logger.Info("workflow instance running")

	step := &Step{
		instanceID: instance.ID,
		store:      e.store,
		config:     e.config,
		logger:     logger,
	}
	runErr := workflow.Run(ctx, instance, step)
	if runErr != nil {
		if ctx.Err() != nil {
			logger.Warn("workflow instance interrupted", "error", runErr)
			return ctx.Err()
		}
		logger.Error("workflow instance errored", "error", runErr)
		if err := e.setStatus(ctx, instance, store.WorkflowErrored, runErr.Error()); err != nil {
			return err
		}
		return runErr
	}

	if err := e.setStatus(ctx, instance, store.WorkflowComplete, ""); err != nil {
		return err
	}
	logger.Info("workflow instance complete")
	return nil
}

func (e *Engine) setStatus(ctx context.Context, instance *store.WorkflowInstance, status store.WorkflowStatus, message string) error {
	now := time.Now().Unix()
	if err := e.store.UpdateWorkflowInstance(ctx, &store.UpdateWorkflowInstance{
		ID:        instance.ID,
		UpdatedTs: &now,
		Status:    &status,
		Error:     &message,
	}); err != nil {
		return errors.Wrapf(err, "failed to mark workflow instance %s %s", instance.ID, status)
	}
	instance.Status = status
	instance.Error = message
	instance.UpdatedTs = now
	if status == store.WorkflowComplete || status == store.WorkflowErrored {
		observability.RecordWorkflowInstance(status.String())
	}
	return nil
}
