package store

import (
	"context"
)

// WorkflowStatus is the lifecycle state of a workflow instance.
type WorkflowStatus string

const (
	WorkflowQueued   WorkflowStatus = "QUEUED"
	WorkflowRunning  WorkflowStatus = "RUNNING"
	WorkflowComplete WorkflowStatus = "COMPLETE"
	WorkflowErrored  WorkflowStatus = "ERRORED"
)

func (s WorkflowStatus) String() string {
	return string(s)
}

// WorkflowInstance is one durable run of a named workflow.
type WorkflowInstance struct {
	ID        string
	Name      string
	Params    string // JSON encoded
	Status    WorkflowStatus
	Error     string
	CreatedTs int64
	UpdatedTs int64
}

type FindWorkflowInstance struct {
	ID         *string
	StatusList []WorkflowStatus
	Limit      *int
}

type UpdateWorkflowInstance struct {
	ID        string
	UpdatedTs *int64
	Status    *WorkflowStatus
	Error     *string
}

// WorkflowStep is the journaled result of a completed step.
type WorkflowStep struct {
	InstanceID string
	Name       string
	Output     string // JSON encoded
	Attempts   int
	CreatedTs  int64
}

type FindWorkflowStep struct {
	InstanceID string
	Name       *string
}

func (s *Store) CreateWorkflowInstance(ctx context.Context, create *WorkflowInstance) (*WorkflowInstance, error) {
	return s.driver.CreateWorkflowInstance(ctx, create)
}

func (s *Store) ListWorkflowInstances(ctx context.Context, find *FindWorkflowInstance) ([]*WorkflowInstance, error) {
	return s.driver.ListWorkflowInstances(ctx, find)
}

func (s *Store) GetWorkflowInstance(ctx context.Context, id string) (*WorkflowInstance, error) {
	list, err := s.ListWorkflowInstances(ctx, &FindWorkflowInstance{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateWorkflowInstance(ctx context.Context, update *UpdateWorkflowInstance) error {
	return s.driver.UpdateWorkflowInstance(ctx, update)
}

func (s *Store) UpsertWorkflowStep(ctx context.Context, upsert *WorkflowStep) (*WorkflowStep, error) {
	return s.driver.UpsertWorkflowStep(ctx, upsert)
}

func (s *Store) ListWorkflowSteps(ctx context.Context, find *FindWorkflowStep) ([]*WorkflowStep, error) {
	return s.driver.ListWorkflowSteps(ctx, find)
}

// GetWorkflowStep returns the journaled step, or nil when the step has not completed.
func (s *Store) GetWorkflowStep(ctx context.Context, instanceID, name string) (*WorkflowStep, error) {
	list, err := s.ListWorkflowSteps(ctx, &FindWorkflowStep{InstanceID: instanceID, Name: &name})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}
