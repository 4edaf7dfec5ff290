package workflow

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/noterag/internal/observability"
	"github.com/hrygo/noterag/store"
)

// Step executes the steps of one workflow instance.
type Step struct {
	instanceID string
	store      *store.Store
	config     Config
	logger     *slog.Logger
}

// Do runs fn once per instance and name. The value fn returns is JSON encoded
// into the journal and decoded into out, which may be nil. A name already in
// the journal decodes the recorded value instead of calling fn.
func (s *Step) Do(ctx context.Context, name string, fn func(ctx context.Context) (any, error), out any) error {
	journaled, err := s.store.GetWorkflowStep(ctx, s.instanceID, name)
	if err != nil {
		return errors.Wrapf(err, "failed to read journal for step %q", name)
	}
	if journaled != nil {
		observability.RecordWorkflowStep(stepKind(name), "replayed")
		return decode(journaled.Output, out)
	}

	var (
		result  any
		lastErr error
		delay   = s.config.RetryDelay
		attempt int
	)
	for attempt = 1; attempt <= s.config.RetryLimit+1; attempt++ {
		result, lastErr = s.attempt(ctx, fn)
		if lastErr == nil {
			break
		}
		observability.RecordWorkflowStep(stepKind(name), "error")
		if ctx.Err() != nil {
			return errors.Wrapf(lastErr, "step %q", name)
		}
		if attempt > s.config.RetryLimit {
			break
		}
		s.logger.Warn("step failed, retrying",
			observability.LogFieldStep, name,
			"attempt", attempt,
			"delay", delay,
			"error", lastErr,
		)
		if err := sleep(ctx, delay); err != nil {
			return errors.Wrapf(lastErr, "step %q", name)
		}
		delay *= 2
	}
	if lastErr != nil {
		return errors.Wrapf(lastErr, "step %q failed after %d attempts", name, attempt)
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return errors.Wrapf(err, "failed to encode result of step %q", name)
	}
	if _, err := s.store.UpsertWorkflowStep(ctx, &store.WorkflowStep{
		InstanceID: s.instanceID,
		Name:       name,
		Output:     string(raw),
		Attempts:   attempt,
	}); err != nil {
		return errors.Wrapf(err, "failed to journal step %q", name)
	}
	observability.RecordWorkflowStep(stepKind(name), "ok")
	s.logger.Debug("step complete", observability.LogFieldStep, name, "attempts", attempt)
	return decode(string(raw), out)
}

func (s *Step) attempt(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.config.StepTimeout)
	defer cancel()
	return fn(attemptCtx)
}

func decode(raw string, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return errors.Wrap(err, "failed to decode step result")
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// stepKind drops the "i/n" progress suffix so metrics keep a bounded label set.
func stepKind(name string) string {
	if i := strings.Index(name, ":"); i >= 0 {
		return name[:i]
	}
	return name
}
