package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/awalsh128/orchid/internal/audit"
	"github.com/awalsh128/orchid/pkg/models"
)

// StepRunner executes the work of one workflow step: an agent invocation
// or a raw action. data carries structured output for template lookup.
type StepRunner interface {
	RunStep(ctx context.Context, step models.Step, input string) (output string, data map[string]string, err error)
}

// Executor drives workflow runs. Definitions are read-only during
// execution; all mutable run state lives in the report being built.
type Executor struct {
	runner StepRunner
	sink   audit.Sink
}

// New creates a workflow executor. sink may be nil.
func New(runner StepRunner, sink audit.Sink) *Executor {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Executor{runner: runner, sink: sink}
}

// Run executes the definition against the given input and always
// returns a report, including for failed and aborted runs. Sequential
// entries run in declaration order; a step failure stops dispatch,
// while parallel group failures follow the group's error policy.
func (e *Executor) Run(ctx context.Context, def models.WorkflowDefinition, input string) *models.WorkflowReport {
	report := &models.WorkflowReport{
		RunID:     uuid.NewString(),
		Workflow:  def.Name,
		Status:    models.RunStatusRunning,
		Results:   make(map[string]*models.StepResult),
		StartedAt: time.Now(),
	}

	if def.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, def.Timeout)
		defer cancel()
	}

	debugLog("[workflow] run %s: %s (%d entries)", report.RunID, def.Name, len(def.Entries))

	res := &resolver{input: input, results: report.Results}

	for _, entry := range def.Entries {
		if err := ctx.Err(); err != nil {
			e.abort(report, err)
			break
		}

		switch {
		case entry.Step != nil:
			result := e.runStep(ctx, *entry.Step, res)
			e.record(report, entry.Step.ID, result)

			if result.Status == models.StepStatusError {
				if err := ctx.Err(); err != nil {
					e.abort(report, err)
				} else {
					report.Status = models.RunStatusFailed
					report.Err = result.Err
				}
			}
		case entry.Group != nil:
			if err := e.runGroup(ctx, *entry.Group, res, report); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					e.abort(report, ctxErr)
				} else {
					report.Status = models.RunStatusFailed
					report.Err = err.Error()
				}
			}
		}

		if report.Status != models.RunStatusRunning {
			break
		}
	}

	if report.Status == models.RunStatusRunning {
		report.Status = models.RunStatusCompleted
	}
	report.Duration = time.Since(report.StartedAt)

	debugLog("[workflow] run %s finished: %s in %s", report.RunID, report.Status, report.Duration)
	e.sink.WorkflowFinished(*report)
	return report
}

// runStep evaluates the step's condition, resolves its input, and runs
// it with retries. It never returns nil.
func (e *Executor) runStep(ctx context.Context, step models.Step, res *resolver) *models.StepResult {
	if step.When != "" {
		cond, err := res.resolve(step.ID, step.When)
		if err != nil {
			return &models.StepResult{StepID: step.ID, Status: models.StepStatusError, Err: err.Error()}
		}
		if !truthy(cond) {
			debugLog("[workflow] step %s skipped (when=%q)", step.ID, cond)
			return &models.StepResult{StepID: step.ID, Status: models.StepStatusSkipped}
		}
	}

	input, err := res.resolve(step.ID, step.Input)
	if err != nil {
		return &models.StepResult{StepID: step.ID, Status: models.StepStatusError, Err: err.Error()}
	}

	var lastErr error
	for attempt := 1; attempt <= step.Retries+1; attempt++ {
		output, data, err := e.runner.RunStep(ctx, step, input)
		if err == nil {
			return &models.StepResult{
				StepID:   step.ID,
				Status:   models.StepStatusSuccess,
				Output:   output,
				Data:     data,
				Attempts: attempt,
			}
		}
		lastErr = err
		debugLog("[workflow] step %s attempt %d failed: %v", step.ID, attempt, err)
		if ctx.Err() != nil {
			// No point retrying once the run is cancelled or timed out.
			return &models.StepResult{StepID: step.ID, Status: models.StepStatusError, Err: err.Error(), Attempts: attempt}
		}
	}
	return &models.StepResult{
		StepID:   step.ID,
		Status:   models.StepStatusError,
		Err:      lastErr.Error(),
		Attempts: step.Retries + 1,
	}
}

// runGroup dispatches every member concurrently, waits for all of them
// to settle, and applies the group's error policy. Failed members yield
// error results with empty output; they are recorded either way so
// continue-policy runs can read partial results.
func (e *Executor) runGroup(ctx context.Context, group models.ParallelGroup, res *resolver, report *models.WorkflowReport) error {
	debugLog("[workflow] group %s: dispatching %d members", group.ID, len(group.Steps))

	// Members resolve against results accumulated before the group;
	// each writes only its own slot while in flight.
	slots := make([]*models.StepResult, len(group.Steps))
	var g errgroup.Group
	for i, step := range group.Steps {
		i, step := i, step
		g.Go(func() error {
			slots[i] = e.runStep(ctx, step, res)
			return nil
		})
	}
	g.Wait()

	var failures []string
	for i, result := range slots {
		e.record(report, group.ID+"."+group.Steps[i].ID, result)
		if result.Status == models.StepStatusError {
			failures = append(failures, fmt.Sprintf("%s: %s", result.StepID, result.Err))
		}
	}

	minSuccess := group.Policy.MinSuccess
	if minSuccess <= 0 {
		minSuccess = len(group.Steps)
	}
	successes := len(group.Steps) - len(failures)

	if successes >= minSuccess {
		return nil
	}
	debugLog("[workflow] group %s: %d/%d successes below threshold %d", group.ID, successes, len(group.Steps), minSuccess)
	if group.Policy.OnError == models.OnErrorContinue {
		return nil
	}
	return fmt.Errorf("group %s: %d of %d members succeeded (need %d): %s",
		group.ID, successes, len(group.Steps), minSuccess, strings.Join(failures, "; "))
}

// record stores a settled result under its lookup key and reports it.
func (e *Executor) record(report *models.WorkflowReport, key string, result *models.StepResult) {
	report.Results[key] = result
	report.Order = append(report.Order, key)
	e.sink.StepSettled(report.Workflow, *result)
}

// abort marks the run aborted with retained results.
func (e *Executor) abort(report *models.WorkflowReport, err error) {
	report.Status = models.RunStatusAborted
	if errors.Is(err, context.DeadlineExceeded) {
		report.Err = "workflow timed out"
	} else {
		report.Err = "workflow cancelled"
	}
	debugLog("[workflow] run %s aborted: %v", report.RunID, err)
}
