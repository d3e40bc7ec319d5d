package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/awalsh128/orchid/internal/audit"
	"github.com/awalsh128/orchid/pkg/models"
)

// TodoRunner executes the work described by one todo.
type TodoRunner interface {
	RunTodo(ctx context.Context, todo *models.Todo, mode models.QueueMode) error
}

// BatchScheduler drives dependency-ordered execution over the todo
// graph, one todo at a time. Status mutation happens only inside its
// reaction methods.
type BatchScheduler struct {
	graph   *DependencyGraph
	session *Session
	runner  TodoRunner
	sink    audit.Sink
}

// NewBatchScheduler creates a batch scheduler. sink may be nil.
func NewBatchScheduler(graph *DependencyGraph, session *Session, runner TodoRunner, sink audit.Sink) *BatchScheduler {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &BatchScheduler{graph: graph, session: session, runner: runner, sink: sink}
}

// ExecuteOne runs a single todo. It fails fast with ErrUnmetDependency
// if any dependency has not completed, rather than silently running out
// of order.
func (b *BatchScheduler) ExecuteOne(ctx context.Context, id string, mode models.QueueMode) error {
	todo := b.graph.Get(id)
	if todo == nil {
		return fmt.Errorf("unknown todo %s", id)
	}
	if todo.Status != models.TodoStatusPending {
		return fmt.Errorf("todo %s is %s, not pending", id, todo.Status)
	}
	if err := b.graph.CheckDependencies(id); err != nil {
		return err
	}

	todo.Status = models.TodoStatusInProgress
	debugLog("[batch] executing todo %s", id)

	if err := b.runner.RunTodo(ctx, todo, mode); err != nil {
		todo.Status = models.TodoStatusCancelled
		return fmt.Errorf("todo %s: %w", id, err)
	}

	now := time.Now()
	todo.Status = models.TodoStatusCompleted
	todo.CompletedAt = &now
	debugLog("[batch] todo %s completed", id)
	return nil
}

// RunBatch executes every ready todo in dependency order, one at a
// time. The topological order is validated eagerly so a cyclic graph
// fails before anything is dispatched. On error or cancellation the
// active todo is marked cancelled, the queue is cleared, and partial
// progress is reported; the batch does not auto-resume.
func (b *BatchScheduler) RunBatch(ctx context.Context, mode models.QueueMode) (models.ExecutionQueue, error) {
	if _, err := b.graph.TopologicalOrder(); err != nil {
		return models.ExecutionQueue{}, err
	}

	total := 0
	for _, todo := range b.graph.Todos() {
		if todo.Status == models.TodoStatusPending {
			total++
		}
	}

	if _, err := b.session.StartBatch(mode, total); err != nil {
		return b.session.Queue(), err
	}

	for {
		if err := b.interrupted(ctx); err != nil {
			return b.cancelActive(""), err
		}

		ready := b.graph.Ready()
		if len(ready) == 0 {
			// No ready todo remains: the batch is complete.
			snapshot := b.session.EndBatch()
			b.sink.BatchProgress(snapshot)
			debugLog("[batch] complete: %d/%d", snapshot.CurrentIndex, snapshot.TotalCount)
			return snapshot, nil
		}

		id := ready[0]
		todo := b.graph.Get(id)
		todo.Status = models.TodoStatusInProgress
		b.sink.BatchProgress(b.session.SetExecuting(id))
		debugLog("[batch] dispatching todo %s", id)

		if err := b.runner.RunTodo(ctx, todo, mode); err != nil {
			return b.cancelActive(id), fmt.Errorf("todo %s: %w", id, err)
		}
		if err := b.interrupted(ctx); err != nil {
			return b.cancelActive(id), err
		}

		now := time.Now()
		todo.Status = models.TodoStatusCompleted
		todo.CompletedAt = &now
		b.sink.BatchProgress(b.session.AdvanceBatch())
	}
}

// interrupted reports context or session cancellation.
func (b *BatchScheduler) interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.session.Cancelled() {
		return context.Canceled
	}
	return nil
}

// cancelActive marks the active todo cancelled, clears the queue, and
// returns the partial-progress snapshot.
func (b *BatchScheduler) cancelActive(id string) models.ExecutionQueue {
	if id != "" {
		if todo := b.graph.Get(id); todo != nil && todo.Status == models.TodoStatusInProgress {
			todo.Status = models.TodoStatusCancelled
		}
	}
	snapshot := b.session.EndBatch()
	b.sink.BatchProgress(snapshot)
	debugLog("[batch] cancelled at %d/%d", snapshot.CurrentIndex, snapshot.TotalCount)
	return snapshot
}

// AutoCompleteSingleInProgress marks the todo completed when exactly
// one is in_progress outside an active batch. This is a best-effort
// convenience after a turn finishes, not a correctness guarantee.
func (b *BatchScheduler) AutoCompleteSingleInProgress() *models.Todo {
	if b.session.Queue().Active {
		return nil
	}

	var inProgress *models.Todo
	for _, todo := range b.graph.Todos() {
		if todo.Status == models.TodoStatusInProgress {
			if inProgress != nil {
				return nil
			}
			inProgress = todo
		}
	}
	if inProgress == nil {
		return nil
	}

	now := time.Now()
	inProgress.Status = models.TodoStatusCompleted
	inProgress.CompletedAt = &now
	debugLog("[batch] auto-completed single in-progress todo %s", inProgress.ID)
	return inProgress
}
