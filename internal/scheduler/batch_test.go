package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/awalsh128/orchid/pkg/models"
)

// fakeRunner records execution order and can fail or cancel on a
// chosen todo.
type fakeRunner struct {
	ran      []string
	failOn   string
	cancelOn string
	session  *Session
}

func (r *fakeRunner) RunTodo(ctx context.Context, todo *models.Todo, mode models.QueueMode) error {
	r.ran = append(r.ran, todo.ID)
	if todo.ID == r.failOn {
		return errors.New("boom")
	}
	if todo.ID == r.cancelOn && r.session != nil {
		r.session.Cancel()
	}
	return nil
}

func newBatch(t *testing.T, todos []*models.Todo, runner *fakeRunner) (*BatchScheduler, *Session) {
	t.Helper()
	g := buildGraph(t, todos)
	s := NewSession(nil)
	runner.session = s
	return NewBatchScheduler(g, s, runner, nil), s
}

func TestRunBatchDependencyOrder(t *testing.T) {
	todos := todoSet()
	runner := &fakeRunner{}
	b, _ := newBatch(t, todos, runner)

	queue, err := b.RunBatch(context.Background(), models.QueueModeDefault)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	if len(runner.ran) != 3 || runner.ran[0] != "step-1" {
		t.Fatalf("expected step-1 first, got %v", runner.ran)
	}
	for _, todo := range todos {
		if todo.Status != models.TodoStatusCompleted {
			t.Errorf("todo %s not completed: %s", todo.ID, todo.Status)
		}
	}
	if queue.Active {
		t.Error("queue should be cleared after completion")
	}
	if queue.CurrentIndex != 3 || queue.TotalCount != 3 {
		t.Errorf("unexpected progress: %d/%d", queue.CurrentIndex, queue.TotalCount)
	}
}

func TestRunBatchFailureCancelsActive(t *testing.T) {
	todos := todoSet()
	runner := &fakeRunner{failOn: "step-2"}
	b, _ := newBatch(t, todos, runner)

	queue, err := b.RunBatch(context.Background(), models.QueueModeDefault)
	if err == nil {
		t.Fatal("expected error")
	}

	if todos[0].Status != models.TodoStatusCompleted {
		t.Errorf("step-1 should be completed, got %s", todos[0].Status)
	}
	if todos[1].Status != models.TodoStatusCancelled {
		t.Errorf("step-2 should be cancelled, got %s", todos[1].Status)
	}
	if todos[2].Status != models.TodoStatusPending {
		t.Errorf("step-3 should stay pending, got %s", todos[2].Status)
	}
	if queue.Active {
		t.Error("queue should be cleared on failure")
	}
	if queue.CurrentIndex != 1 {
		t.Errorf("expected partial progress 1, got %d", queue.CurrentIndex)
	}
}

func TestRunBatchCancellationSnapshot(t *testing.T) {
	todos := todoSet()
	// Cancel is raised while step-2 is in progress.
	runner := &fakeRunner{cancelOn: "step-2"}
	b, session := newBatch(t, todos, runner)

	queue, err := b.RunBatch(context.Background(), models.QueueModeDefault)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if todos[0].Status != models.TodoStatusCompleted {
		t.Errorf("step-1: expected completed, got %s", todos[0].Status)
	}
	if todos[1].Status != models.TodoStatusCancelled {
		t.Errorf("step-2: expected cancelled, got %s", todos[1].Status)
	}
	if todos[2].Status != models.TodoStatusPending {
		t.Errorf("step-3: expected pending, got %s", todos[2].Status)
	}
	if queue.Active || session.Queue().Active {
		t.Error("queue should be cleared after cancellation")
	}
}

func TestRunBatchRejectsCycleBeforeDispatch(t *testing.T) {
	g := NewGraph()
	// Build the nodes by hand to sneak a cycle past Build.
	g.nodes["a"] = &models.Todo{ID: "a", Status: models.TodoStatusPending}
	g.nodes["b"] = &models.Todo{ID: "b", Status: models.TodoStatusPending}
	g.edges["a"] = []string{"b"}
	g.edges["b"] = []string{"a"}
	g.order = []string{"a", "b"}

	runner := &fakeRunner{}
	s := NewSession(nil)
	b := NewBatchScheduler(g, s, runner, nil)

	_, err := b.RunBatch(context.Background(), models.QueueModeDefault)
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
	if len(runner.ran) != 0 {
		t.Errorf("nothing should run on a cyclic graph, ran %v", runner.ran)
	}
}

func TestRunBatchSingleActiveQueue(t *testing.T) {
	todos := todoSet()
	runner := &fakeRunner{}
	b, session := newBatch(t, todos, runner)

	if _, err := session.StartBatch(models.QueueModeDefault, 3); err != nil {
		t.Fatalf("StartBatch: %v", err)
	}
	_, err := b.RunBatch(context.Background(), models.QueueModeDefault)
	if !errors.Is(err, ErrBatchActive) {
		t.Fatalf("expected ErrBatchActive, got %v", err)
	}
}

func TestExecuteOneUnmetDependency(t *testing.T) {
	todos := todoSet()
	runner := &fakeRunner{}
	b, _ := newBatch(t, todos, runner)

	err := b.ExecuteOne(context.Background(), "step-2", models.QueueModeDefault)
	if !errors.Is(err, ErrUnmetDependency) {
		t.Fatalf("expected ErrUnmetDependency, got %v", err)
	}
	if len(runner.ran) != 0 {
		t.Errorf("todo must not run with unmet dependencies, ran %v", runner.ran)
	}
}

func TestExecuteOneCompletes(t *testing.T) {
	todos := todoSet()
	runner := &fakeRunner{}
	b, _ := newBatch(t, todos, runner)

	if err := b.ExecuteOne(context.Background(), "step-1", models.QueueModeDefault); err != nil {
		t.Fatalf("ExecuteOne: %v", err)
	}
	if todos[0].Status != models.TodoStatusCompleted {
		t.Errorf("expected completed, got %s", todos[0].Status)
	}
	if todos[0].CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}

	if err := b.ExecuteOne(context.Background(), "step-2", models.QueueModeDefault); err != nil {
		t.Fatalf("ExecuteOne after dependency: %v", err)
	}
}

func TestAutoCompleteSingleInProgress(t *testing.T) {
	todos := todoSet()
	runner := &fakeRunner{}
	b, _ := newBatch(t, todos, runner)

	if got := b.AutoCompleteSingleInProgress(); got != nil {
		t.Errorf("nothing in progress, expected nil, got %v", got.ID)
	}

	todos[0].Status = models.TodoStatusInProgress
	got := b.AutoCompleteSingleInProgress()
	if got == nil || got.ID != "step-1" {
		t.Fatalf("expected step-1 auto-completed, got %v", got)
	}
	if todos[0].Status != models.TodoStatusCompleted {
		t.Errorf("expected completed, got %s", todos[0].Status)
	}

	// Ambiguous with two in progress: leave both alone.
	todos[1].Status = models.TodoStatusInProgress
	todos[2].Status = models.TodoStatusInProgress
	if got := b.AutoCompleteSingleInProgress(); got != nil {
		t.Errorf("expected nil with two in progress, got %v", got.ID)
	}
}
