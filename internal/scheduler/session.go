package scheduler

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/awalsh128/orchid/internal/audit"
	"github.com/awalsh128/orchid/pkg/models"
)

// ErrBatchActive indicates a batch run is already in progress for the
// session. Exactly one execution queue may be active per session.
var ErrBatchActive = errors.New("a batch run is already active")

// Session owns the mutable scheduler state for one interactive run:
// the tool-call tracker, the active execution queue, and the
// cooperative cancellation flag. It is passed explicitly into each
// reaction instead of being captured in module-global state.
type Session struct {
	// ID is the unique identifier for this session.
	ID string

	mu        sync.Mutex
	queue     models.ExecutionQueue
	tracker   *Tracker
	cancelled bool
	startedAt time.Time
}

// NewSession creates a session with a fresh tracker. sink may be nil.
func NewSession(sink audit.Sink) *Session {
	return &Session{
		ID:        uuid.NewString(),
		tracker:   NewTracker(sink),
		startedAt: time.Now(),
	}
}

// Tracker returns the session's tool-call tracker.
func (s *Session) Tracker() *Tracker {
	return s.tracker
}

// StartedAt returns when the session was created.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// StartBatch activates the execution queue for a new batch run.
// Fails with ErrBatchActive if one is already running.
func (s *Session) StartBatch(mode models.QueueMode, total int) (models.ExecutionQueue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue.Active {
		return s.queue, ErrBatchActive
	}
	s.queue = models.ExecutionQueue{
		Active:     true,
		Mode:       mode,
		TotalCount: total,
	}
	return s.queue, nil
}

// SetExecuting records the todo currently being dispatched.
func (s *Session) SetExecuting(todoID string) models.ExecutionQueue {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.ExecutingTodoID = todoID
	return s.queue
}

// AdvanceBatch counts one completed todo and clears the executing slot.
func (s *Session) AdvanceBatch() models.ExecutionQueue {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.CurrentIndex++
	s.queue.ExecutingTodoID = ""
	return s.queue
}

// EndBatch deactivates the queue and returns the final snapshot with
// partial progress intact.
func (s *Session) EndBatch() models.ExecutionQueue {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.Active = false
	s.queue.ExecutingTodoID = ""
	snapshot := s.queue
	return snapshot
}

// Queue returns a snapshot of the execution queue.
func (s *Session) Queue() models.ExecutionQueue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue
}

// Mode returns the active queue mode, or the default outside a batch.
func (s *Session) Mode() models.QueueMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue.Active && s.queue.Mode != "" {
		return s.queue.Mode
	}
	return models.QueueModeDefault
}

// Cancel raises the session's cancellation flag and flips every
// pre-terminal tool call to cancelled. Once raised, no further model
// calls or tool dispatches happen in this session's turn.
func (s *Session) Cancel() []string {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
	return s.tracker.CancelPending()
}

// Cancelled reports whether the session's cancellation flag is raised.
func (s *Session) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}
