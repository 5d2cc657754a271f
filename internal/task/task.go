package task

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when a status change is attempted from a
// state that does not permit it. Terminal states are final.
var ErrInvalidTransition = errors.New("invalid task transition")

// Status is the lifecycle state of a task.
// Transitions: pending → in_progress → {completed, failed}.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Task is one unit of agent work. Content describes the work, ActiveForm is
// the present-progressive phrasing shown while the task runs ("Navigating to
// GitHub"). StrategiesTried is an append-only log of strategy identifiers
// attempted against this task, in any state.
//
// Transitions are mutex-guarded so no two callers can race the same task
// through conflicting status changes.
type Task struct {
	mu sync.Mutex

	id         string
	content    string
	activeForm string
	status     Status
	attempts   int
	strategies []string
}

// New creates a pending task with a fresh ID.
func New(content, activeForm string) *Task {
	return &Task{
		id:         uuid.NewString(),
		content:    content,
		activeForm: activeForm,
		status:     StatusPending,
	}
}

// ID returns the task's unique identifier.
func (t *Task) ID() string { return t.id }

// Content returns the immutable work description.
func (t *Task) Content() string { return t.content }

// ActiveForm returns the immutable in-progress description.
func (t *Task) ActiveForm() string { return t.activeForm }

// Status returns the current lifecycle state.
func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Attempts returns how many times the task has entered in_progress.
func (t *Task) Attempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts
}

// MarkInProgress moves a pending task to in_progress and bumps the attempt
// counter. Any other starting state fails with ErrInvalidTransition.
func (t *Task) MarkInProgress() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusPending {
		return fmt.Errorf("%w: cannot start from %s", ErrInvalidTransition, t.status)
	}
	t.status = StatusInProgress
	t.attempts++
	return nil
}

// MarkCompleted moves an in_progress task to completed.
func (t *Task) MarkCompleted() error {
	return t.finish(StatusCompleted)
}

// MarkFailed moves an in_progress task to failed.
func (t *Task) MarkFailed() error {
	return t.finish(StatusFailed)
}

func (t *Task) finish(terminal Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusInProgress {
		return fmt.Errorf("%w: cannot move %s → %s", ErrInvalidTransition, t.status, terminal)
	}
	t.status = terminal
	return nil
}

// RecordStrategy appends a strategy identifier to the attempt log.
// Allowed in any state: it is a log of attempts, not a guarded transition.
func (t *Task) RecordStrategy(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.strategies = append(t.strategies, name)
}

// StrategiesTried returns a copy of the strategy attempt log.
func (t *Task) StrategiesTried() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := make([]string, len(t.strategies))
	copy(cp, t.strategies)
	return cp
}
