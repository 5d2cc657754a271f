package agent

import (
	"fmt"
	"sync"
	"time"

	"github.com/advagent/advagent/internal/budget"
	"github.com/advagent/advagent/internal/task"
)

// Default ceilings, overridable via NewWithLimits.
const (
	DefaultMaxValidationErrors = 5
	DefaultMaxRetryAttempts    = 5
)

// HistoryEntry is one append-only execution record. TokenUsed captures the
// budget counter at record time, so the history doubles as a consumption
// timeline.
type HistoryEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	TokenUsed int64          `json:"token_used"`
}

// Summary counts tasks by lifecycle state.
type Summary struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Agent owns a token budget, an ordered task list, a validation-error counter
// and the execution history. It aggregates state into reports; it does not
// execute tasks itself — callers (or an executor) drive each task through its
// lifecycle and feed consumption back via the budget.
type Agent struct {
	mu sync.RWMutex

	budget              *budget.TokenBudget
	tasks               []*task.Task
	history             []HistoryEntry
	validationErrors    int
	maxValidationErrors int
	maxRetryAttempts    int

	execLog *ExecLogger // nil = no file mirroring
}

// New creates an agent with the default validation-error and retry ceilings.
func New(b *budget.TokenBudget) *Agent {
	return NewWithLimits(b, DefaultMaxValidationErrors, DefaultMaxRetryAttempts)
}

// NewWithLimits creates an agent with explicit ceilings.
// Non-positive ceilings fall back to the defaults.
func NewWithLimits(b *budget.TokenBudget, maxValidationErrors, maxRetryAttempts int) *Agent {
	if maxValidationErrors <= 0 {
		maxValidationErrors = DefaultMaxValidationErrors
	}
	if maxRetryAttempts <= 0 {
		maxRetryAttempts = DefaultMaxRetryAttempts
	}
	return &Agent{
		budget:              b,
		maxValidationErrors: maxValidationErrors,
		maxRetryAttempts:    maxRetryAttempts,
	}
}

// Budget returns the owned token budget.
func (a *Agent) Budget() *budget.TokenBudget { return a.budget }

// SetExecLog attaches a file logger that mirrors RecordExecution entries.
func (a *Agent) SetExecLog(l *ExecLogger) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.execLog = l
}

// AddTask appends a new pending task and returns it for the caller to drive.
func (a *Agent) AddTask(content, activeForm string) *task.Task {
	t := task.New(content, activeForm)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tasks = append(a.tasks, t)
	return t
}

// Tasks returns the task list in insertion order.
// The slice is a copy; the tasks themselves are shared.
func (a *Agent) Tasks() []*task.Task {
	a.mu.RLock()
	defer a.mu.RUnlock()
	cp := make([]*task.Task, len(a.tasks))
	copy(cp, a.tasks)
	return cp
}

// PendingTasks returns tasks still waiting to start, in insertion order.
func (a *Agent) PendingTasks() []*task.Task {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var pending []*task.Task
	for _, t := range a.tasks {
		if t.Status() == task.StatusPending {
			pending = append(pending, t)
		}
	}
	return pending
}

// TaskSummary counts tasks by status. O(len(tasks)).
func (a *Agent) TaskSummary() Summary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s := Summary{Total: len(a.tasks)}
	for _, t := range a.tasks {
		switch t.Status() {
		case task.StatusPending:
			s.Pending++
		case task.StatusInProgress:
			s.InProgress++
		case task.StatusCompleted:
			s.Completed++
		case task.StatusFailed:
			s.Failed++
		}
	}
	return s
}

// RecordExecution appends an entry to the execution history, stamped with the
// current time and token usage. Details shape is not validated.
func (a *Agent) RecordExecution(action string, details map[string]any) {
	entry := HistoryEntry{
		Timestamp: time.Now(),
		Action:    action,
		Details:   details,
		TokenUsed: a.budget.Used(),
	}
	a.mu.Lock()
	a.history = append(a.history, entry)
	execLog := a.execLog
	a.mu.Unlock()

	if execLog != nil {
		execLog.LogEntry(entry)
	}
}

// History returns a copy of the execution history.
func (a *Agent) History() []HistoryEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	cp := make([]HistoryEntry, len(a.history))
	copy(cp, a.history)
	return cp
}

// HandleValidationError bumps the validation-error counter.
// Returns true while the caller may keep going, false once the ceiling is
// reached — a halt signal, never a crash.
func (a *Agent) HandleValidationError() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.validationErrors++
	return a.validationErrors < a.maxValidationErrors
}

// ValidationErrors returns the current counter and its ceiling.
func (a *Agent) ValidationErrors() (count, max int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.validationErrors, a.maxValidationErrors
}

// ShouldTryAlternativeStrategy reports whether another strategy is worth
// attempting on the task. The signal is the strategy attempt log: once
// maxRetryAttempts distinct attempts have been recorded, give up.
func (a *Agent) ShouldTryAlternativeStrategy(t *task.Task) bool {
	return len(t.StrategiesTried()) < a.maxRetryAttempts
}

// ShouldOptimizeOutput reports whether callers should reduce verbosity:
// true once budget usage crosses the warning threshold. The agent only
// signals policy; it never alters output itself.
func (a *Agent) ShouldOptimizeOutput() bool {
	return a.budget.Status() != budget.StatusOK
}

// GenerateReport renders the execution report. Output is byte-stable for
// identical state, so it can be golden-tested.
func (a *Agent) GenerateReport() string {
	summary := a.TaskSummary()
	errs, maxErrs := a.ValidationErrors()
	a.mu.RLock()
	steps := len(a.history)
	a.mu.RUnlock()

	return fmt.Sprintf(`=== Agent Execution Report ===
Token Budget: %s
Tasks: %d/%d completed
Validation Errors: %d/%d
Execution Steps: %d
`, a.budget.StatusLine(), summary.Completed, summary.Total, errs, maxErrs, steps)
}
