package budget

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Default thresholds, overridable via NewWithThresholds.
const (
	DefaultWarningThreshold  = 0.7
	DefaultCriticalThreshold = 0.9
)

// Sentinel errors. Callers match with errors.Is; the returned errors carry
// the offending values via %w wrapping.
var (
	ErrInvalidConfig = errors.New("invalid budget configuration")
	ErrInvalidDelta  = errors.New("negative token delta")
	ErrOverBudget    = errors.New("token budget exceeded")
)

// Status classifies budget consumption against the configured thresholds.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusCritical
)

// String returns the report-facing label for the status.
func (s Status) String() string {
	switch s {
	case StatusWarning:
		return "WARNING"
	case StatusCritical:
		return "CRITICAL"
	default:
		return "OK"
	}
}

// TokenBudget tracks token consumption against a fixed total.
// Update uses an atomic counter, so concurrent recorders are safe; all other
// accessors are pure reads computed from the counter.
//
// Overrun policy: used may exceed total. Update keeps recording past the
// limit and returns ErrOverBudget as the signal, so UsageRatio above 1.0
// reflects the real overrun instead of a clamped value.
type TokenBudget struct {
	total    int64
	warning  float64
	critical float64
	used     atomic.Int64
}

// Snapshot is a point-in-time read of the budget state.
// Remaining goes negative once the budget is overrun.
type Snapshot struct {
	Status     Status  `json:"status"`
	Used       int64   `json:"used"`
	Remaining  int64   `json:"remaining"`
	UsageRatio float64 `json:"usage_ratio"`
}

// New creates a budget with the default 0.7/0.9 thresholds.
func New(total int64) (*TokenBudget, error) {
	return NewWithThresholds(total, DefaultWarningThreshold, DefaultCriticalThreshold)
}

// NewWithThresholds creates a budget with explicit thresholds.
// Requires total > 0 and 0 < warning < critical <= 1.0.
func NewWithThresholds(total int64, warning, critical float64) (*TokenBudget, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: total must be positive, got %d", ErrInvalidConfig, total)
	}
	if warning <= 0 || warning >= critical || critical > 1.0 {
		return nil, fmt.Errorf("%w: need 0 < warning (%v) < critical (%v) <= 1.0",
			ErrInvalidConfig, warning, critical)
	}
	return &TokenBudget{total: total, warning: warning, critical: critical}, nil
}

// Update adds delta tokens to the running total.
// Negative deltas are rejected with ErrInvalidDelta and leave used unchanged.
// Once the running total passes the budget, every Update returns ErrOverBudget
// (consumption is still recorded — see the overrun policy above).
func (b *TokenBudget) Update(delta int64) error {
	if delta < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDelta, delta)
	}
	used := b.used.Add(delta)
	if used > b.total {
		return fmt.Errorf("%w: used %d / limit %d", ErrOverBudget, used, b.total)
	}
	return nil
}

// Total returns the fixed budget total.
func (b *TokenBudget) Total() int64 { return b.total }

// Used returns the tokens consumed so far.
func (b *TokenBudget) Used() int64 { return b.used.Load() }

// Remaining returns total - used. Negative when overrun.
func (b *TokenBudget) Remaining() int64 { return b.total - b.used.Load() }

// UsageRatio returns used/total, recomputed on each call. May exceed 1.0.
func (b *TokenBudget) UsageRatio() float64 {
	return float64(b.used.Load()) / float64(b.total)
}

// Status classifies the current usage ratio.
func (b *TokenBudget) Status() Status {
	ratio := b.UsageRatio()
	switch {
	case ratio >= b.critical:
		return StatusCritical
	case ratio >= b.warning:
		return StatusWarning
	default:
		return StatusOK
	}
}

// Snapshot returns a consistent read of the budget state.
// The fields are derived from a single load of the counter, so a Snapshot
// never mixes values from two interleaved updates.
func (b *TokenBudget) Snapshot() Snapshot {
	used := b.used.Load()
	ratio := float64(used) / float64(b.total)
	st := StatusOK
	switch {
	case ratio >= b.critical:
		st = StatusCritical
	case ratio >= b.warning:
		st = StatusWarning
	}
	return Snapshot{
		Status:     st,
		Used:       used,
		Remaining:  b.total - used,
		UsageRatio: ratio,
	}
}

// StatusLine renders the budget for the execution report,
// e.g. "WARNING: 50000 tokens remaining".
func (b *TokenBudget) StatusLine() string {
	s := b.Snapshot()
	return fmt.Sprintf("%s: %d tokens remaining", s.Status, s.Remaining)
}
