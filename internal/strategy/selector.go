package strategy

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// Performance tracks outcome statistics for one strategy.
type Performance struct {
	Strategy      string        `json:"strategy"`
	SuccessCount  int           `json:"success_count"`
	FailureCount  int           `json:"failure_count"`
	TotalDuration time.Duration `json:"total_duration"`
}

// SuccessRate returns successes over total attempts; 0 for an untried strategy.
func (p Performance) SuccessRate() float64 {
	total := p.SuccessCount + p.FailureCount
	if total == 0 {
		return 0
	}
	return float64(p.SuccessCount) / float64(total)
}

// AvgDuration returns the mean execution duration; 0 for an untried strategy.
func (p Performance) AvgDuration() time.Duration {
	total := p.SuccessCount + p.FailureCount
	if total == 0 {
		return 0
	}
	return p.TotalDuration / time.Duration(total)
}

// Context carries the execution situation a selection is made in.
// PreviousStrategy/PreviousFailed drive the diversity and penalty terms.
type Context struct {
	TaskType         string
	PreviousStrategy string
	PreviousFailed   bool
}

// Selector picks strategies by historical performance. The composite score
// weighs success rate (0.6), speed (0.2) and diversity (0.2); a strategy
// that just failed is penalized to 30% of its score.
//
// Thread-safe via sync.Mutex; selection and outcome recording may arrive
// from concurrent executor workers.
type Selector struct {
	mu         sync.Mutex
	strategies []string
	perf       map[string]*Performance
}

// NewSelector creates a selector over a fixed strategy list.
func NewSelector(strategies []string) *Selector {
	perf := make(map[string]*Performance, len(strategies))
	for _, s := range strategies {
		perf[s] = &Performance{Strategy: s}
	}
	return &Selector{
		strategies: append([]string(nil), strategies...),
		perf:       perf,
	}
}

// Select returns the best strategy for the context, skipping excluded ones.
// If every strategy is excluded, the first catalog entry is returned so
// callers always get something actionable. An empty catalog yields "".
func (s *Selector) Select(ctx Context, exclude ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.strategies) == 0 {
		log.Printf("[Strategy] WARNING: selecting from an empty catalog")
		return ""
	}

	excluded := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		excluded[e] = true
	}

	best := ""
	bestScore := -1.0
	for _, name := range s.strategies {
		if excluded[name] {
			continue
		}
		score := s.score(name, ctx)
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	if best == "" {
		log.Printf("[Strategy] WARNING: all strategies excluded, falling back to %q", s.strategies[0])
		return s.strategies[0]
	}
	return best
}

// score computes the composite selection score. Caller holds the lock.
func (s *Selector) score(name string, ctx Context) float64 {
	p := s.perf[name]

	diversity := 1.0
	if name == ctx.PreviousStrategy {
		diversity = 0.5
	}
	score := p.SuccessRate()*0.6 +
		(1.0/(p.AvgDuration().Seconds()+0.1))*0.2 +
		diversity*0.2

	// Repeating the strategy that just failed is almost never right.
	if ctx.PreviousFailed && name == ctx.PreviousStrategy {
		score *= 0.3
	}
	return score
}

// RecordOutcome folds one execution result into the strategy's statistics.
// Unknown strategies are ignored with a warning rather than tracked, so a
// typo cannot grow the catalog.
func (s *Selector) RecordOutcome(strategy string, success bool, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.perf[strategy]
	if !ok {
		log.Printf("[Strategy] WARNING: outcome for unknown strategy %q dropped", strategy)
		return
	}
	if success {
		p.SuccessCount++
	} else {
		p.FailureCount++
	}
	p.TotalDuration += duration
}

// Report returns a copy of the per-strategy statistics, in catalog order.
func (s *Selector) Report() []Performance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Performance, 0, len(s.strategies))
	for _, name := range s.strategies {
		out = append(out, *s.perf[name])
	}
	return out
}

// selectorState is the persisted form of a Selector.
type selectorState struct {
	Strategies []string       `json:"strategies"`
	Perf       []*Performance `json:"performance"`
}

// Save writes the selector state as JSON. The write goes through a temp file
// and rename so a crash cannot leave a half-written state file.
func (s *Selector) Save(path string) error {
	s.mu.Lock()
	state := selectorState{Strategies: append([]string(nil), s.strategies...)}
	for _, name := range s.strategies {
		p := *s.perf[name]
		state.Perf = append(state.Perf, &p)
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal selector state: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write selector state: %w", err)
	}
	return os.Rename(tmp, path)
}

// Load replaces the selector state from a JSON file written by Save.
func (s *Selector) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read selector state: %w", err)
	}
	var state selectorState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("parse selector state: %w", err)
	}
	if len(state.Strategies) == 0 {
		return fmt.Errorf("selector state %s has no strategies", path)
	}

	perf := make(map[string]*Performance, len(state.Strategies))
	for _, name := range state.Strategies {
		perf[name] = &Performance{Strategy: name}
	}
	for _, p := range state.Perf {
		if _, ok := perf[p.Strategy]; ok {
			cp := *p
			perf[p.Strategy] = &cp
		}
	}

	s.mu.Lock()
	s.strategies = state.Strategies
	s.perf = perf
	s.mu.Unlock()
	return nil
}
