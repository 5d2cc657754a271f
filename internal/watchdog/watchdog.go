// Package watchdog runs registered health checks on an interval and keeps a
// bounded status history for reporting.
package watchdog

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// DefaultInterval between check sweeps.
const DefaultInterval = 30 * time.Second

// maxHistory bounds the retained status entries.
const maxHistory = 256

// CheckFunc reports whether a component is healthy.
type CheckFunc func() bool

// Status is one health-check observation.
type Status struct {
	Component string    `json:"component"`
	Healthy   bool      `json:"healthy"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ComponentHealth is the latest observation for one component.
type ComponentHealth struct {
	Healthy   bool      `json:"healthy"`
	Message   string    `json:"message"`
	LastCheck time.Time `json:"last_check"`
}

// Report aggregates the most recent observation per component.
type Report struct {
	OverallHealthy bool                       `json:"overall_healthy"`
	Components     map[string]ComponentHealth `json:"components"`
}

// Watchdog monitors agent health. Checks run in a background goroutine
// started by Start; Close stops it. A panicking check is recorded as
// unhealthy, never propagated.
type Watchdog struct {
	mu       sync.Mutex
	interval time.Duration
	checks   map[string]CheckFunc
	history  []Status
	done     chan struct{}
	running  bool
}

// New creates a watchdog. Non-positive intervals fall back to the default.
func New(interval time.Duration) *Watchdog {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watchdog{
		interval: interval,
		checks:   make(map[string]CheckFunc),
		done:     make(chan struct{}),
	}
}

// RegisterCheck adds a named health check. Replacing an existing name is
// allowed; the history keeps both generations' observations.
func (w *Watchdog) RegisterCheck(name string, fn CheckFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.checks[name] = fn
	log.Printf("[Watchdog] Health check registered: %s", name)
}

// Start launches the background monitor loop. Calling Start twice is a no-op.
func (w *Watchdog) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.monitorLoop()
	log.Printf("[Watchdog] Started (interval %v)", w.interval)
}

// Close stops the monitor loop. Safe to call once.
func (w *Watchdog) Close() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()
	if wasRunning {
		close(w.done)
		log.Printf("[Watchdog] Stopped")
	}
}

func (w *Watchdog) monitorLoop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.RunChecks()
		case <-w.done:
			return
		}
	}
}

// RunChecks executes every registered check once and records the results.
// Exported so callers (and tests) can force a sweep without waiting a tick.
func (w *Watchdog) RunChecks() {
	w.mu.Lock()
	checks := make(map[string]CheckFunc, len(w.checks))
	for name, fn := range w.checks {
		checks[name] = fn
	}
	w.mu.Unlock()

	now := time.Now()
	for name, fn := range checks {
		healthy, msg := runCheck(fn)
		if !healthy {
			log.Printf("[Watchdog] Health check failed: %s (%s)", name, msg)
		}
		w.record(Status{Component: name, Healthy: healthy, Message: msg, Timestamp: now})
	}
}

// runCheck executes one check with panic containment.
func runCheck(fn CheckFunc) (healthy bool, msg string) {
	defer func() {
		if r := recover(); r != nil {
			healthy = false
			msg = fmt.Sprintf("check panicked: %v", r)
		}
	}()
	if fn() {
		return true, "OK"
	}
	return false, "check failed"
}

func (w *Watchdog) record(s Status) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.history = append(w.history, s)
	if len(w.history) > maxHistory {
		w.history = w.history[len(w.history)-maxHistory:]
	}
}

// Report returns the latest observation per component. A component with no
// observation yet is absent. Overall health is the AND of all latest entries;
// an empty report is healthy.
func (w *Watchdog) Report() Report {
	w.mu.Lock()
	defer w.mu.Unlock()

	components := make(map[string]ComponentHealth)
	for i := len(w.history) - 1; i >= 0; i-- {
		s := w.history[i]
		if _, seen := components[s.Component]; seen {
			continue
		}
		components[s.Component] = ComponentHealth{
			Healthy:   s.Healthy,
			Message:   s.Message,
			LastCheck: s.Timestamp,
		}
	}

	overall := true
	for _, c := range components {
		if !c.Healthy {
			overall = false
			break
		}
	}
	return Report{OverallHealthy: overall, Components: components}
}
