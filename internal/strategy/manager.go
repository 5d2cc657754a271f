package strategy

import (
	"fmt"
	"sync"
	"time"
)

// Manager holds one selector per domain ("search", "navigation", ...) plus
// global execution counters across all domains.
type Manager struct {
	mu        sync.RWMutex
	selectors map[string]*Selector

	totalExecutions int
	totalSuccesses  int
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{selectors: make(map[string]*Selector)}
}

// NewManagerFromCatalog creates a manager with one selector per catalog
// category (search, navigation, interaction).
func NewManagerFromCatalog() *Manager {
	m := NewManager()
	for domain, strategies := range Catalog() {
		m.Register(domain, strategies)
	}
	return m
}

// Register adds a selector for a domain, replacing any existing one.
func (m *Manager) Register(domain string, strategies []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selectors[domain] = NewSelector(strategies)
}

// Select picks a strategy for the domain.
func (m *Manager) Select(domain string, ctx Context, exclude ...string) (string, error) {
	m.mu.RLock()
	sel, ok := m.selectors[domain]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("no selector registered for domain %q", domain)
	}
	return sel.Select(ctx, exclude...), nil
}

// RecordOutcome records a result against the domain's selector and updates
// the global counters. Unknown domains are a no-op.
func (m *Manager) RecordOutcome(domain, strategy string, success bool, duration time.Duration) {
	m.mu.Lock()
	sel, ok := m.selectors[domain]
	if ok {
		m.totalExecutions++
		if success {
			m.totalSuccesses++
		}
	}
	m.mu.Unlock()
	if ok {
		sel.RecordOutcome(strategy, success, duration)
	}
}

// Stats returns the global execution and success counts.
func (m *Manager) Stats() (executions, successes int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalExecutions, m.totalSuccesses
}

// Selector returns the selector for a domain, or nil.
func (m *Manager) Selector(domain string) *Selector {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectors[domain]
}
