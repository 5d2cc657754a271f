// Package plugin provides the capability interface and lifecycle manager for
// host extensions. Plugin failures are contained: a panicking or erroring
// plugin is reported to the caller, never allowed to crash the host agent.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
)

// Lifecycle errors.
var (
	ErrNotFound   = errors.New("plugin not found")
	ErrNotEnabled = errors.New("plugin not enabled")
)

// Plugin is the capability interface host extensions implement.
type Plugin interface {
	Name() string
	Version() string
	// Init prepares the plugin with its configuration before first use.
	Init(config map[string]any) error
	// Execute runs the plugin against a context map and returns its result.
	Execute(ctx context.Context, pctx map[string]any) (any, error)
	// Close releases plugin resources. Called on Disable.
	Close() error
}

// Manager tracks registered plugins and their enabled state.
// Thread-safe via sync.RWMutex.
type Manager struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	enabled map[string]bool
}

// NewManager creates an empty plugin manager.
func NewManager() *Manager {
	return &Manager{
		plugins: make(map[string]Plugin),
		enabled: make(map[string]bool),
	}
}

// Register adds a plugin. If one with the same name already exists, it is
// overwritten and a warning is logged.
func (m *Manager) Register(p Plugin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.plugins[p.Name()]; exists {
		log.Printf("[Plugin] WARNING: overwriting existing plugin %q", p.Name())
	}
	m.plugins[p.Name()] = p
	log.Printf("[Plugin] Registered: %s v%s", p.Name(), p.Version())
}

// Enable initializes a registered plugin and marks it executable.
// A failing Init leaves the plugin registered but disabled.
func (m *Manager) Enable(name string, config map[string]any) error {
	m.mu.Lock()
	p, ok := m.plugins[name]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if err := safeInit(p, config); err != nil {
		return fmt.Errorf("init plugin %q: %w", name, err)
	}

	m.mu.Lock()
	m.enabled[name] = true
	m.mu.Unlock()
	log.Printf("[Plugin] Enabled: %s", name)
	return nil
}

// Execute runs an enabled plugin. Panics inside the plugin are recovered and
// returned as errors.
func (m *Manager) Execute(ctx context.Context, name string, pctx map[string]any) (result any, err error) {
	m.mu.RLock()
	p, registered := m.plugins[name]
	enabled := m.enabled[name]
	m.mu.RUnlock()

	if !registered {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if !enabled {
		return nil, fmt.Errorf("%w: %s", ErrNotEnabled, name)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Plugin] PANIC in %q: %v", name, r)
			err = fmt.Errorf("plugin %q panicked: %v", name, r)
		}
	}()
	return p.Execute(ctx, pctx)
}

// Disable closes an enabled plugin and removes it from the enabled set.
// Disabling a plugin that is not enabled is a no-op.
func (m *Manager) Disable(name string) {
	m.mu.Lock()
	p, ok := m.plugins[name]
	wasEnabled := m.enabled[name]
	delete(m.enabled, name)
	m.mu.Unlock()

	if !ok || !wasEnabled {
		return
	}
	if err := safeClose(p); err != nil {
		log.Printf("[Plugin] Error closing %s: %v", name, err)
	}
	log.Printf("[Plugin] Disabled: %s", name)
}

// DisableAll disables every enabled plugin (shutdown path).
func (m *Manager) DisableAll() {
	for _, name := range m.Enabled() {
		m.Disable(name)
	}
}

// Enabled returns the enabled plugin names, sorted.
func (m *Manager) Enabled() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.enabled))
	for name := range m.enabled {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// safeInit calls Init with panic containment.
func safeInit(p Plugin, config map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panicked: %v", r)
		}
	}()
	return p.Init(config)
}

// safeClose calls Close with panic containment.
func safeClose(p Plugin) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panicked: %v", r)
		}
	}()
	return p.Close()
}
