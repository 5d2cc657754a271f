// Package security provides input validation and output redaction for the
// agent. Validation is rule-based and fail-closed: a rule error or panic
// rejects the input and bumps the suspicious-activity counter.
package security

import (
	"log"
	"strings"
	"sync"
	"time"
)

// Rule inspects an input and reports whether it is acceptable.
type Rule func(input string) bool

// Validator runs ordered validation rules and redacts blocked patterns from
// outgoing text. Thread-safe.
type Validator struct {
	mu         sync.Mutex
	rules      []Rule
	blocked    []string
	suspicious int
	actions    map[string][]time.Time

	// now is swappable for tests.
	now func() time.Time
}

// NewValidator creates a validator with no rules and no blocked patterns.
// With no rules every input passes; with no patterns SanitizeOutput is a
// pass-through.
func NewValidator() *Validator {
	return &Validator{
		actions: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// AddRule appends a validation rule. Rules run in registration order.
func (v *Validator) AddRule(r Rule) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rules = append(v.rules, r)
}

// BlockPattern adds a literal substring to redact from output.
func (v *Validator) BlockPattern(pattern string) {
	if pattern == "" {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.blocked = append(v.blocked, pattern)
}

// ValidateInput runs every rule against the input. The first rejection (or
// panicking rule) fails the input and increments the suspicious counter.
func (v *Validator) ValidateInput(input string) bool {
	v.mu.Lock()
	rules := make([]Rule, len(v.rules))
	copy(rules, v.rules)
	v.mu.Unlock()

	for _, r := range rules {
		if !runRule(r, input) {
			v.mu.Lock()
			v.suspicious++
			v.mu.Unlock()
			log.Printf("[Security] Validation failed for input (%d bytes)", len(input))
			return false
		}
	}
	return true
}

// runRule executes one rule; a panic counts as rejection.
func runRule(r Rule, input string) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[Security] Validation rule panicked: %v", rec)
			ok = false
		}
	}()
	return r(input)
}

// CheckRateLimit reports whether another occurrence of action fits inside
// the sliding window. A denied occurrence is not recorded, so a burst cannot
// extend its own lockout.
func (v *Validator) CheckRateLimit(action string, limit int, window time.Duration) bool {
	if limit <= 0 {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	cutoff := now.Add(-window)
	kept := v.actions[action][:0]
	for _, ts := range v.actions[action] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= limit {
		v.actions[action] = kept
		log.Printf("[Security] Rate limit hit for %q (%d in %v)", action, len(kept), window)
		return false
	}
	v.actions[action] = append(kept, now)
	return true
}

// SanitizeOutput replaces every blocked pattern with "[REDACTED]".
func (v *Validator) SanitizeOutput(text string) string {
	v.mu.Lock()
	blocked := make([]string, len(v.blocked))
	copy(blocked, v.blocked)
	v.mu.Unlock()

	for _, pattern := range blocked {
		text = strings.ReplaceAll(text, pattern, "[REDACTED]")
	}
	return text
}

// SuspiciousActivity returns how many inputs have been rejected.
func (v *Validator) SuspiciousActivity() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.suspicious
}
