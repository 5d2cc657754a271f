// Package strategy provides the multi-approach catalogs, the backtracking
// predicate, and performance-based strategy selection.
package strategy

// DefaultBacktrackThreshold is the attempt count at which backtracking
// triggers. Distinct from the agent's retry ceiling: backtracking abandons
// the current approach, retrying picks the next strategy for it.
const DefaultBacktrackThreshold = 3

// Strategy catalogs by category. Identifiers are stable: they appear in
// task strategy logs and persisted selector state.
var (
	SearchStrategies = []string{
		"direct_search",
		"filtered_search",
		"category_navigation",
		"advanced_filters",
		"alternative_keywords",
	}
	NavigationStrategies = []string{
		"direct_link",
		"menu_navigation",
		"breadcrumb_path",
		"search_and_click",
		"url_manipulation",
	}
	InteractionStrategies = []string{
		"click",
		"form_fill",
		"search",
		"scroll",
		"wait",
		"navigate",
	}
)

// Catalog maps category names to their strategy lists.
func Catalog() map[string][]string {
	return map[string][]string{
		"search":      append([]string(nil), SearchStrategies...),
		"navigation":  append([]string(nil), NavigationStrategies...),
		"interaction": append([]string(nil), InteractionStrategies...),
	}
}

// Engine decides when to abandon the current approach.
type Engine struct {
	backtrackThreshold int
}

// NewEngine creates an engine with the given backtrack ceiling.
// Non-positive values fall back to the default of 3.
func NewEngine(backtrackThreshold int) *Engine {
	if backtrackThreshold <= 0 {
		backtrackThreshold = DefaultBacktrackThreshold
	}
	return &Engine{backtrackThreshold: backtrackThreshold}
}

// ShouldBacktrack reports whether enough consecutive same-category failures
// have accumulated to abandon the current approach.
func (e *Engine) ShouldBacktrack(attempts int) bool {
	return attempts >= e.backtrackThreshold
}
