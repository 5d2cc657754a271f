package task

import (
	"errors"
	"testing"
)

func TestNew_StartsPending(t *testing.T) {
	tk := New("Navigate to GitHub", "Navigating to GitHub")
	if tk.Status() != StatusPending {
		t.Errorf("expected pending, got %s", tk.Status())
	}
	if tk.Attempts() != 0 {
		t.Errorf("expected 0 attempts, got %d", tk.Attempts())
	}
	if tk.ID() == "" {
		t.Error("expected non-empty ID")
	}
	if tk.Content() != "Navigate to GitHub" || tk.ActiveForm() != "Navigating to GitHub" {
		t.Error("content/active form not preserved")
	}
}

func TestLifecycle_HappyPath(t *testing.T) {
	tk := New("task", "working")
	if err := tk.MarkInProgress(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tk.Status() != StatusInProgress {
		t.Fatalf("expected in_progress, got %s", tk.Status())
	}
	if tk.Attempts() != 1 {
		t.Errorf("expected 1 attempt, got %d", tk.Attempts())
	}
	if err := tk.MarkCompleted(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tk.Status() != StatusCompleted {
		t.Errorf("expected completed, got %s", tk.Status())
	}
}

func TestMarkCompleted_FromPendingFails(t *testing.T) {
	tk := New("task", "")
	err := tk.MarkCompleted()
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if tk.Status() != StatusPending {
		t.Errorf("failed transition mutated status: %s", tk.Status())
	}
}

func TestTerminalStatesAreFinal(t *testing.T) {
	for _, finish := range []struct {
		name string
		mark func(*Task) error
	}{
		{"completed", (*Task).MarkCompleted},
		{"failed", (*Task).MarkFailed},
	} {
		t.Run(finish.name, func(t *testing.T) {
			tk := New("task", "")
			tk.MarkInProgress()
			if err := finish.mark(tk); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := tk.MarkInProgress(); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("restart from terminal state should fail, got %v", err)
			}
			if err := tk.MarkCompleted(); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("complete from terminal state should fail, got %v", err)
			}
			if err := tk.MarkFailed(); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("fail from terminal state should fail, got %v", err)
			}
		})
	}
}

func TestMarkInProgress_Twice(t *testing.T) {
	tk := New("task", "")
	tk.MarkInProgress()
	if err := tk.MarkInProgress(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if tk.Attempts() != 1 {
		t.Errorf("failed transition bumped attempts: %d", tk.Attempts())
	}
}

func TestRecordStrategy_AnyState(t *testing.T) {
	tk := New("task", "")
	tk.RecordStrategy("direct_search")
	tk.MarkInProgress()
	tk.RecordStrategy("filtered_search")
	tk.MarkFailed()
	tk.RecordStrategy("category_navigation")

	got := tk.StrategiesTried()
	want := []string{"direct_search", "filtered_search", "category_navigation"}
	if len(got) != len(want) {
		t.Fatalf("expected %d strategies, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("strategy %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	// Returned slice is a copy.
	got[0] = "mutated"
	if tk.StrategiesTried()[0] != "direct_search" {
		t.Error("StrategiesTried returned internal slice, not a copy")
	}
}
