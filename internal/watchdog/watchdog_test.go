package watchdog

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRunChecks_RecordsLatestStatus(t *testing.T) {
	w := New(time.Hour) // never ticks during the test
	healthy := atomic.Bool{}
	healthy.Store(true)
	w.RegisterCheck("budget", func() bool { return healthy.Load() })
	w.RegisterCheck("errors", func() bool { return true })

	w.RunChecks()
	r := w.Report()
	if !r.OverallHealthy {
		t.Error("all checks pass, report should be healthy")
	}
	if len(r.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(r.Components))
	}

	healthy.Store(false)
	w.RunChecks()
	r = w.Report()
	if r.OverallHealthy {
		t.Error("failing check should flip overall health")
	}
	if r.Components["budget"].Healthy {
		t.Error("budget component should be unhealthy")
	}
	if !r.Components["errors"].Healthy {
		t.Error("errors component should stay healthy")
	}
}

func TestRunChecks_PanicContained(t *testing.T) {
	w := New(time.Hour)
	w.RegisterCheck("explosive", func() bool { panic("kaboom") })
	w.RunChecks() // must not propagate
	r := w.Report()
	if r.OverallHealthy {
		t.Error("panicking check should report unhealthy")
	}
	if r.Components["explosive"].Message == "" {
		t.Error("panic message should be recorded")
	}
}

func TestReport_EmptyIsHealthy(t *testing.T) {
	w := New(time.Hour)
	if !w.Report().OverallHealthy {
		t.Error("empty report should be healthy")
	}
}

func TestStartAndClose(t *testing.T) {
	w := New(5 * time.Millisecond)
	var runs atomic.Int32
	w.RegisterCheck("tick", func() bool { runs.Add(1); return true })
	w.Start()
	w.Start() // second Start is a no-op

	deadline := time.After(time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("background loop never ran checks")
		case <-time.After(time.Millisecond):
		}
	}
	w.Close()

	// After Close, the loop must stop.
	settled := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runs.Load() > settled+1 {
		t.Error("checks kept running after Close")
	}
}

func TestHistory_Bounded(t *testing.T) {
	w := New(time.Hour)
	w.RegisterCheck("noisy", func() bool { return true })
	for i := 0; i < maxHistory+50; i++ {
		w.RunChecks()
	}
	w.mu.Lock()
	n := len(w.history)
	w.mu.Unlock()
	if n > maxHistory {
		t.Errorf("history unbounded: %d entries", n)
	}
}
