package telemetry

import (
	"fmt"
	"testing"
)

func TestCountersAndGauges(t *testing.T) {
	c := NewCollector(0)
	c.IncrCounter("tasks_completed", 1)
	c.IncrCounter("tasks_completed", 2)
	c.SetGauge("token_usage_ratio", 0.42)
	c.SetGauge("token_usage_ratio", 0.58) // overwrite

	if got := c.Counter("tasks_completed"); got != 3 {
		t.Errorf("expected counter 3, got %d", got)
	}
	counters, gauges := c.Snapshot()
	if counters["tasks_completed"] != 3 {
		t.Errorf("snapshot counter wrong: %d", counters["tasks_completed"])
	}
	if gauges["token_usage_ratio"] != 0.58 {
		t.Errorf("snapshot gauge wrong: %v", gauges["token_usage_ratio"])
	}

	// Snapshot maps are copies.
	counters["tasks_completed"] = 99
	if c.Counter("tasks_completed") != 3 {
		t.Error("Snapshot leaked the internal counter map")
	}
}

func TestRecordMetric_BoundedRing(t *testing.T) {
	c := NewCollector(10)
	for i := 0; i < 25; i++ {
		c.RecordMetric("task_duration", float64(i), nil)
	}
	d := c.Dashboard()
	if len(d.RecentMetrics) != 10 {
		t.Fatalf("expected 10 retained metrics, got %d", len(d.RecentMetrics))
	}
	// Oldest surviving sample is number 15.
	if d.RecentMetrics[0].Value != 15 {
		t.Errorf("expected oldest retained value 15, got %v", d.RecentMetrics[0].Value)
	}
	if d.RecentMetrics[9].Value != 24 {
		t.Errorf("expected newest value 24, got %v", d.RecentMetrics[9].Value)
	}
}

func TestDashboard_RecentCap(t *testing.T) {
	c := NewCollector(0) // default cap, far above the dashboard window
	for i := 0; i < dashboardRecent+20; i++ {
		c.RecordMetric("m", float64(i), map[string]string{"n": fmt.Sprint(i)})
	}
	d := c.Dashboard()
	if len(d.RecentMetrics) != dashboardRecent {
		t.Errorf("expected %d recent metrics, got %d", dashboardRecent, len(d.RecentMetrics))
	}
	if d.RecentMetrics[0].Value != 20 {
		t.Errorf("dashboard window misaligned: first value %v", d.RecentMetrics[0].Value)
	}
	if d.RecentMetrics[0].Tags["n"] != "20" {
		t.Errorf("tags lost: %v", d.RecentMetrics[0].Tags)
	}
}
