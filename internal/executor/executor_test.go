package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecuteParallel_AllSucceed(t *testing.T) {
	e := New(3)
	jobs := []Job{
		{ID: "a", Run: func(ctx context.Context) (any, error) { return 1, nil }},
		{ID: "b", Run: func(ctx context.Context) (any, error) { return 2, nil }},
		{ID: "c", Run: func(ctx context.Context) (any, error) { return 3, nil }},
	}
	results, err := e.ExecuteParallel(context.Background(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, id := range []string{"a", "b", "c"} {
		r := results[id]
		if r.Err != nil || r.Skipped {
			t.Errorf("job %s: unexpected failure %+v", id, r)
		}
		if r.Attempts != 1 {
			t.Errorf("job %s: expected 1 attempt, got %d", id, r.Attempts)
		}
	}
}

func TestExecuteParallel_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	e := New(1)
	jobs := []Job{{
		ID:         "flaky",
		Retries:    3,
		RetryDelay: time.Millisecond,
		Run: func(ctx context.Context) (any, error) {
			if calls.Add(1) < 3 {
				return nil, errors.New("transient")
			}
			return "ok", nil
		},
	}}
	results, err := e.ExecuteParallel(context.Background(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := results["flaky"]
	if r.Err != nil {
		t.Fatalf("expected eventual success, got %v", r.Err)
	}
	if r.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", r.Attempts)
	}
}

func TestExecuteParallel_FailureIsolated(t *testing.T) {
	e := New(2)
	boom := errors.New("boom")
	jobs := []Job{
		{ID: "bad", Retries: 1, RetryDelay: time.Millisecond,
			Run: func(ctx context.Context) (any, error) { return nil, boom }},
		{ID: "good", Run: func(ctx context.Context) (any, error) { return "fine", nil }},
	}
	results, err := e.ExecuteParallel(context.Background(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(results["bad"].Err, boom) {
		t.Errorf("expected boom, got %v", results["bad"].Err)
	}
	if results["good"].Err != nil {
		t.Errorf("unrelated job affected: %v", results["good"].Err)
	}
}

func TestExecuteParallel_DependencyOrderAndSkip(t *testing.T) {
	e := New(4)
	var order []string
	var mu sync.Mutex
	record := func(id string) {
		mu.Lock()
		order = append(order, id)
		mu.Unlock()
	}

	jobs := []Job{
		{ID: "fetch", Run: func(ctx context.Context) (any, error) { record("fetch"); return nil, nil }},
		{ID: "parse", DependsOn: []string{"fetch"},
			Run: func(ctx context.Context) (any, error) { record("parse"); return nil, nil }},
		{ID: "broken", Retries: 1, RetryDelay: time.Millisecond,
			Run: func(ctx context.Context) (any, error) { return nil, errors.New("nope") }},
		{ID: "dependent", DependsOn: []string{"broken"},
			Run: func(ctx context.Context) (any, error) { record("dependent"); return nil, nil }},
	}
	results, err := e.ExecuteParallel(context.Background(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "fetch" || order[1] != "parse" {
		t.Errorf("expected fetch before parse and no dependent run, got %v", order)
	}
	r := results["dependent"]
	if !r.Skipped || !errors.Is(r.Err, ErrDependencyFailed) {
		t.Errorf("expected dependent skipped with ErrDependencyFailed, got %+v", r)
	}
}

func TestExecuteParallel_PriorityOrder(t *testing.T) {
	e := New(1) // serial: priority order is observable
	var order []string
	var mu sync.Mutex
	mk := func(id string, prio int) Job {
		return Job{ID: id, Priority: prio, Run: func(ctx context.Context) (any, error) {
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			return nil, nil
		}}
	}
	_, err := e.ExecuteParallel(context.Background(), []Job{mk("low", 1), mk("high", 9), mk("mid", 5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"high", "mid", "low"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestExecuteParallel_Timeout(t *testing.T) {
	e := New(1)
	jobs := []Job{{
		ID:         "slow",
		Timeout:    20 * time.Millisecond,
		Retries:    1,
		RetryDelay: time.Millisecond,
		Run: func(ctx context.Context) (any, error) {
			select {
			case <-time.After(time.Second):
				return "too late", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}}
	results, err := e.ExecuteParallel(context.Background(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(results["slow"].Err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", results["slow"].Err)
	}
}

func TestExecuteParallel_CycleDetected(t *testing.T) {
	e := New(2)
	jobs := []Job{
		{ID: "a", DependsOn: []string{"b"}, Run: func(ctx context.Context) (any, error) { return nil, nil }},
		{ID: "b", DependsOn: []string{"a"}, Run: func(ctx context.Context) (any, error) { return nil, nil }},
	}
	results, err := e.ExecuteParallel(context.Background(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, id := range []string{"a", "b"} {
		if !errors.Is(results[id].Err, ErrDependencyCycle) || !results[id].Skipped {
			t.Errorf("job %s: expected cycle skip, got %+v", id, results[id])
		}
	}
}

func TestExecuteParallel_InvalidInput(t *testing.T) {
	e := New(2)
	if _, err := e.ExecuteParallel(context.Background(), []Job{{ID: "x"}}); err == nil {
		t.Error("expected error for nil Run")
	}
	ok := func(ctx context.Context) (any, error) { return nil, nil }
	if _, err := e.ExecuteParallel(context.Background(), []Job{{ID: "x", Run: ok}, {ID: "x", Run: ok}}); err == nil {
		t.Error("expected error for duplicate IDs")
	}
}

func TestExecuteParallel_ConcurrencyBounded(t *testing.T) {
	e := New(2)
	var inFlight, peak atomic.Int32
	mk := func(id string) Job {
		return Job{ID: id, Run: func(ctx context.Context) (any, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			inFlight.Add(-1)
			return nil, nil
		}}
	}
	_, err := e.ExecuteParallel(context.Background(), []Job{mk("a"), mk("b"), mk("c"), mk("d")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak.Load() > 2 {
		t.Errorf("concurrency cap violated: peak %d", peak.Load())
	}
}
