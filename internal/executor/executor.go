// Package executor runs jobs in parallel with bounded concurrency, priority
// ordering, per-job timeouts, retry-with-delay, and dependency gating.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"
)

// Defaults applied when a Job leaves the field zero.
const (
	DefaultMaxConcurrent = 10
	DefaultRetries       = 3
	DefaultRetryDelay    = time.Second
)

// ErrDependencyFailed marks jobs skipped because a dependency failed or was
// itself skipped.
var ErrDependencyFailed = errors.New("dependency failed")

// ErrDependencyCycle marks jobs whose dependencies can never be satisfied
// (cycle or reference to an unknown job).
var ErrDependencyCycle = errors.New("unsatisfiable dependencies")

// Job is one unit of parallel work.
type Job struct {
	ID         string
	Priority   int           // higher runs earlier among ready jobs
	Timeout    time.Duration // per-attempt timeout; 0 = none
	Retries    int           // total attempts; 0 = DefaultRetries
	RetryDelay time.Duration // pause between attempts; 0 = DefaultRetryDelay
	DependsOn  []string      // job IDs that must complete successfully first
	Run        func(ctx context.Context) (any, error)
}

// Result is the outcome of one job.
type Result struct {
	JobID    string
	Value    any
	Err      error
	Attempts int
	Skipped  bool // true when the job never ran (failed/cyclic dependency)
}

// Executor schedules jobs with bounded concurrency.
// One failed job never aborts the rest; only its dependents are skipped.
type Executor struct {
	maxConcurrent int
}

// New creates an executor. Non-positive concurrency falls back to the default.
func New(maxConcurrent int) *Executor {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Executor{maxConcurrent: maxConcurrent}
}

// ExecuteParallel runs all jobs and returns a result per job ID.
// Jobs become ready once every dependency has completed successfully; ready
// jobs start in priority order. Returns an error only for invalid input
// (duplicate IDs, nil Run); job failures are reported in the results.
func (e *Executor) ExecuteParallel(ctx context.Context, jobs []Job) (map[string]Result, error) {
	pending := make(map[string]Job, len(jobs))
	for _, j := range jobs {
		if j.Run == nil {
			return nil, fmt.Errorf("job %q has no Run func", j.ID)
		}
		if _, dup := pending[j.ID]; dup {
			return nil, fmt.Errorf("duplicate job ID %q", j.ID)
		}
		pending[j.ID] = j
	}

	results := make(map[string]Result, len(jobs))
	running := 0
	resultCh := make(chan Result)

	// succeeded/finished track dependency readiness separately from results,
	// which also accumulate skips.
	succeeded := make(map[string]bool, len(jobs))

	for len(pending) > 0 || running > 0 {
		// Skip jobs whose dependencies can no longer succeed.
		for id, j := range pending {
			if dep := e.failedDep(j, succeeded, results); dep != "" {
				results[id] = Result{
					JobID:   id,
					Err:     fmt.Errorf("%w: %s", ErrDependencyFailed, dep),
					Skipped: true,
				}
				delete(pending, id)
			}
		}

		// Launch ready jobs, highest priority first, up to the concurrency cap.
		ready := e.readyJobs(pending, succeeded)
		launched := 0
		for _, j := range ready {
			if running >= e.maxConcurrent {
				break
			}
			delete(pending, j.ID)
			running++
			launched++
			go func(j Job) {
				resultCh <- e.runJob(ctx, j)
			}(j)
		}

		if running > 0 {
			r := <-resultCh
			running--
			results[r.JobID] = r
			if r.Err == nil {
				succeeded[r.JobID] = true
			}
			continue
		}

		if launched == 0 && len(pending) > 0 {
			// Nothing running, nothing ready: the remaining jobs form a cycle
			// or depend on unknown IDs.
			for id := range pending {
				log.Printf("[Executor] WARNING: job %q has unsatisfiable dependencies", id)
				results[id] = Result{JobID: id, Err: ErrDependencyCycle, Skipped: true}
			}
			break
		}
	}

	return results, nil
}

// failedDep returns the first dependency that finished without success,
// or "" if none has (yet).
func (e *Executor) failedDep(j Job, succeeded map[string]bool, results map[string]Result) string {
	for _, dep := range j.DependsOn {
		if _, finished := results[dep]; finished && !succeeded[dep] {
			return dep
		}
	}
	return ""
}

// readyJobs returns pending jobs whose dependencies have all succeeded,
// sorted by priority descending (ID ascending as tiebreak for determinism).
func (e *Executor) readyJobs(pending map[string]Job, succeeded map[string]bool) []Job {
	var ready []Job
	for _, j := range pending {
		ok := true
		for _, dep := range j.DependsOn {
			if !succeeded[dep] {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, j)
		}
	}
	sort.Slice(ready, func(a, b int) bool {
		if ready[a].Priority != ready[b].Priority {
			return ready[a].Priority > ready[b].Priority
		}
		return ready[a].ID < ready[b].ID
	})
	return ready
}

// runJob executes one job with retries, delay and per-attempt timeout.
func (e *Executor) runJob(ctx context.Context, j Job) Result {
	retries := j.Retries
	if retries <= 0 {
		retries = DefaultRetries
	}
	delay := j.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		attemptCtx := ctx
		var cancel context.CancelFunc
		if j.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, j.Timeout)
		}
		value, err := j.Run(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return Result{JobID: j.ID, Value: value, Attempts: attempt}
		}
		lastErr = err
		log.Printf("[Executor] Job %q failed (attempt %d/%d): %v", j.ID, attempt, retries, err)

		if attempt < retries {
			select {
			case <-ctx.Done():
				return Result{JobID: j.ID, Err: ctx.Err(), Attempts: attempt}
			case <-time.After(delay):
			}
		}
	}
	return Result{JobID: j.ID, Err: lastErr, Attempts: retries}
}
