package web

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/advagent/advagent/internal/agent"
	"github.com/advagent/advagent/internal/budget"
	"github.com/advagent/advagent/internal/telemetry"
	"github.com/advagent/advagent/internal/watchdog"
)

type healthResponse struct {
	Status     string           `json:"status"`
	UptimeSecs int64            `json:"uptime_seconds"`
	Budget     budget.Snapshot  `json:"budget"`
	Watchdog   *watchdog.Report `json:"watchdog,omitempty"`
}

// handleHealth serves GET /api/health.
// Degraded when the budget passes critical or any watchdog check fails.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.agent.Budget().Snapshot()
	status := "ok"
	if snap.Status == budget.StatusCritical {
		status = "degraded"
	}

	var report *watchdog.Report
	if s.watchdog != nil {
		rep := s.watchdog.Report()
		report = &rep
		if !rep.OverallHealthy {
			status = "degraded"
		}
	}

	writeJSON(w, healthResponse{
		Status:     status,
		UptimeSecs: int64(time.Since(s.startTime).Seconds()),
		Budget:     snap,
		Watchdog:   report,
	})
}

type statusResponse struct {
	Budget           budget.Snapshot      `json:"budget"`
	Tasks            agent.Summary        `json:"tasks"`
	ValidationErrors int                  `json:"validation_errors"`
	MaxErrors        int                  `json:"max_validation_errors"`
	ExecutionSteps   int                  `json:"execution_steps"`
	OptimizeOutput   bool                 `json:"optimize_output"`
	Telemetry        *telemetry.Dashboard `json:"telemetry,omitempty"`
}

// handleStatus serves GET /api/status: the full aggregate state as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	errs, maxErrs := s.agent.ValidationErrors()
	resp := statusResponse{
		Budget:           s.agent.Budget().Snapshot(),
		Tasks:            s.agent.TaskSummary(),
		ValidationErrors: errs,
		MaxErrors:        maxErrs,
		ExecutionSteps:   len(s.agent.History()),
		OptimizeOutput:   s.agent.ShouldOptimizeOutput(),
	}
	if s.telemetry != nil {
		d := s.telemetry.Dashboard()
		resp.Telemetry = &d
	}
	writeJSON(w, resp)
}

// handleReport serves GET /api/report: the text execution report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(s.agent.GenerateReport()))
}

type taskJSON struct {
	ID              string   `json:"id"`
	Content         string   `json:"content"`
	ActiveForm      string   `json:"active_form,omitempty"`
	Status          string   `json:"status"`
	Attempts        int      `json:"attempts"`
	StrategiesTried []string `json:"strategies_tried,omitempty"`
}

// handleTasks serves GET /api/tasks: the task list in insertion order.
func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	tasks := s.agent.Tasks()
	out := make([]taskJSON, len(tasks))
	for i, t := range tasks {
		out[i] = taskJSON{
			ID:              t.ID(),
			Content:         t.Content(),
			ActiveForm:      t.ActiveForm(),
			Status:          string(t.Status()),
			Attempts:        t.Attempts(),
			StrategiesTried: t.StrategiesTried(),
		}
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Web] JSON encode error: %v", err)
	}
}
