// Package web exposes the agent's state over HTTP: health, status, the text
// report, the task list, and an SSE stream of execution events.
package web

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/advagent/advagent/internal/agent"
	"github.com/advagent/advagent/internal/telemetry"
	"github.com/advagent/advagent/internal/watchdog"
)

// shutdownGrace is how long in-flight requests get to finish on SIGINT/SIGTERM.
const shutdownGrace = 10 * time.Second

// Server holds the HTTP server and its dependencies.
type Server struct {
	mux       *http.ServeMux
	agent     *agent.Agent
	watchdog  *watchdog.Watchdog   // nil = health reports agent-only
	telemetry *telemetry.Collector // nil = status omits telemetry
	port      string
	startTime time.Time
}

// NewServer creates a status server for the given agent.
// watchdog and telemetry may be nil when those subsystems are disabled.
func NewServer(a *agent.Agent, w *watchdog.Watchdog, t *telemetry.Collector, port string) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		agent:     a,
		watchdog:  w,
		telemetry: t,
		port:      port,
		startTime: time.Now(),
	}
	s.registerRoutes()
	return s
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/report", s.handleReport)
	s.mux.HandleFunc("/api/tasks", s.handleTasks)
	s.mux.HandleFunc("/api/events", s.handleEvents)
}

// Handler returns the route mux, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.mux }

// Start begins listening with graceful shutdown.
// On SIGINT/SIGTERM it waits up to shutdownGrace for in-flight requests,
// so deferred cleanup in main (exec log close, plugin disable) runs reliably.
func (s *Server) Start() error {
	addr := ":" + s.port
	srv := &http.Server{Addr: addr, Handler: s.mux}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Printf("[Web] Received %v, shutting down...", sig)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("[Web] Shutdown error: %v", err)
		}
	}()

	log.Printf("[Web] Listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
