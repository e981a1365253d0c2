package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/model"
	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/monitor"
)

// Server provides health check, report and metrics API endpoints.
type Server struct {
	monitor  *monitor.Monitor
	gatherer prometheus.Gatherer
	mux      *http.ServeMux
	logger   *slog.Logger
}

// ProjectStatus is a project together with its position relative to the
// reference date.
type ProjectStatus struct {
	model.Project
	DaysUntilDeadline *int `json:"days_until_deadline"`
	AtRisk            bool `json:"at_risk"`
}

// NewServer creates an API server. gatherer backs /metrics and may be nil.
func NewServer(m *monitor.Monitor, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	s := &Server{
		monitor:  m,
		gatherer: gatherer,
		mux:      http.NewServeMux(),
		logger:   logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/report", s.handleReport)
	s.mux.HandleFunc("GET /api/v1/projects", s.handleProjects)
	s.mux.HandleFunc("GET /api/v1/projects/{id}/alerts", s.handleProjectAlerts)
	s.mux.HandleFunc("GET /api/v1/thresholds", s.handleThresholds)
	if s.gatherer != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	today, ok := s.asOf(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	report, _, err := s.monitor.Evaluate(ctx, today)
	if err != nil {
		s.logger.Error("evaluate portfolio", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	today, ok := s.asOf(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	projects, err := s.monitor.Projects(ctx)
	if err != nil {
		s.logger.Error("list projects", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := make([]ProjectStatus, 0, len(projects))
	for _, p := range projects {
		status := ProjectStatus{Project: p, AtRisk: p.IsAtRisk(today)}
		if days, ok := p.DaysUntilDeadline(today); ok {
			status.DaysUntilDeadline = &days
		}
		out = append(out, status)
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleThresholds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Thresholds())
}

// handleProjectAlerts lists the alerts one project raises. The optional type
// and severity query parameters narrow the result.
func (s *Server) handleProjectAlerts(w http.ResponseWriter, r *http.Request) {
	today, ok := s.asOf(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	typ := model.AlertType(q.Get("type"))
	if typ != "" && !typ.Valid() {
		http.Error(w, fmt.Sprintf("unknown alert type %q", typ), http.StatusBadRequest)
		return
	}
	severity := model.Severity(q.Get("severity"))
	if severity != "" && !severity.Valid() {
		http.Error(w, fmt.Sprintf("unknown severity %q", severity), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	found, err := s.monitor.CheckProject(ctx, r.PathValue("id"), today)
	if errors.Is(err, monitor.ErrProjectNotFound) {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("check project", "project", r.PathValue("id"), "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := make([]model.Alert, 0, len(found))
	for _, a := range found {
		if typ != "" && a.Type != typ {
			continue
		}
		if severity != "" && a.Severity != severity {
			continue
		}
		out = append(out, a)
	}
	writeJSON(w, http.StatusOK, out)
}

// asOf reads the optional as_of query parameter, defaulting to today.
func (s *Server) asOf(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return s.monitor.Today(), true
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return time.Time{}, false
	}
	return d, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
