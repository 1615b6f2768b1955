package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	derrors "github.com/asrafilll/monoserve/internal/errors"
	"github.com/asrafilll/monoserve/internal/history"
	"github.com/asrafilll/monoserve/internal/metrics"
	"github.com/asrafilll/monoserve/internal/publish"
	"github.com/asrafilll/monoserve/internal/router"
	"github.com/asrafilll/monoserve/internal/version"
)

const defaultBuildListLimit = 20

func (s *Server) startAdminServerWithListener(_ context.Context, ln net.Listener) error {
	s.adminServer = &http.Server{Handler: s.adminHandler(), ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, IdleTimeout: 120 * time.Second}
	return s.startServerWithListener("admin", s.adminServer, ln)
}

// adminHandler assembles the admin mux with the middleware chain applied.
func (s *Server) adminHandler() http.Handler {
	mux := http.NewServeMux()

	// Health and readiness, with Kubernetes-style names
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReadiness)
	mux.HandleFunc("/readyz", s.handleReadiness)

	// Prometheus metrics
	if s.opts.Registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.opts.Registry))
	}

	// Build history and control
	mux.HandleFunc("/api/builds", s.handleBuildList)
	mux.HandleFunc("/api/builds/", s.handleBuildDetail)
	mux.HandleFunc("/api/build/trigger", s.handleTriggerBuild)
	mux.HandleFunc("/api/status", s.handleStatusJSON)

	// Status page (HTML)
	mux.HandleFunc("/status", s.handleStatusPage)

	return s.mchain(mux)
}

func (s *Server) requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	err := derrors.ValidationError("invalid HTTP method").
		WithContext("method", r.Method).
		WithContext("allowed_method", method)
	s.errorAdapter.WriteErrorResponse(w, err)
	return false
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    s.uptime().Seconds(),
		Mode:      string(s.rt.Mode()),
	}
	if s.opts.Runtime != nil {
		health.State = s.opts.Runtime.State()
	}

	if err := writeJSONPretty(w, r, http.StatusOK, health); err != nil {
		s.errorAdapter.WriteErrorResponse(w,
			derrors.WrapError(err, derrors.CategoryInternal, "failed to write health response"))
	}
}

// handleReadiness reports whether the origin can serve useful responses. In
// production that means the published static root holds the fallback
// document; in development the proxy target was validated at startup.
func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if s.rt.Mode() == router.ModeProduction {
		doc := filepath.Join(s.cfg.StaticRoot(), publish.FallbackDocument)
		if st, err := os.Stat(doc); err != nil || st.IsDir() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready: fallback document missing"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleBuildList(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	if s.opts.History == nil {
		s.writeHistoryUnavailable(w)
		return
	}

	limit := defaultBuildListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.errorAdapter.WriteErrorResponse(w,
				derrors.ValidationError("limit must be a positive integer").WithContext("limit", raw))
			return
		}
		limit = n
	}

	entries, err := s.opts.History.Recent(r.Context(), limit)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w,
			derrors.WrapError(err, derrors.CategoryInternal, "failed to read build history"))
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	resp := &BuildListResponse{Builds: entries, Count: len(entries)}
	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		s.errorAdapter.WriteErrorResponse(w,
			derrors.WrapError(err, derrors.CategoryInternal, "failed to write build list"))
	}
}

func (s *Server) handleBuildDetail(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	if s.opts.History == nil {
		s.writeHistoryUnavailable(w)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/builds/")
	if id == "" || strings.Contains(id, "/") {
		_ = writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown build"})
		return
	}

	report, err := s.opts.History.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			_ = writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown build", "id": id})
			return
		}
		s.errorAdapter.WriteErrorResponse(w,
			derrors.WrapError(err, derrors.CategoryInternal, "failed to read build report"))
		return
	}

	if err := writeJSONPretty(w, r, http.StatusOK, report); err != nil {
		s.errorAdapter.WriteErrorResponse(w,
			derrors.WrapError(err, derrors.CategoryInternal, "failed to write build report"))
	}
}

func (s *Server) handleTriggerBuild(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}
	if s.opts.Runtime == nil {
		_ = writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no build runtime attached"})
		return
	}

	status := s.opts.Runtime.TriggerBuild("admin api")
	if err := writeJSON(w, http.StatusAccepted, &TriggerResponse{Status: status}); err != nil {
		s.errorAdapter.WriteErrorResponse(w,
			derrors.WrapError(err, derrors.CategoryInternal, "failed to write trigger response"))
	}
}

func (s *Server) handleStatusJSON(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	resp := &StatusResponse{
		Status:     "ok",
		Mode:       string(s.rt.Mode()),
		StartTime:  s.startTimeForStatus(),
		Uptime:     s.uptime().Seconds(),
		Workspaces: len(s.cfg.Workspaces),
	}
	if s.opts.Runtime != nil {
		resp.Status = s.opts.Runtime.State()
		resp.QueueLength = s.opts.Runtime.QueueLength()
		if rep := s.opts.Runtime.LastReport(); rep != nil {
			resp.LastBuild = lastBuildSummary(rep)
		}
	}

	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		s.errorAdapter.WriteErrorResponse(w,
			derrors.WrapError(err, derrors.CategoryInternal, "failed to write status response"))
	}
}

func (s *Server) writeHistoryUnavailable(w http.ResponseWriter) {
	_ = writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "build history not available"})
}

func (s *Server) startTimeForStatus() time.Time {
	if s.opts.Runtime != nil {
		return s.opts.Runtime.StartTime()
	}
	return s.startTime
}
