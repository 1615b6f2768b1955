// Package server wires the monoserve HTTP listeners: the unified origin that
// fronts the whole application, and the admin sidecar with health, metrics,
// build history, and the status page.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/asrafilll/monoserve/internal/config"
	derrors "github.com/asrafilll/monoserve/internal/errors"
	"github.com/asrafilll/monoserve/internal/history"
	"github.com/asrafilll/monoserve/internal/pipeline"
	"github.com/asrafilll/monoserve/internal/router"
	smw "github.com/asrafilll/monoserve/internal/server/middleware"
)

// Runtime is the view of the build loop the admin endpoints read. The serve
// command runs without one; the dev daemon implements it.
type Runtime interface {
	State() string
	StartTime() time.Time
	QueueLength() int
	LastReport() *pipeline.Report

	// TriggerBuild requests a rebuild and returns a short disposition
	// string ("queued", "already running", ...).
	TriggerBuild(reason string) string
}

// Options configures runtime-specific server wiring.
type Options struct {
	// Optional: build loop behind /api/build/trigger and the status page.
	Runtime Runtime

	// Optional: persisted build history behind /api/builds.
	History *history.Store

	// Optional: Prometheus registry served on /metrics.
	Registry *prometheus.Registry
}

// Server manages the origin and admin HTTP listeners.
type Server struct {
	cfg          *config.Config
	rt           *router.Router
	opts         Options
	errorAdapter *derrors.HTTPErrorAdapter
	startTime    time.Time

	originServer *http.Server
	adminServer  *http.Server
	originAddr   string
	adminAddr    string

	// middleware chain
	mchain func(http.Handler) http.Handler
}

// New constructs the server wiring around an already validated router.
func New(cfg *config.Config, rt *router.Router, opts Options) *Server {
	s := &Server{
		cfg:          cfg,
		rt:           rt,
		opts:         opts,
		errorAdapter: derrors.NewHTTPErrorAdapter(slog.Default()),
		startTime:    time.Now(),
	}
	s.mchain = smw.Chain(slog.Default(), s.errorAdapter)
	return s
}

// Start binds and starts both listeners.
func (s *Server) Start(ctx context.Context) error {
	// Pre-bind both ports so startup fails fast with one aggregate error
	// instead of logging independent bind failures after partial
	// initialization.
	type preBind struct {
		name string
		addr string
		ln   net.Listener
	}
	binds := []preBind{
		{name: "origin", addr: s.cfg.Serve.Addr},
		{name: "admin", addr: s.cfg.Serve.AdminAddr},
	}

	var bindErrs []error
	lc := net.ListenConfig{}
	for i := range binds {
		ln, err := lc.Listen(ctx, "tcp", binds[i].addr)
		if err != nil {
			bindErrs = append(bindErrs, fmt.Errorf("%s addr %s: %w", binds[i].name, binds[i].addr, err))
			continue
		}
		binds[i].ln = ln
	}
	if len(bindErrs) > 0 {
		// Close any successful listeners before returning
		for _, b := range binds {
			if b.ln != nil {
				_ = b.ln.Close()
			}
		}
		return fmt.Errorf("http startup failed: %w", errors.Join(bindErrs...))
	}

	s.originAddr = binds[0].ln.Addr().String()
	s.adminAddr = binds[1].ln.Addr().String()

	if err := s.startOriginServerWithListener(ctx, binds[0].ln); err != nil {
		return fmt.Errorf("failed to start origin server: %w", err)
	}
	if err := s.startAdminServerWithListener(ctx, binds[1].ln); err != nil {
		return fmt.Errorf("failed to start admin server: %w", err)
	}

	slog.Info("HTTP servers started",
		slog.String("origin_addr", s.originAddr),
		slog.String("admin_addr", s.adminAddr),
		slog.String("mode", string(s.rt.Mode())))
	return nil
}

// OriginAddr returns the origin listener's bound address. Empty before a
// successful Start; with an ":0" configured port this is the resolved one.
func (s *Server) OriginAddr() string { return s.originAddr }

// AdminAddr returns the admin listener's bound address, empty before Start.
func (s *Server) AdminAddr() string { return s.adminAddr }

// Stop gracefully shuts down both listeners in reverse start order.
func (s *Server) Stop(ctx context.Context) error {
	var errs []error

	if s.adminServer != nil {
		if err := s.adminServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin server shutdown: %w", err))
		}
	}

	if s.originServer != nil {
		if err := s.originServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("origin server shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	slog.Info("HTTP servers stopped")
	return nil
}

// startServerWithListener launches an http.Server on a pre-bound listener or
// binds itself. It standardizes goroutine startup and error logging across
// listener kinds.
func (s *Server) startServerWithListener(kind string, srv *http.Server, ln net.Listener) error {
	go func() {
		var err error
		if ln != nil {
			err = srv.Serve(ln)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s server error", kind), "error", err)
		}
	}()
	return nil
}

func (s *Server) uptime() time.Duration {
	start := s.startTime
	if s.opts.Runtime != nil {
		start = s.opts.Runtime.StartTime()
	}
	return time.Since(start)
}
