package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/asrafilll/monoserve/internal/logfields"
	"github.com/asrafilll/monoserve/internal/metrics"
	"github.com/asrafilll/monoserve/internal/publish"
)

// StaticRootError reports an unreadable static root. It is fatal at startup:
// the process refuses to start rather than serve intermittent failures.
type StaticRootError struct {
	Dir string
	Err error
}

func (e *StaticRootError) Error() string {
	return fmt.Sprintf("static root %s is not readable: %v", e.Dir, e.Err)
}

func (e *StaticRootError) Unwrap() error { return e.Err }

// ServingContext is the immutable runtime configuration of the router.
// Construct it once at startup; request handling only reads it.
type ServingContext struct {
	Mode       Mode
	Table      *Table
	APIHandler http.Handler

	// StaticRoot is the published directory, production mode only.
	StaticRoot string

	// ProxyTarget is the dev server origin, development mode only.
	ProxyTarget  *url.URL
	ProxyTimeout time.Duration
}

// Router dispatches requests according to the route table and mode.
type Router struct {
	serving  ServingContext
	proxy    http.Handler
	recorder metrics.Recorder
}

// Option configures optional router behavior.
type Option func(*Router)

// WithRecorder attaches a metrics recorder for per-class request counts.
func WithRecorder(recorder metrics.Recorder) Option {
	return func(rt *Router) {
		if recorder != nil {
			rt.recorder = recorder
		}
	}
}

// New validates the serving context and builds the router. In production
// mode an unreadable static root fails construction with *StaticRootError;
// in development mode a proxy target is required.
func New(serving ServingContext, options ...Option) (*Router, error) {
	if serving.Table == nil {
		return nil, fmt.Errorf("serving context has no route table")
	}

	rt := &Router{
		serving:  serving,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range options {
		opt(rt)
	}

	switch serving.Mode {
	case ModeProduction:
		if serving.StaticRoot == "" {
			return nil, fmt.Errorf("production mode requires a static root")
		}
		if _, err := os.ReadDir(serving.StaticRoot); err != nil {
			return nil, &StaticRootError{Dir: serving.StaticRoot, Err: err}
		}
		fallbackDoc := filepath.Join(serving.StaticRoot, publish.FallbackDocument)
		if _, err := os.Stat(fallbackDoc); err != nil {
			slog.Warn("Static root has no fallback document; client-routed paths will not resolve",
				logfields.Path(fallbackDoc))
		}
	case ModeDevelopment:
		if serving.ProxyTarget == nil {
			return nil, fmt.Errorf("development mode requires a proxy target")
		}
		rt.proxy = newDevProxy(serving.ProxyTarget, serving.ProxyTimeout, rt.recorder)
	default:
		return nil, fmt.Errorf("unknown mode %q", serving.Mode)
	}

	return rt, nil
}

// Mode returns the mode the router was built for.
func (rt *Router) Mode() Mode { return rt.serving.Mode }

// ServeHTTP classifies the request and runs the terminal action. API
// responses pass through verbatim; the router never rewrites them.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := rt.serving.Table.Classify(r.URL.Path)

	sw := &statusWriter{ResponseWriter: w}
	start := time.Now()
	defer func() {
		rt.recorder.IncRouteRequest(string(c.Kind), sw.Status())
		rt.recorder.ObserveRequestDuration(string(c.Kind), time.Since(start))
	}()

	if c.Kind == KindAPI {
		if rt.serving.APIHandler == nil {
			slog.Error("API request with no API handler configured", logfields.Path(r.URL.Path))
			http.Error(sw, "no API upstream configured", http.StatusBadGateway)
			return
		}
		rt.serving.APIHandler.ServeHTTP(sw, r)
		return
	}

	if rt.serving.Mode == ModeDevelopment {
		rt.proxy.ServeHTTP(sw, r)
		return
	}

	rt.serveStatic(sw, r)
}

// statusWriter records the response status for metrics. Unwrap keeps flush
// and hijack reachable through http.ResponseController, so streamed and
// upgraded proxy connections survive the wrapper.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
