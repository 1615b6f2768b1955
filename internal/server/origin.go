package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/asrafilll/monoserve/internal/config"
	"github.com/asrafilll/monoserve/internal/logfields"
	"github.com/asrafilll/monoserve/internal/router"
)

func (s *Server) startOriginServerWithListener(_ context.Context, ln net.Listener) error {
	s.originServer = &http.Server{
		Handler: s.mchain(s.rt),
		// Header reads are bounded; write deadlines stay off because the
		// origin relays streamed responses (dev-server event streams,
		// large artifacts) of unbounded duration.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s.startServerWithListener("origin", s.originServer, ln)
}

// ServingContextFromConfig assembles the router's immutable serving context
// for the given mode. The mode decides which parts of the manifest are
// required: production needs a static root, development a proxy target.
func ServingContextFromConfig(cfg *config.Config, mode router.Mode) (router.ServingContext, error) {
	sc := router.ServingContext{
		Mode:  mode,
		Table: router.DefaultTable(cfg.Serve.API.Prefixes),
	}

	if upstream := cfg.Serve.API.Upstream; upstream != "" {
		u, err := url.Parse(upstream)
		if err != nil {
			return router.ServingContext{}, fmt.Errorf("invalid api upstream %q: %w", upstream, err)
		}
		sc.APIHandler = newAPIProxy(u, cfg.Serve.Timeout())
	}

	switch mode {
	case router.ModeProduction:
		root := cfg.StaticRoot()
		if root == "" {
			return router.ServingContext{}, fmt.Errorf("production mode needs serve.static_root or a publish block")
		}
		sc.StaticRoot = root
	case router.ModeDevelopment:
		target := cfg.Serve.ProxyTarget
		if target == "" {
			return router.ServingContext{}, fmt.Errorf("development mode needs serve.proxy_target")
		}
		u, err := url.Parse(target)
		if err != nil {
			return router.ServingContext{}, fmt.Errorf("invalid proxy target %q: %w", target, err)
		}
		sc.ProxyTarget = u
		sc.ProxyTimeout = cfg.Serve.Timeout()
	default:
		return router.ServingContext{}, fmt.Errorf("unknown mode %q", mode)
	}

	return sc, nil
}

// newAPIProxy relays API requests to the backend upstream with the path
// untouched. Stripping or rewriting prefixes is the upstream's concern.
func newAPIProxy(upstream *url.URL, timeout time.Duration) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(upstream)
	proxy.FlushInterval = -1

	proxy.Transport = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: timeout,
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		slog.Warn("API upstream request failed",
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.Target(upstream.String()),
			logfields.Error(err))
		http.Error(w, "api upstream unavailable: "+err.Error(), http.StatusBadGateway)
	}

	return proxy
}
