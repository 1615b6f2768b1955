package router

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/asrafilll/monoserve/internal/logfields"
	"github.com/asrafilll/monoserve/internal/metrics"
)

// newDevProxy forwards requests verbatim to the dev server and relays its
// responses unchanged, including the dev server's own fallback behavior.
// Upstream failures surface as distinct gateway errors, never as a silent
// fallback-document substitution: a broken dev toolchain must look broken.
func newDevProxy(target *url.URL, timeout time.Duration, recorder metrics.Recorder) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(target)

	// Immediate flushing keeps dev-server event streams (error overlays,
	// reload notifications) flowing through the proxy.
	proxy.FlushInterval = -1

	proxy.Transport = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: timeout,
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		status := http.StatusBadGateway
		message := "development server unreachable"
		reason := "unreachable"
		if isTimeout(err) {
			status = http.StatusGatewayTimeout
			message = "development server timed out"
			reason = "timeout"
		}
		recorder.IncProxyError(reason)

		slog.Warn("Dev proxy request failed",
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.Target(target.String()),
			logfields.Error(err))

		http.Error(w, message+": "+err.Error(), status)
	}

	return proxy
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
