package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyWorkspace  = "workspace"
	KeyBatch      = "batch"
	KeyMode       = "mode"
	KeyRunID      = "run_id"
	KeyPath       = "path"
	KeyStatus     = "status"
	KeyOutcome    = "outcome"
	KeyRouteClass = "route_class"
	KeyMethod     = "method"
	KeyURL        = "url"
	KeyAddr       = "addr"
	KeyTarget     = "target"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Workspace(name string) slog.Attr  { return slog.String(KeyWorkspace, name) }
func Batch(i int) slog.Attr            { return slog.Int(KeyBatch, i) }
func Mode(m string) slog.Attr          { return slog.String(KeyMode, m) }
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func Outcome(o string) slog.Attr       { return slog.String(KeyOutcome, o) }
func RouteClass(c string) slog.Attr    { return slog.String(KeyRouteClass, c) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Addr(a string) slog.Attr          { return slog.String(KeyAddr, a) }
func Target(t string) slog.Attr        { return slog.String(KeyTarget, t) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
