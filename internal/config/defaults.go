package config

// Defaults applied after normalization. Durations are strings so the
// manifest can carry values like "750ms"; ValidateConfig checks they parse.
const (
	DefaultAddr          = ":3000"
	DefaultAdminAddr     = ":9100"
	DefaultAPIPrefix     = "/api"
	DefaultStateDir      = ".monoserve"
	DefaultPublishDir    = "public"
	DefaultOutputDir     = "dist"
	DefaultProxyTimeout  = "10s"
	DefaultDebounce      = "400ms"
	DefaultHistoryLimit  = 50
	DefaultEventsSubject = "monoserve.builds"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// StateDefaultApplier handles managed state directory defaults.
type StateDefaultApplier struct{}

func (s *StateDefaultApplier) Domain() string { return "state" }

func (s *StateDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.StateDir == "" {
		cfg.StateDir = DefaultStateDir
	}
	return nil
}

// WorkspaceDefaultApplier handles per-workspace defaults.
type WorkspaceDefaultApplier struct{}

func (w *WorkspaceDefaultApplier) Domain() string { return "workspaces" }

func (w *WorkspaceDefaultApplier) ApplyDefaults(cfg *Config) error {
	for i := range cfg.Workspaces {
		if cfg.Workspaces[i].Output == "" {
			cfg.Workspaces[i].Output = DefaultOutputDir
		}
	}
	return nil
}

// PublishDefaultApplier handles publish section defaults.
type PublishDefaultApplier struct{}

func (p *PublishDefaultApplier) Domain() string { return "publish" }

func (p *PublishDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Publish == nil {
		return nil
	}
	if cfg.Publish.Dir == "" {
		cfg.Publish.Dir = DefaultPublishDir
	}
	return nil
}

// ServeDefaultApplier handles origin and admin server defaults.
type ServeDefaultApplier struct{}

func (s *ServeDefaultApplier) Domain() string { return "serve" }

func (s *ServeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = DefaultAddr
	}
	if cfg.Serve.AdminAddr == "" {
		cfg.Serve.AdminAddr = DefaultAdminAddr
	}
	if len(cfg.Serve.API.Prefixes) == 0 {
		cfg.Serve.API.Prefixes = []string{DefaultAPIPrefix}
	}
	if cfg.Serve.ProxyTimeout == "" {
		cfg.Serve.ProxyTimeout = DefaultProxyTimeout
	}
	return nil
}

// DevDefaultApplier handles development loop defaults. When no watch paths
// are configured, every workspace path is watched.
type DevDefaultApplier struct{}

func (d *DevDefaultApplier) Domain() string { return "dev" }

func (d *DevDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Dev.Debounce == "" {
		cfg.Dev.Debounce = DefaultDebounce
	}
	if len(cfg.Dev.Watch) == 0 {
		for _, ws := range cfg.Workspaces {
			if ws.Path != "" {
				cfg.Dev.Watch = append(cfg.Dev.Watch, ws.Path)
			}
		}
	}
	return nil
}

// HistoryDefaultApplier handles build history defaults. Non-positive limits
// are coerced to the default rather than rejected.
type HistoryDefaultApplier struct{}

func (h *HistoryDefaultApplier) Domain() string { return "history" }

func (h *HistoryDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.History.Limit <= 0 {
		cfg.History.Limit = DefaultHistoryLimit
	}
	return nil
}

// EventsDefaultApplier handles build event defaults. The server URL default
// is owned by the events package so the NATS client resolves it.
type EventsDefaultApplier struct{}

func (e *EventsDefaultApplier) Domain() string { return "events" }

func (e *EventsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Events == nil {
		return nil
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = DefaultEventsSubject
	}
	return nil
}
