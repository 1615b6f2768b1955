package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the monoserve manifest: the workspace graph, the publish
// wiring between producer and consumer, and the serving topology.
type Config struct {
	Workspaces []WorkspaceConfig `yaml:"workspaces"`
	Publish    *PublishConfig    `yaml:"publish,omitempty"`
	Serve      ServeConfig       `yaml:"serve,omitempty"`
	Dev        DevConfig         `yaml:"dev,omitempty"`
	History    HistoryConfig     `yaml:"history,omitempty"`
	Events     *EventsConfig     `yaml:"events,omitempty"`
	StateDir   string            `yaml:"state_dir,omitempty"` // managed state root (artifacts, history)
}

// WorkspaceConfig declares one buildable package of the monorepo.
type WorkspaceConfig struct {
	Name      string            `yaml:"name"`
	Path      string            `yaml:"path"`
	Build     string            `yaml:"build"`                // opaque command line, run through the shell
	Output    string            `yaml:"output,omitempty"`     // build output dir relative to path (default "dist")
	DependsOn []string          `yaml:"depends_on,omitempty"` // workspaces that must build first
	Env       map[string]string `yaml:"env,omitempty"`        // extra environment for the build command
}

// PublishConfig wires the frontend producer's artifact into the backend
// consumer's static directory.
type PublishConfig struct {
	Producer string `yaml:"producer"`      // workspace whose artifact is published
	Consumer string `yaml:"consumer"`      // workspace that serves the published files
	Dir      string `yaml:"dir,omitempty"` // static dir under the consumer path (default "public")
}

// ServeConfig describes the unified HTTP origin and its admin sidecar.
type ServeConfig struct {
	Addr         string    `yaml:"addr,omitempty"`          // origin listen address (default ":3000")
	AdminAddr    string    `yaml:"admin_addr,omitempty"`    // health/metrics listener (default ":9100")
	API          APIConfig `yaml:"api,omitempty"`           // API route discrimination
	StaticRoot   string    `yaml:"static_root,omitempty"`   // override; default derives from publish
	ProxyTarget  string    `yaml:"proxy_target,omitempty"`  // dev-mode frontend server URL
	ProxyTimeout string    `yaml:"proxy_timeout,omitempty"` // duration string (default 10s)
}

// APIConfig identifies API traffic and where it is forwarded.
type APIConfig struct {
	Prefixes []string `yaml:"prefixes,omitempty"` // path prefixes routed as API (default ["/api"])
	Upstream string   `yaml:"upstream,omitempty"` // backend URL API requests are relayed to
}

// DevConfig tunes the development rebuild loop.
type DevConfig struct {
	Watch        []string `yaml:"watch,omitempty"`         // paths to watch (default: workspace paths)
	Debounce     string   `yaml:"debounce,omitempty"`      // quiet window before a rebuild (default 400ms)
	RebuildEvery string   `yaml:"rebuild_every,omitempty"` // optional periodic rebuild interval
}

// HistoryConfig controls the persisted build history.
type HistoryConfig struct {
	Path  string `yaml:"path,omitempty"`  // sqlite file (default <state_dir>/history.db)
	Limit int    `yaml:"limit,omitempty"` // reports retained (default 50)
}

// EventsConfig enables build lifecycle events over NATS.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`     // server URL (default nats.DefaultURL)
	Subject string `yaml:"subject,omitempty"` // publish subject (default "monoserve.builds")
}

// Load loads a manifest from the specified file. YAML is the primary format;
// files with an .hcl extension decode through the HCL manifest schema into
// the same Config. Environment expansion applies to the YAML path only, so
// HCL template syntax is never mangled.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", slog.Any("reason", err))
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	var (
		config *Config
		err    error
	)
	if isHCLManifest(configPath) {
		config, err = loadHCL(configPath)
	} else {
		config, err = loadYAML(configPath)
	}
	if err != nil {
		return nil, err
	}

	// Normalization pass (prefix canonicalization, path cleaning) before
	// defaults so canonical values drive them.
	if res := normalizeConfig(config); len(res.Warnings) > 0 {
		for _, w := range res.Warnings {
			slog.Warn("Config normalization", slog.String("warning", w))
		}
	}

	if err := applyDefaults(config); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadYAML(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

// WorkspaceByName returns the workspace entry with the given name, or nil.
func (c *Config) WorkspaceByName(name string) *WorkspaceConfig {
	for i := range c.Workspaces {
		if c.Workspaces[i].Name == name {
			return &c.Workspaces[i]
		}
	}
	return nil
}

// ArtifactDir returns the managed artifact directory for a workspace.
func (c *Config) ArtifactDir(name string) string {
	return filepath.Join(c.StateDir, "artifacts", name)
}

// StaticRoot resolves the directory the production file server reads from:
// the explicit serve.static_root override when present, otherwise the publish
// directory under the consumer workspace. Empty when neither is configured.
func (c *Config) StaticRoot() string {
	if c.Serve.StaticRoot != "" {
		return c.Serve.StaticRoot
	}
	if c.Publish == nil {
		return ""
	}
	consumer := c.WorkspaceByName(c.Publish.Consumer)
	if consumer == nil {
		return ""
	}
	return filepath.Join(consumer.Path, c.Publish.Dir)
}

// HistoryPath resolves the build history database location.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(c.StateDir, "history.db")
}

// Timeout returns the parsed proxy timeout. Validation guarantees the field
// parses after Load; hand-built configs fall back to the default.
func (s ServeConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(s.ProxyTimeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultProxyTimeout)
	}
	return d
}

// DebounceInterval returns the parsed rebuild quiet window.
func (d DevConfig) DebounceInterval() time.Duration {
	dur, err := time.ParseDuration(d.Debounce)
	if err != nil || dur <= 0 {
		dur, _ = time.ParseDuration(DefaultDebounce)
	}
	return dur
}

// RebuildInterval returns the periodic rebuild interval and whether one is
// configured.
func (d DevConfig) RebuildInterval() (time.Duration, bool) {
	if d.RebuildEvery == "" {
		return 0, false
	}
	dur, err := time.ParseDuration(d.RebuildEvery)
	if err != nil || dur <= 0 {
		return 0, false
	}
	return dur, true
}

// Init creates a new manifest file with example content for a typical
// client/server/shared monorepo.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Workspaces: []WorkspaceConfig{
			{
				Name:   "shared",
				Path:   "packages/shared",
				Build:  "npm run build",
				Output: "dist",
			},
			{
				Name:      "server",
				Path:      "packages/server",
				Build:     "npm run build",
				Output:    "dist",
				DependsOn: []string{"shared"},
			},
			{
				Name:      "client",
				Path:      "packages/client",
				Build:     "npm run build",
				Output:    "dist",
				DependsOn: []string{"shared"},
				Env:       map[string]string{"VITE_API_BASE": "/api"},
			},
		},
		Publish: &PublishConfig{
			Producer: "client",
			Consumer: "server",
			Dir:      "public",
		},
		Serve: ServeConfig{
			Addr:      ":3000",
			AdminAddr: ":9100",
			API: APIConfig{
				Prefixes: []string{"/api"},
				Upstream: "http://127.0.0.1:4000",
			},
			ProxyTarget:  "http://127.0.0.1:5173",
			ProxyTimeout: "10s",
		},
		Dev: DevConfig{
			Watch:    []string{"packages"},
			Debounce: "400ms",
		},
		History: HistoryConfig{
			Limit: 50,
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
