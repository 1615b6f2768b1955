package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// isHCLManifest reports whether the manifest should decode through the HCL
// schema instead of YAML.
func isHCLManifest(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".hcl")
}

// hclManifest is the top-level structure of a .hcl manifest for decoding.
// Workspaces are declared as labeled blocks:
//
//	workspace "client" {
//	  path       = "packages/client"
//	  build      = "npm run build"
//	  depends_on = ["shared"]
//	}
type hclManifest struct {
	Workspaces []hclWorkspace `hcl:"workspace,block"`
	Publish    *hclPublish    `hcl:"publish,block"`
	Serve      *hclServe      `hcl:"serve,block"`
	Dev        *hclDev        `hcl:"dev,block"`
	History    *hclHistory    `hcl:"history,block"`
	Events     *hclEvents     `hcl:"events,block"`
	StateDir   *string        `hcl:"state_dir,optional"`
}

type hclWorkspace struct {
	Name      string            `hcl:"name,label"`
	Path      string            `hcl:"path"`
	Build     string            `hcl:"build"`
	Output    *string           `hcl:"output,optional"`
	DependsOn []string          `hcl:"depends_on,optional"`
	Env       map[string]string `hcl:"env,optional"`
}

type hclPublish struct {
	Producer string  `hcl:"producer"`
	Consumer string  `hcl:"consumer"`
	Dir      *string `hcl:"dir,optional"`
}

type hclServe struct {
	Addr         *string `hcl:"addr,optional"`
	AdminAddr    *string `hcl:"admin_addr,optional"`
	API          *hclAPI `hcl:"api,block"`
	StaticRoot   *string `hcl:"static_root,optional"`
	ProxyTarget  *string `hcl:"proxy_target,optional"`
	ProxyTimeout *string `hcl:"proxy_timeout,optional"`
}

type hclAPI struct {
	Prefixes []string `hcl:"prefixes,optional"`
	Upstream *string  `hcl:"upstream,optional"`
}

type hclDev struct {
	Watch        []string `hcl:"watch,optional"`
	Debounce     *string  `hcl:"debounce,optional"`
	RebuildEvery *string  `hcl:"rebuild_every,optional"`
}

type hclHistory struct {
	Path  *string `hcl:"path,optional"`
	Limit *int    `hcl:"limit,optional"`
}

type hclEvents struct {
	Enabled bool    `hcl:"enabled"`
	URL     *string `hcl:"url,optional"`
	Subject *string `hcl:"subject,optional"`
}

// loadHCL parses a .hcl manifest into the same Config the YAML path
// produces. The body is decoded literally (no eval context), so values are
// plain literals rather than template expressions.
func loadHCL(configPath string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(configPath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL manifest %s: %w", configPath, diags)
	}

	var manifest hclManifest
	if diags := gohcl.DecodeBody(file.Body, nil, &manifest); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL manifest %s: %w", configPath, diags)
	}

	return manifest.toConfig(), nil
}

// toConfig converts the decoded HCL schema to the canonical Config.
func (m *hclManifest) toConfig() *Config {
	cfg := &Config{
		StateDir: strOr(m.StateDir),
	}

	for _, ws := range m.Workspaces {
		cfg.Workspaces = append(cfg.Workspaces, WorkspaceConfig{
			Name:      ws.Name,
			Path:      ws.Path,
			Build:     ws.Build,
			Output:    strOr(ws.Output),
			DependsOn: ws.DependsOn,
			Env:       ws.Env,
		})
	}

	if m.Publish != nil {
		cfg.Publish = &PublishConfig{
			Producer: m.Publish.Producer,
			Consumer: m.Publish.Consumer,
			Dir:      strOr(m.Publish.Dir),
		}
	}

	if m.Serve != nil {
		cfg.Serve = ServeConfig{
			Addr:         strOr(m.Serve.Addr),
			AdminAddr:    strOr(m.Serve.AdminAddr),
			StaticRoot:   strOr(m.Serve.StaticRoot),
			ProxyTarget:  strOr(m.Serve.ProxyTarget),
			ProxyTimeout: strOr(m.Serve.ProxyTimeout),
		}
		if m.Serve.API != nil {
			cfg.Serve.API = APIConfig{
				Prefixes: m.Serve.API.Prefixes,
				Upstream: strOr(m.Serve.API.Upstream),
			}
		}
	}

	if m.Dev != nil {
		cfg.Dev = DevConfig{
			Watch:        m.Dev.Watch,
			Debounce:     strOr(m.Dev.Debounce),
			RebuildEvery: strOr(m.Dev.RebuildEvery),
		}
	}

	if m.History != nil {
		cfg.History = HistoryConfig{
			Path:  strOr(m.History.Path),
			Limit: intOr(m.History.Limit),
		}
	}

	if m.Events != nil {
		cfg.Events = &EventsConfig{
			Enabled: m.Events.Enabled,
			URL:     strOr(m.Events.URL),
			Subject: strOr(m.Events.Subject),
		}
	}

	return cfg
}

func strOr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func intOr(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
