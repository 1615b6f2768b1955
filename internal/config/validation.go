package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

// validate performs configuration validation using domain-specific methods.
func (cv *configurationValidator) validate() error {
	if err := cv.validateWorkspaces(); err != nil {
		return err
	}
	if err := cv.validatePublish(); err != nil {
		return err
	}
	if err := cv.validateServe(); err != nil {
		return err
	}
	if err := cv.validateDev(); err != nil {
		return err
	}
	return nil
}

// validateWorkspaces validates the workspace list shape. Graph-level rules
// (unknown dependency edges, cycles) belong to the workspace package.
func (cv *configurationValidator) validateWorkspaces() error {
	if len(cv.config.Workspaces) == 0 {
		return errors.New("at least one workspace must be configured")
	}

	names := make(map[string]bool)
	for _, ws := range cv.config.Workspaces {
		if ws.Name == "" {
			return errors.New("workspace name cannot be empty")
		}
		if names[ws.Name] {
			return fmt.Errorf("duplicate workspace name: %s", ws.Name)
		}
		names[ws.Name] = true

		if ws.Path == "" {
			return fmt.Errorf("workspace %s: path cannot be empty", ws.Name)
		}
		if ws.Build == "" {
			return fmt.Errorf("workspace %s: build command cannot be empty", ws.Name)
		}
	}
	return nil
}

// validatePublish ensures the publish edge references real workspaces.
func (cv *configurationValidator) validatePublish() error {
	pub := cv.config.Publish
	if pub == nil {
		return nil
	}
	if pub.Producer == "" || pub.Consumer == "" {
		return errors.New("publish requires both producer and consumer")
	}
	if cv.config.WorkspaceByName(pub.Producer) == nil {
		return fmt.Errorf("publish producer %q does not name a workspace", pub.Producer)
	}
	if cv.config.WorkspaceByName(pub.Consumer) == nil {
		return fmt.Errorf("publish consumer %q does not name a workspace", pub.Consumer)
	}
	return nil
}

// validateServe validates listener addresses, API prefixes and proxy targets.
func (cv *configurationValidator) validateServe() error {
	serve := cv.config.Serve

	for _, prefix := range serve.API.Prefixes {
		if !strings.HasPrefix(prefix, "/") {
			return fmt.Errorf("api prefix must start with /: %s", prefix)
		}
	}

	if serve.API.Upstream != "" {
		if err := validateHTTPURL(serve.API.Upstream); err != nil {
			return fmt.Errorf("invalid api upstream: %w", err)
		}
	}
	if serve.ProxyTarget != "" {
		if err := validateHTTPURL(serve.ProxyTarget); err != nil {
			return fmt.Errorf("invalid proxy_target: %w", err)
		}
	}

	timeout, err := time.ParseDuration(serve.ProxyTimeout)
	if err != nil {
		return fmt.Errorf("invalid proxy_timeout: %s: %w", serve.ProxyTimeout, err)
	}
	if timeout <= 0 {
		return fmt.Errorf("proxy_timeout must be positive: %s", serve.ProxyTimeout)
	}

	return nil
}

// validateDev validates rebuild loop durations.
func (cv *configurationValidator) validateDev() error {
	debounce, err := time.ParseDuration(cv.config.Dev.Debounce)
	if err != nil {
		return fmt.Errorf("invalid debounce: %s: %w", cv.config.Dev.Debounce, err)
	}
	if debounce <= 0 {
		return fmt.Errorf("debounce must be positive: %s", cv.config.Dev.Debounce)
	}

	if cv.config.Dev.RebuildEvery != "" {
		every, err := time.ParseDuration(cv.config.Dev.RebuildEvery)
		if err != nil {
			return fmt.Errorf("invalid rebuild_every: %s: %w", cv.config.Dev.RebuildEvery, err)
		}
		if every <= 0 {
			return fmt.Errorf("rebuild_every must be positive: %s", cv.config.Dev.RebuildEvery)
		}
	}

	return nil
}

// validateHTTPURL checks that a string parses as an absolute http(s) URL.
func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q (expected http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
