package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/asrafilll/monoserve/internal/build"
	"github.com/asrafilll/monoserve/internal/config"
	derrors "github.com/asrafilll/monoserve/internal/errors"
	"github.com/asrafilll/monoserve/internal/events"
	"github.com/asrafilll/monoserve/internal/history"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags shared by every subcommand.
type CLI struct {
	Config  string           `short:"c" help:"Manifest file path" default:"monoserve.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build every workspace in dependency order and publish the client artifact"`
	Serve ServeCmd `cmd:"" help:"Serve the unified origin; in development mode also run the watch loop"`
	Graph GraphCmd `cmd:"" help:"Print the resolved workspace build order"`
	Init  InitCmd  `cmd:"" help:"Write a starter manifest"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadManifest loads and validates the manifest, classifying failures so the
// process exits with the configuration error code.
func loadManifest(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, derrors.New(derrors.CategoryConfig, derrors.SeverityFatal,
			fmt.Sprintf("cannot load manifest: %v", err))
	}
	return cfg, nil
}

// newBuildService wires a build service from the manifest: persisted history
// plus NATS lifecycle events when the manifest enables them. The returned
// cleanup closes everything the wiring opened.
func newBuildService(cfg *config.Config) (*build.Service, *history.Store, func(), error) {
	svc := build.NewService(cfg)
	closers := make([]func(), 0, 2)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	historyPath := cfg.HistoryPath()
	if err := os.MkdirAll(filepath.Dir(historyPath), 0o755); err != nil {
		return nil, nil, nil, derrors.Wrap(err, derrors.CategoryRuntime, derrors.SeverityFatal,
			"cannot create state directory")
	}
	store, err := history.NewStore(historyPath)
	if err != nil {
		return nil, nil, nil, derrors.Wrap(err, derrors.CategoryRuntime, derrors.SeverityFatal,
			"cannot open build history")
	}
	svc.WithHistory(store)
	closers = append(closers, func() { _ = store.Close() })

	if cfg.Events != nil && cfg.Events.Enabled {
		publisher, err := events.Connect(cfg.Events.URL, cfg.Events.Subject)
		if err != nil {
			// Events are telemetry; a missing broker never blocks builds.
			slog.Warn("Event publishing disabled", slog.Any("error", err))
		} else {
			svc.WithEvents(publisher)
			closers = append(closers, publisher.Close)
		}
	}

	return svc, store, cleanup, nil
}
