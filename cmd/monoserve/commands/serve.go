package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/asrafilll/monoserve/internal/config"
	derrors "github.com/asrafilll/monoserve/internal/errors"
	"github.com/asrafilll/monoserve/internal/metrics"
	"github.com/asrafilll/monoserve/internal/router"
	"github.com/asrafilll/monoserve/internal/server"
	"github.com/asrafilll/monoserve/internal/watch"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	// Mode selects the serving strategy. The empty default means production;
	// router.ParseMode owns validation so a bad MONOSERVE_MODE value fails
	// with the same message as a bad flag.
	Mode string `help:"Serving mode: production or development" env:"MONOSERVE_MODE"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadManifest(root.Config)
	if err != nil {
		return err
	}
	mode, err := router.ParseMode(s.Mode)
	if err != nil {
		return derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityFatal, "invalid serving mode")
	}
	return runServe(cfg, mode)
}

func runServe(cfg *config.Config, mode router.Mode) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	serving, err := server.ServingContextFromConfig(cfg, mode)
	if err != nil {
		return derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityFatal, "cannot serve with this manifest")
	}

	registry := metrics.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	// Fails fast on an unreadable static root so a broken deploy never
	// half-starts.
	rt, err := router.New(serving, router.WithRecorder(recorder))
	if err != nil {
		return derrors.Wrap(err, derrors.CategoryStatic, derrors.SeverityFatal, "cannot start origin router")
	}

	svc, store, cleanup, err := newBuildService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	svc.WithRecorder(recorder)

	// The build loop runs in both modes: development gets file watching and
	// an initial build, production keeps only admin-triggered and scheduled
	// rebuilds.
	loop := watch.NewLoop(cfg, svc, watch.Options{
		WatchFiles:   mode == router.ModeDevelopment,
		InitialBuild: mode == router.ModeDevelopment,
	})
	if err := loop.Start(ctx); err != nil {
		return derrors.Wrap(err, derrors.CategoryRuntime, derrors.SeverityFatal, "cannot start build loop")
	}

	srv := server.New(cfg, rt, server.Options{
		Runtime:  loop,
		History:  store,
		Registry: registry,
	})
	if err := srv.Start(ctx); err != nil {
		stopWithTimeout(loop.Stop)
		return derrors.Wrap(err, derrors.CategoryRuntime, derrors.SeverityFatal, "cannot start http listeners")
	}

	slog.Info("monoserve started, waiting for shutdown signal",
		slog.String("mode", string(mode)))
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	var errs []error
	if err := srv.Stop(stopCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := loop.Stop(stopCtx); err != nil {
		errs = append(errs, fmt.Errorf("build loop shutdown: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return derrors.Wrap(err, derrors.CategoryRuntime, derrors.SeverityError, "unclean shutdown")
	}

	slog.Info("monoserve stopped")
	return nil
}

// stopWithTimeout bounds a shutdown func when no caller-provided deadline
// applies (startup failure paths).
func stopWithTimeout(stop func(context.Context) error) {
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := stop(stopCtx); err != nil {
		slog.Warn("Unclean build loop stop", slog.Any("error", err))
	}
}
