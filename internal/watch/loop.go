// Package watch runs the continuous build loop behind `monoserve serve`: a
// filesystem watcher feeds a debouncer, coalesced triggers run partial builds
// through the build service, and a scheduler handles periodic full rebuilds
// and stale stage cleanup. The Loop doubles as the admin API's view of the
// daemon (state, queue, last report, manual triggers).
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asrafilll/monoserve/internal/build"
	"github.com/asrafilll/monoserve/internal/config"
	"github.com/asrafilll/monoserve/internal/logfields"
	"github.com/asrafilll/monoserve/internal/pipeline"
	"github.com/asrafilll/monoserve/internal/publish"
)

// BuildRunner executes one build request. *build.Service is the production
// implementation.
type BuildRunner interface {
	Run(ctx context.Context, req build.Request) (*pipeline.Report, error)
}

// Loop states as reported to the admin API.
const (
	StateStarting = "starting"
	StateRunning  = "running"
	StateBuilding = "building"
	StateStopped  = "stopped"
)

// Options selects which parts of the loop are active.
type Options struct {
	// WatchFiles enables the filesystem watcher. On in development mode.
	WatchFiles bool

	// InitialBuild queues a full build as soon as the loop starts.
	InitialBuild bool
}

// Loop owns the daemon-side goroutines of a serve process.
type Loop struct {
	cfg    *config.Config
	builds BuildRunner
	opts   Options

	debouncer *Debouncer
	watcher   *Watcher
	scheduler *Scheduler
	workers   workerGroup

	triggers chan Trigger
	stopChan chan struct{}
	stopOnce sync.Once
	cancel   context.CancelFunc

	building atomic.Bool

	mu         sync.Mutex
	state      string
	startedAt  time.Time
	lastReport *pipeline.Report
}

// NewLoop wires a loop against the manifest and a build runner. Nothing runs
// until Start.
func NewLoop(cfg *config.Config, builds BuildRunner, opts Options) *Loop {
	return &Loop{
		cfg:      cfg,
		builds:   builds,
		opts:     opts,
		triggers: make(chan Trigger, 1),
		stopChan: make(chan struct{}),
		state:    StateStarting,
	}
}

// Start launches the loop's goroutines. The context bounds everything the
// loop does; Stop also ends it.
func (l *Loop) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	l.mu.Lock()
	l.startedAt = time.Now()
	l.mu.Unlock()

	quiet := l.cfg.Dev.DebounceInterval()
	debouncer, err := NewDebouncer(DebouncerConfig{
		QuietWindow:  quiet,
		MaxDelay:     10 * quiet,
		BuildRunning: l.building.Load,
	}, l.enqueue)
	if err != nil {
		cancel()
		return fmt.Errorf("configure debouncer: %w", err)
	}
	l.debouncer = debouncer
	l.workers.Go(func() { _ = debouncer.Run(runCtx) })
	l.workers.Go(func() { l.executor(runCtx) })

	if l.opts.WatchFiles {
		watcher, err := NewWatcher(l.cfg)
		if err != nil {
			cancel()
			return err
		}
		if err := watcher.Start(); err != nil {
			watcher.Close()
			cancel()
			return err
		}
		l.watcher = watcher
		l.workers.Go(func() { _ = watcher.Run(runCtx) })
		l.workers.Go(func() { l.forwardChanges(runCtx) })
	}

	if err := l.startScheduler(); err != nil {
		cancel()
		return err
	}

	l.setState(StateRunning)

	if l.opts.InitialBuild {
		l.debouncer.Request("", "startup")
	}
	return nil
}

// Stop shuts the loop down: no new triggers, scheduler and watcher stopped,
// workers drained within the context's deadline.
func (l *Loop) Stop(ctx context.Context) error {
	var err error
	l.stopOnce.Do(func() {
		close(l.stopChan)
		if l.cancel != nil {
			l.cancel()
		}
		if l.scheduler != nil {
			if serr := l.scheduler.Stop(); serr != nil {
				slog.Warn("Scheduler shutdown failed", logfields.Error(serr))
			}
		}
		if l.watcher != nil {
			_ = l.watcher.Close()
		}
		err = l.workers.StopAndWait(ctx)
		l.setState(StateStopped)
	})
	return err
}

// startScheduler registers the periodic jobs that are configured and runs
// the scheduler only when at least one exists.
func (l *Loop) startScheduler() error {
	var jobs []func(*Scheduler) error

	if interval, ok := l.cfg.Dev.RebuildInterval(); ok {
		jobs = append(jobs, func(s *Scheduler) error {
			return s.Every(interval, "periodic-rebuild", func() {
				l.debouncer.Request("", "schedule")
			})
		})
	}

	if sweepDir := l.sweepDir(); sweepDir != "" {
		jobs = append(jobs, func(s *Scheduler) error {
			return s.Every(time.Hour, "stage-sweep", func() {
				if _, err := publish.SweepStaleStages(sweepDir, time.Hour); err != nil {
					slog.Warn("Stale stage sweep failed", logfields.Error(err))
				}
			})
		})
	}

	if len(jobs) == 0 {
		return nil
	}

	scheduler, err := NewScheduler()
	if err != nil {
		return err
	}
	for _, register := range jobs {
		if err := register(scheduler); err != nil {
			return err
		}
	}
	l.scheduler = scheduler
	scheduler.Start()
	return nil
}

// sweepDir is where publish staging leftovers accumulate: the parent of the
// publish destination.
func (l *Loop) sweepDir() string {
	if l.cfg.Publish == nil {
		return ""
	}
	consumer := l.cfg.WorkspaceByName(l.cfg.Publish.Consumer)
	if consumer == nil {
		return ""
	}
	dir := l.cfg.Publish.Dir
	if dir == "" {
		dir = config.DefaultPublishDir
	}
	return filepath.Dir(filepath.Join(consumer.Path, dir))
}

// enqueue hands a trigger to the executor. It blocks until the executor has
// room, which pauses the debouncer rather than losing the trigger.
func (l *Loop) enqueue(trigger Trigger) {
	select {
	case l.triggers <- trigger:
	case <-l.stopChan:
	}
}

func (l *Loop) forwardChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-l.watcher.Changes():
			if !ok {
				return
			}
			slog.Debug("Source change",
				logfields.Path(change.Path),
				logfields.Workspace(change.Workspace))
			l.debouncer.Request(change.Workspace, "watch")
		}
	}
}

func (l *Loop) executor(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-l.triggers:
			l.runBuild(ctx, trigger)
		}
	}
}

func (l *Loop) runBuild(ctx context.Context, trigger Trigger) {
	l.building.Store(true)
	l.setState(StateBuilding)
	defer func() {
		l.building.Store(false)
		l.setState(StateRunning)
	}()

	slog.Info("Coalesced build trigger",
		slog.Int("requests", trigger.RequestCount),
		slog.String("cause", trigger.Cause),
		slog.String("reason", trigger.LastReason))

	report, err := l.builds.Run(ctx, build.Request{
		Reason:     trigger.LastReason,
		Workspaces: trigger.Workspaces,
	})
	if report != nil {
		l.mu.Lock()
		l.lastReport = report
		l.mu.Unlock()
	}
	if err != nil {
		slog.Error("Build failed", logfields.Error(err))
	}
}

func (l *Loop) setState(state string) {
	l.mu.Lock()
	l.state = state
	l.mu.Unlock()
}

// State implements the admin runtime view.
func (l *Loop) State() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// StartTime reports when Start ran.
func (l *Loop) StartTime() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.startedAt
}

// QueueLength counts triggers that have not started building yet.
func (l *Loop) QueueLength() int {
	n := len(l.triggers)
	if l.debouncer != nil && l.debouncer.Pending() {
		n++
	}
	return n
}

// LastReport returns the most recent build report, or nil before the first
// build finishes.
func (l *Loop) LastReport() *pipeline.Report {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastReport
}

// TriggerBuild requests a full rebuild on behalf of the admin API.
func (l *Loop) TriggerBuild(reason string) string {
	select {
	case <-l.stopChan:
		return "stopped"
	default:
	}

	l.debouncer.Request("", reason)
	if l.building.Load() {
		return "queued behind running build"
	}
	return "queued"
}
