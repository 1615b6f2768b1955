// Package build provides the canonical build execution pipeline for
// monoserve. All execution paths (CLI, dev daemon, admin trigger) route
// through Service: plan the graph, run the pipeline, publish the producer
// artifact, and record what happened.
package build

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/asrafilll/monoserve/internal/config"
	derrors "github.com/asrafilll/monoserve/internal/errors"
	"github.com/asrafilll/monoserve/internal/events"
	"github.com/asrafilll/monoserve/internal/history"
	"github.com/asrafilll/monoserve/internal/logfields"
	"github.com/asrafilll/monoserve/internal/metrics"
	"github.com/asrafilll/monoserve/internal/pipeline"
	"github.com/asrafilll/monoserve/internal/publish"
	"github.com/asrafilll/monoserve/internal/vcs"
	"github.com/asrafilll/monoserve/internal/workspace"
)

// Request describes one build invocation.
type Request struct {
	// Reason is recorded with the run ("cli", "watch", "schedule", "admin api").
	Reason string

	// Workspaces limits the run to the named workspaces plus everything that
	// transitively depends on them. Empty means the whole graph.
	Workspaces []string

	// SkipPublish leaves the published static root untouched even when the
	// manifest has a publish block.
	SkipPublish bool
}

// Service executes the full build pipeline against a loaded manifest.
type Service struct {
	cfg      *config.Config
	commands pipeline.CommandRunner
	history  *history.Store
	events   events.Publisher
	recorder metrics.Recorder

	// describe stamps the report with the repository revision; injected
	// for tests.
	describe func(path string) (vcs.Stamp, error)
	root     string
}

// NewService creates a build service with default wiring: shell execution,
// no history, no event publishing.
func NewService(cfg *config.Config) *Service {
	return &Service{
		cfg:      cfg,
		events:   events.NoopPublisher{},
		recorder: metrics.NoopRecorder{},
		describe: vcs.Describe,
		root:     ".",
	}
}

// WithCommandRunner injects a command runner (for testing).
func (s *Service) WithCommandRunner(commands pipeline.CommandRunner) *Service {
	s.commands = commands
	return s
}

// WithHistory attaches the persisted build history.
func (s *Service) WithHistory(store *history.Store) *Service {
	s.history = store
	return s
}

// WithEvents attaches a build lifecycle event publisher.
func (s *Service) WithEvents(publisher events.Publisher) *Service {
	if publisher != nil {
		s.events = publisher
	}
	return s
}

// WithRecorder attaches a metrics recorder.
func (s *Service) WithRecorder(recorder metrics.Recorder) *Service {
	if recorder != nil {
		s.recorder = recorder
	}
	return s
}

// WithRevisionFunc injects the revision stamper (for testing).
func (s *Service) WithRevisionFunc(describe func(path string) (vcs.Stamp, error)) *Service {
	s.describe = describe
	return s
}

// WithRepositoryRoot sets the directory revision stamping starts from.
func (s *Service) WithRepositoryRoot(root string) *Service {
	if root != "" {
		s.root = root
	}
	return s
}

// Run executes one complete build: resolve the plan, run every workspace,
// publish the producer artifact, persist and announce the report. The report
// is returned even when the run failed; the error classifies the failure.
func (s *Service) Run(ctx context.Context, req Request) (*pipeline.Report, error) {
	graph, err := GraphFromConfig(s.cfg)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CategoryGraph, derrors.SeverityFatal, "invalid workspace graph")
	}
	plan, err := workspace.Resolve(graph)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CategoryGraph, derrors.SeverityFatal, "cannot plan build")
	}

	var subset map[string]bool
	if len(req.Workspaces) > 0 {
		subset, err = dependentClosure(graph, req.Workspaces)
		if err != nil {
			return nil, derrors.Wrap(err, derrors.CategoryGraph, derrors.SeverityFatal, "cannot plan partial build")
		}
		plan = plan.Filter(subset)
	}

	runID := uuid.NewString()
	revision := s.revision()

	slog.Info("Starting build",
		logfields.RunID(runID),
		slog.String("reason", req.Reason),
		slog.String("revision", revision),
		logfields.Count(plan.WorkspaceCount()))

	if err := s.events.BuildStarted(ctx, runID, plan.WorkspaceCount()); err != nil {
		slog.Warn("Failed to publish build started event", logfields.Error(err))
	}

	runner := pipeline.NewRunner(s.commands,
		pipeline.WithRecorder(s.recorder),
		pipeline.WithArtifactRoot(s.artifactRoot()))
	report := runner.Run(ctx, graph, plan, pipeline.WithRunID(runID))
	report.Revision = revision

	runErr := s.classifyOutcome(ctx, report)

	if runErr == nil && s.shouldPublish(req, subset) {
		if err := s.publishArtifacts(); err != nil {
			s.recorder.IncPublishResult(false)
			runErr = derrors.PublishFailed(s.cfg.Publish.Producer, err)
		} else {
			s.recorder.IncPublishResult(true)
		}
	}

	s.record(ctx, report)

	if err := s.events.BuildFinished(ctx, report); err != nil {
		slog.Warn("Failed to publish build finished event", logfields.Error(err))
	}

	return report, runErr
}

func (s *Service) classifyOutcome(ctx context.Context, report *pipeline.Report) error {
	switch report.Outcome {
	case pipeline.OutcomeSuccess:
		return nil
	case pipeline.OutcomeCanceled:
		cause := ctx.Err()
		if cause == nil {
			cause = context.Canceled
		}
		return derrors.Wrap(cause, derrors.CategoryBuild, derrors.SeverityError, "build canceled")
	default:
		counts := report.CountByStatus()
		return derrors.New(derrors.CategoryBuild, derrors.SeverityError,
			fmt.Sprintf("%d of %d workspaces failed", counts[pipeline.StatusFailed], len(report.Results))).
			WithContext("run_id", report.ID)
	}
}

// dependentClosure expands the requested workspaces into the set that must
// rebuild: the workspaces themselves plus their transitive dependents.
func dependentClosure(graph *workspace.Graph, names []string) (map[string]bool, error) {
	closure := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := graph.Lookup(name); !ok {
			return nil, fmt.Errorf("unknown workspace %q", name)
		}
		closure[name] = true
		for _, dependent := range graph.TransitiveDependents(name) {
			closure[dependent] = true
		}
	}
	return closure, nil
}

// shouldPublish reports whether this run ends with a publish. Partial runs
// that never rebuilt the producer leave the published site alone.
func (s *Service) shouldPublish(req Request, subset map[string]bool) bool {
	if req.SkipPublish || s.cfg.Publish == nil {
		return false
	}
	if subset != nil && !subset[s.cfg.Publish.Producer] {
		return false
	}
	return true
}

// publishArtifacts swaps the producer's promoted artifact into the consumer's
// static directory and sanity-checks the published page's asset references.
func (s *Service) publishArtifacts() error {
	producer := s.cfg.Publish.Producer
	destDir := s.publishDir()
	if destDir == "" {
		return fmt.Errorf("publish consumer %q is not a configured workspace", s.cfg.Publish.Consumer)
	}

	if err := publish.Publish(producer, s.producerArtifactDir(), destDir); err != nil {
		return err
	}

	missing, err := publish.VerifyAssets(destDir)
	if err != nil {
		slog.Warn("Asset verification failed", logfields.Error(err))
		return nil
	}
	if len(missing) > 0 {
		slog.Warn("Published page references missing assets",
			logfields.Workspace(producer),
			logfields.Count(len(missing)),
			slog.Any("assets", missing))
	}
	return nil
}

func (s *Service) record(ctx context.Context, report *pipeline.Report) {
	if s.cfg.StateDir != "" {
		if err := report.Persist(s.cfg.StateDir); err != nil {
			slog.Warn("Failed to persist build report", logfields.Error(err))
		}
	}

	if s.history == nil {
		return
	}
	if err := s.history.Record(ctx, report); err != nil {
		slog.Warn("Failed to record build history", logfields.Error(err))
		return
	}
	if limit := s.cfg.History.Limit; limit > 0 {
		if removed, err := s.history.Prune(ctx, limit); err != nil {
			slog.Warn("Failed to prune build history", logfields.Error(err))
		} else if removed > 0 {
			slog.Debug("Pruned build history", logfields.Count(removed))
		}
	}
}

func (s *Service) revision() string {
	stamp, err := s.describe(s.root)
	if err != nil {
		slog.Debug("No revision stamp for build", logfields.Error(err))
		return ""
	}
	return stamp.String()
}

func (s *Service) artifactRoot() string {
	if s.cfg.StateDir == "" {
		return ""
	}
	return filepath.Join(s.cfg.StateDir, "artifacts")
}

// producerArtifactDir is the directory the publish step copies from: the
// promoted artifact when a state dir manages one, the raw build output
// otherwise.
func (s *Service) producerArtifactDir() string {
	if s.cfg.StateDir != "" {
		return s.cfg.ArtifactDir(s.cfg.Publish.Producer)
	}
	ws := s.cfg.WorkspaceByName(s.cfg.Publish.Producer)
	if ws == nil {
		return ""
	}
	output := ws.Output
	if output == "" {
		output = config.DefaultOutputDir
	}
	return filepath.Join(ws.Path, output)
}

func (s *Service) publishDir() string {
	consumer := s.cfg.WorkspaceByName(s.cfg.Publish.Consumer)
	if consumer == nil {
		return ""
	}
	dir := s.cfg.Publish.Dir
	if dir == "" {
		dir = config.DefaultPublishDir
	}
	return filepath.Join(consumer.Path, dir)
}
