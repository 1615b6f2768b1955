package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/asrafilll/monoserve/internal/logfields"
	"github.com/asrafilll/monoserve/internal/metrics"
	"github.com/asrafilll/monoserve/internal/workspace"
)

// Status classifies a workspace result within a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Result captures one workspace's outcome within a run.
type Result struct {
	Workspace string        `json:"workspace"`
	Status    Status        `json:"status"`
	Batch     int           `json:"batch"`
	Duration  time.Duration `json:"duration"`
	Detail    string        `json:"detail,omitempty"`
	Output    string        `json:"output,omitempty"`
}

// Runner executes build plans. A single Runner is safe to reuse across runs;
// the dev loop holds one for the lifetime of the process.
type Runner struct {
	commands     CommandRunner
	recorder     metrics.Recorder
	artifactRoot string
}

// RunnerOption configures runner behavior.
type RunnerOption func(*Runner)

// WithRecorder attaches a metrics recorder to the runner.
func WithRecorder(recorder metrics.Recorder) RunnerOption {
	return func(r *Runner) {
		if recorder != nil {
			r.recorder = recorder
		}
	}
}

// WithArtifactRoot enables artifact promotion into the given directory,
// one subdirectory per workspace. Without it builds run in place and the
// raw output directories are left untouched.
func WithArtifactRoot(dir string) RunnerOption {
	return func(r *Runner) {
		r.artifactRoot = dir
	}
}

// NewRunner creates a runner. A nil commands argument selects the platform
// ShellRunner.
func NewRunner(commands CommandRunner, options ...RunnerOption) *Runner {
	r := &Runner{
		commands: commands,
		recorder: metrics.NoopRecorder{},
	}
	if r.commands == nil {
		r.commands = ShellRunner{}
	}

	for _, opt := range options {
		opt(r)
	}

	return r
}

// RunOption adjusts a single run.
type RunOption func(*Report)

// WithRunID overrides the generated run identifier so callers can announce
// the run before it starts.
func WithRunID(id string) RunOption {
	return func(rep *Report) {
		if id != "" {
			rep.ID = id
		}
	}
}

// Run executes the plan batch by batch and always returns a complete report:
// every planned workspace appears exactly once, as succeeded, failed, or
// skipped. The first failed batch stops scheduling; in-flight siblings of
// the failure still run to completion.
func (r *Runner) Run(ctx context.Context, graph *workspace.Graph, plan *workspace.BuildPlan, options ...RunOption) *Report {
	report := newReport(plan.WorkspaceCount())
	for _, opt := range options {
		opt(report)
	}
	r.recorder.SetPlannedWorkspaces(plan.WorkspaceCount())

	slog.Info("Executing build plan",
		logfields.RunID(report.ID),
		logfields.Count(plan.WorkspaceCount()),
		slog.Int("batches", len(plan.Batches)))

	failed := make(map[string]bool)

	for batchIdx, batch := range plan.Batches {
		if len(failed) > 0 || ctx.Err() != nil {
			for _, ws := range batch {
				report.add(r.skipResult(ctx, graph, ws, batchIdx, failed))
			}
			continue
		}

		for _, res := range r.runBatch(ctx, batch, batchIdx) {
			report.add(res)
			if res.Status == StatusFailed {
				failed[res.Workspace] = true
			}
		}
	}

	report.finish(ctx.Err() != nil)

	r.recorder.ObservePipelineDuration(report.Duration())
	r.recorder.IncPipelineOutcome(outcomeLabel(report.Outcome))

	slog.Info("Build plan finished",
		logfields.RunID(report.ID),
		logfields.Outcome(string(report.Outcome)),
		logfields.DurationMS(report.Duration().Seconds()*1000))

	return report
}

// runBatch builds every workspace of a batch concurrently and returns the
// results in batch order.
func (r *Runner) runBatch(ctx context.Context, batch []*workspace.Workspace, batchIdx int) []Result {
	results := make([]Result, len(batch))

	var wg sync.WaitGroup
	for i, ws := range batch {
		wg.Add(1)
		go func(i int, ws *workspace.Workspace) {
			defer wg.Done()
			results[i] = r.runWorkspace(ctx, ws, batchIdx)
		}(i, ws)
	}
	wg.Wait()

	return results
}

func (r *Runner) runWorkspace(ctx context.Context, ws *workspace.Workspace, batchIdx int) Result {
	slog.Info("Building workspace", logfields.Workspace(ws.Name), logfields.Batch(batchIdx))

	start := time.Now()
	output, err := r.commands.Run(ctx, ws)
	result := Result{
		Workspace: ws.Name,
		Batch:     batchIdx,
		Duration:  time.Since(start),
		Output:    output,
	}

	if err == nil && r.artifactRoot != "" {
		err = promoteArtifact(ws, filepath.Join(r.artifactRoot, ws.Name))
	}

	if err != nil {
		result.Status = StatusFailed
		result.Detail = err.Error()
		slog.Error("Workspace build failed",
			logfields.Workspace(ws.Name),
			logfields.DurationMS(result.Duration.Seconds()*1000),
			logfields.Error(err))
		r.recorder.ObserveWorkspaceDuration(ws.Name, result.Duration, false)
		r.recorder.IncWorkspaceResult(ws.Name, metrics.ResultFailed)
		return result
	}

	result.Status = StatusSucceeded
	slog.Info("Workspace build succeeded",
		logfields.Workspace(ws.Name),
		logfields.DurationMS(result.Duration.Seconds()*1000))
	r.recorder.ObserveWorkspaceDuration(ws.Name, result.Duration, true)
	r.recorder.IncWorkspaceResult(ws.Name, metrics.ResultSucceeded)
	return result
}

// skipResult records a workspace that never started. When a failed
// dependency explains the skip, the detail names the nearest one so the
// report reads as cause and effect.
func (r *Runner) skipResult(ctx context.Context, graph *workspace.Graph, ws *workspace.Workspace, batchIdx int, failed map[string]bool) Result {
	detail := "not started: earlier batch failed"
	if ctx.Err() != nil {
		detail = "not started: run canceled"
	}
	for _, dep := range graph.TransitiveDeps(ws.Name) {
		if failed[dep] {
			detail = fmt.Sprintf("not started: dependency %s failed", dep)
			break
		}
	}

	slog.Warn("Skipping workspace", logfields.Workspace(ws.Name), slog.String("reason", detail))
	r.recorder.IncWorkspaceResult(ws.Name, metrics.ResultSkipped)

	return Result{
		Workspace: ws.Name,
		Status:    StatusSkipped,
		Batch:     batchIdx,
		Detail:    detail,
	}
}

func outcomeLabel(o Outcome) metrics.OutcomeLabel {
	switch o {
	case OutcomeFailed:
		return metrics.OutcomeFailed
	case OutcomeCanceled:
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeSuccess
	}
}
