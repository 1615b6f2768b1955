package metrics

import "time"

// ResultLabel enumerates per-workspace build result categories for counters.
type ResultLabel string

const (
	ResultSucceeded ResultLabel = "succeeded"
	ResultFailed    ResultLabel = "failed"
	ResultSkipped   ResultLabel = "skipped"
)

// OutcomeLabel enumerates pipeline-level outcomes.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines observability hooks for pipeline, publish and routing
// metrics. Implementations may forward to Prometheus, OpenTelemetry, etc.
// All methods must be safe on the zero value so injection stays optional.
type Recorder interface {
	ObserveWorkspaceDuration(workspace string, d time.Duration, success bool)
	IncWorkspaceResult(workspace string, result ResultLabel)
	ObservePipelineDuration(d time.Duration)
	IncPipelineOutcome(outcome OutcomeLabel)
	SetPlannedWorkspaces(n int)
	IncPublishResult(success bool)
	IncRouteRequest(class string, status int)
	ObserveRequestDuration(class string, d time.Duration)
	IncProxyError(reason string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveWorkspaceDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncWorkspaceResult(string, ResultLabel)               {}
func (NoopRecorder) ObservePipelineDuration(time.Duration)                {}
func (NoopRecorder) IncPipelineOutcome(OutcomeLabel)                      {}
func (NoopRecorder) SetPlannedWorkspaces(int)                             {}
func (NoopRecorder) IncPublishResult(bool)                                {}
func (NoopRecorder) IncRouteRequest(string, int)                          {}
func (NoopRecorder) ObserveRequestDuration(string, time.Duration)         {}
func (NoopRecorder) IncProxyError(string)                                 {}
