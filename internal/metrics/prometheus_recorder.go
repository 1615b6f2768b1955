package metrics

import (
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once              sync.Once
	workspaceDuration *prom.HistogramVec
	workspaceResults  *prom.CounterVec
	pipelineDuration  prom.Histogram
	pipelineOutcomes  *prom.CounterVec
	plannedWorkspaces prom.Gauge
	publishResults    *prom.CounterVec
	routeRequests     *prom.CounterVec
	requestDuration   *prom.HistogramVec
	proxyErrors       *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.workspaceDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "monoserve",
			Name:      "workspace_build_duration_seconds",
			Help:      "Duration of individual workspace builds",
			Buckets:   prom.DefBuckets,
		}, []string{"workspace", "result"})
		pr.workspaceResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "monoserve",
			Name:      "workspace_results_total",
			Help:      "Workspace build results by status",
		}, []string{"workspace", "result"})
		pr.pipelineDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "monoserve",
			Name:      "pipeline_duration_seconds",
			Help:      "Total pipeline run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.pipelineOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "monoserve",
			Name:      "pipeline_outcomes_total",
			Help:      "Pipeline runs by final outcome",
		}, []string{"outcome"})
		pr.plannedWorkspaces = prom.NewGauge(prom.GaugeOpts{
			Namespace: "monoserve",
			Name:      "planned_workspaces",
			Help:      "Workspaces in the most recent build plan",
		})
		pr.publishResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "monoserve",
			Name:      "publish_results_total",
			Help:      "Artifact publish results by success/failure",
		}, []string{"result"})
		pr.routeRequests = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "monoserve",
			Name:      "http_requests_total",
			Help:      "Origin requests by route class and status code",
		}, []string{"class", "code"})
		pr.requestDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "monoserve",
			Name:      "http_request_duration_seconds",
			Help:      "Origin request duration by route class",
			Buckets:   prom.DefBuckets,
		}, []string{"class"})
		pr.proxyErrors = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "monoserve",
			Name:      "proxy_errors_total",
			Help:      "Dev proxy failures by reason",
		}, []string{"reason"})
		reg.MustRegister(pr.workspaceDuration, pr.workspaceResults, pr.pipelineDuration,
			pr.pipelineOutcomes, pr.plannedWorkspaces, pr.publishResults, pr.routeRequests,
			pr.requestDuration, pr.proxyErrors)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveWorkspaceDuration(workspace string, d time.Duration, success bool) {
	if p == nil || p.workspaceDuration == nil {
		return
	}
	p.workspaceDuration.WithLabelValues(workspace, successLabel(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncWorkspaceResult(workspace string, result ResultLabel) {
	if p == nil || p.workspaceResults == nil {
		return
	}
	p.workspaceResults.WithLabelValues(workspace, string(result)).Inc()
}

func (p *PrometheusRecorder) ObservePipelineDuration(d time.Duration) {
	if p == nil || p.pipelineDuration == nil {
		return
	}
	p.pipelineDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPipelineOutcome(outcome OutcomeLabel) {
	if p == nil || p.pipelineOutcomes == nil {
		return
	}
	p.pipelineOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetPlannedWorkspaces(n int) {
	if p == nil || p.plannedWorkspaces == nil {
		return
	}
	p.plannedWorkspaces.Set(float64(n))
}

func (p *PrometheusRecorder) IncPublishResult(success bool) {
	if p == nil || p.publishResults == nil {
		return
	}
	p.publishResults.WithLabelValues(successLabel(success)).Inc()
}

func (p *PrometheusRecorder) IncRouteRequest(class string, status int) {
	if p == nil || p.routeRequests == nil {
		return
	}
	p.routeRequests.WithLabelValues(class, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) ObserveRequestDuration(class string, d time.Duration) {
	if p == nil || p.requestDuration == nil {
		return
	}
	p.requestDuration.WithLabelValues(class).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncProxyError(reason string) {
	if p == nil || p.proxyErrors == nil {
		return
	}
	p.proxyErrors.WithLabelValues(reason).Inc()
}

func successLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}
