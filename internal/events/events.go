// Package events publishes build lifecycle notifications so external
// consumers (chat bots, deployment hooks, dashboards) can react to runs
// without polling the admin API.
//
// Publishing is optional and fire-and-forget: a lost notification never
// fails a build. The NoopPublisher stands in when events are disabled.
package events

import (
	"context"
	"time"

	"github.com/asrafilll/monoserve/internal/pipeline"
)

// Event is the wire form of a build notification.
type Event struct {
	Type       string    `json:"type"`
	RunID      string    `json:"run_id"`
	Timestamp  time.Time `json:"timestamp"`
	Revision   string    `json:"revision,omitempty"`
	Outcome    string    `json:"outcome,omitempty"`
	Workspaces int       `json:"workspaces,omitempty"`
	Failed     int       `json:"failed,omitempty"`
}

const (
	TypeBuildStarted  = "build.started"
	TypeBuildFinished = "build.finished"
)

// Publisher emits build notifications. Implementations must be safe for
// concurrent use.
type Publisher interface {
	BuildStarted(ctx context.Context, runID string, workspaces int) error
	BuildFinished(ctx context.Context, report *pipeline.Report) error
	Close()
}

// NoopPublisher drops all notifications.
type NoopPublisher struct{}

func (NoopPublisher) BuildStarted(context.Context, string, int) error { return nil }

func (NoopPublisher) BuildFinished(context.Context, *pipeline.Report) error { return nil }

func (NoopPublisher) Close() {}

func startedEvent(runID string, workspaces int) Event {
	return Event{
		Type:       TypeBuildStarted,
		RunID:      runID,
		Timestamp:  time.Now(),
		Workspaces: workspaces,
	}
}

func finishedEvent(report *pipeline.Report) Event {
	counts := report.CountByStatus()
	return Event{
		Type:       TypeBuildFinished,
		RunID:      report.ID,
		Timestamp:  time.Now(),
		Revision:   report.Revision,
		Outcome:    string(report.Outcome),
		Workspaces: len(report.Results),
		Failed:     counts[pipeline.StatusFailed],
	}
}
