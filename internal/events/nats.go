package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/asrafilll/monoserve/internal/pipeline"
)

// NATSPublisher publishes build events to a NATS subject hierarchy:
// <subject>.started and <subject>.finished.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// Connect dials the NATS server. The connection reconnects indefinitely in
// the background; publishes during an outage are buffered by the client.
func Connect(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("monoserve"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}

	slog.Info("Connected to NATS", "url", url, "subject", subject)

	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// BuildStarted announces a run before its first batch executes.
func (p *NATSPublisher) BuildStarted(ctx context.Context, runID string, workspaces int) error {
	return p.publish(ctx, p.subject+".started", startedEvent(runID, workspaces))
}

// BuildFinished announces a finished run with its outcome summary.
func (p *NATSPublisher) BuildFinished(ctx context.Context, report *pipeline.Report) error {
	return p.publish(ctx, p.subject+".finished", finishedEvent(report))
}

func (p *NATSPublisher) publish(ctx context.Context, subject string, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}

	slog.Debug("Published build event", "subject", subject, "run_id", event.RunID)
	return nil
}

// Close flushes buffered publishes and closes the connection.
func (p *NATSPublisher) Close() {
	if p.conn == nil {
		return
	}
	_ = p.conn.Flush()
	p.conn.Close()
}
