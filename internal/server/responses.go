package server

import (
	"time"

	"github.com/asrafilll/monoserve/internal/history"
)

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
	Mode      string    `json:"mode"`
	State     string    `json:"state,omitempty"`
}

// StatusResponse represents the daemon status API response.
type StatusResponse struct {
	Status      string     `json:"status"`
	Mode        string     `json:"mode"`
	StartTime   time.Time  `json:"start_time"`
	Uptime      float64    `json:"uptime"`
	Workspaces  int        `json:"workspaces"`
	QueueLength int        `json:"queue_length"`
	LastBuild   *LastBuild `json:"last_build,omitempty"`
}

// LastBuild summarizes the most recent pipeline run.
type LastBuild struct {
	ID        string    `json:"id"`
	Outcome   string    `json:"outcome"`
	Revision  string    `json:"revision,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
}

// BuildListResponse represents the build history list.
type BuildListResponse struct {
	Builds []history.Entry `json:"builds"`
	Count  int             `json:"count"`
}

// TriggerResponse represents the response for trigger operations.
type TriggerResponse struct {
	Status string `json:"status"`
}
