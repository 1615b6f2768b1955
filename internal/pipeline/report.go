package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Outcome summarizes a whole run.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// ReportSchemaVersion identifies the persisted report layout. Bump when
// changing field semantics so downstream readers can branch.
const ReportSchemaVersion = 1

const (
	reportJSONName     = "last-build.json"
	reportMarkdownName = "last-build.md"
)

// Report captures a full pipeline run. Revision is stamped by the caller
// once the run finishes; the runner itself has no version control awareness.
type Report struct {
	SchemaVersion int       `json:"schema_version"`
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Revision      string    `json:"revision,omitempty"`
	Outcome       Outcome   `json:"outcome"`
	Results       []Result  `json:"results"`
}

func newReport(planned int) *Report {
	return &Report{
		SchemaVersion: ReportSchemaVersion,
		ID:            uuid.NewString(),
		StartedAt:     time.Now(),
		Results:       make([]Result, 0, planned),
	}
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
}

func (r *Report) finish(canceled bool) {
	r.FinishedAt = time.Now()
	r.Outcome = r.deriveOutcome(canceled)
}

func (r *Report) deriveOutcome(canceled bool) Outcome {
	if canceled {
		return OutcomeCanceled
	}
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			return OutcomeFailed
		}
	}
	return OutcomeSuccess
}

// OK reports whether every planned workspace built successfully.
func (r *Report) OK() bool {
	if r.Outcome != OutcomeSuccess {
		return false
	}
	for _, res := range r.Results {
		if res.Status != StatusSucceeded {
			return false
		}
	}
	return true
}

// Duration returns the wall-clock time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// CountByStatus tallies results per status.
func (r *Report) CountByStatus() map[Status]int {
	counts := make(map[Status]int, 3)
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}

// Summary renders a single log-friendly line for the run.
func (r *Report) Summary() string {
	counts := r.CountByStatus()
	return fmt.Sprintf("run=%s outcome=%s workspaces=%d succeeded=%d failed=%d skipped=%d duration=%s",
		r.ID, r.Outcome, len(r.Results),
		counts[StatusSucceeded], counts[StatusFailed], counts[StatusSkipped],
		r.Duration().Truncate(time.Millisecond))
}

// Markdown renders the report as a human-readable summary table.
func (r *Report) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Build %s\n\n", r.ID)
	fmt.Fprintf(&b, "- Outcome: **%s**\n", r.Outcome)
	if r.Revision != "" {
		fmt.Fprintf(&b, "- Revision: `%s`\n", r.Revision)
	}
	fmt.Fprintf(&b, "- Started: %s\n", r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Duration: %s\n", r.Duration().Truncate(time.Millisecond))
	b.WriteString("\n| Workspace | Batch | Status | Duration | Detail |\n")
	b.WriteString("|-----------|-------|--------|----------|--------|\n")
	for _, res := range r.Results {
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s |\n",
			res.Workspace, res.Batch, res.Status,
			res.Duration.Truncate(time.Millisecond), markdownCell(res.Detail))
	}

	return b.String()
}

// Persist writes the report into dir as last-build.json and last-build.md.
// Both files are written to a temp sibling and renamed into place so readers
// never see a torn report. Persistence failures are reported to the caller
// for logging but never change the run outcome.
func (r *Report) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure report directory: %w", err)
	}

	payload, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, reportJSONName), payload); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, reportMarkdownName), []byte(r.Markdown()))
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// markdownCell folds detail text into a single table cell.
func markdownCell(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
