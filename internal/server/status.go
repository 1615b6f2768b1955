package server

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	derrors "github.com/asrafilll/monoserve/internal/errors"
	"github.com/asrafilll/monoserve/internal/logfields"
	"github.com/asrafilll/monoserve/internal/pipeline"
	"github.com/asrafilll/monoserve/internal/version"
)

// titleCaser prettifies machine labels ("failed" -> "Failed") for the page.
var titleCaser = cases.Title(language.English)

// reportMarkdown renders the pipeline's report Markdown. The report uses
// pipe tables, so the Table extension is required.
var reportMarkdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// statusPageData feeds the admin status page template.
type statusPageData struct {
	Version      string
	Mode         string
	State        string
	Uptime       string
	Workspaces   int
	QueueLength  int
	LastBuild    *LastBuild
	OutcomeTitle string
	// ReportHTML is the last build report rendered from its Markdown form.
	ReportHTML template.HTML
	Generated  time.Time
}

var statusPageTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>monoserve status</title>
<style>
body { font-family: -apple-system, system-ui, sans-serif; margin: 2rem auto; max-width: 60rem; padding: 0 1rem; color: #222; }
h1 { border-bottom: 2px solid #eee; padding-bottom: .5rem; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #ddd; padding: .4rem .8rem; text-align: left; }
th { background: #f6f6f6; }
dl { display: grid; grid-template-columns: max-content auto; gap: .3rem 1rem; }
dt { font-weight: 600; }
.outcome-success { color: #187a2f; }
.outcome-failed { color: #b31d28; }
.outcome-canceled { color: #735c0f; }
footer { margin-top: 2rem; color: #888; font-size: .85rem; }
</style>
</head>
<body>
<h1>monoserve</h1>
<dl>
<dt>Mode</dt><dd>{{.Mode}}</dd>
<dt>State</dt><dd>{{.State}}</dd>
<dt>Uptime</dt><dd>{{.Uptime}}</dd>
<dt>Workspaces</dt><dd>{{.Workspaces}}</dd>
<dt>Queue</dt><dd>{{.QueueLength}}</dd>
</dl>
{{if .LastBuild}}
<h2>Last build <span class="outcome-{{.LastBuild.Outcome}}">{{.OutcomeTitle}}</span></h2>
{{.ReportHTML}}
{{else}}
<p>No builds recorded yet.</p>
{{end}}
<footer>monoserve {{.Version}} &middot; generated {{.Generated.Format "2006-01-02 15:04:05 MST"}}</footer>
</body>
</html>
`))

func (s *Server) handleStatusPage(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	data := statusPageData{
		Version:    version.Version,
		Mode:       titleCaser.String(string(s.rt.Mode())),
		State:      "Serving",
		Uptime:     s.uptime().Round(time.Second).String(),
		Workspaces: len(s.cfg.Workspaces),
		Generated:  time.Now().UTC(),
	}
	if s.opts.Runtime != nil {
		data.State = titleCaser.String(s.opts.Runtime.State())
		data.QueueLength = s.opts.Runtime.QueueLength()
		if rep := s.opts.Runtime.LastReport(); rep != nil {
			data.LastBuild = lastBuildSummary(rep)
			data.OutcomeTitle = titleCaser.String(string(rep.Outcome))
			data.ReportHTML = renderReportHTML(rep)
		}
	}

	var buf bytes.Buffer
	if err := statusPageTemplate.Execute(&buf, data); err != nil {
		s.errorAdapter.WriteErrorResponse(w,
			derrors.WrapError(err, derrors.CategoryInternal, "failed to render status page"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Response already committed; log and move on.
		slog.Error("failed writing status page", logfields.Error(err))
	}
}

// renderReportHTML converts the report's Markdown rendering to HTML. The
// Markdown is produced by the pipeline itself, so embedding the result is
// safe.
func renderReportHTML(rep *pipeline.Report) template.HTML {
	var buf bytes.Buffer
	if err := reportMarkdown.Convert([]byte(rep.Markdown()), &buf); err != nil {
		return template.HTML("<p>report unavailable</p>")
	}
	return template.HTML(buf.String())
}

func lastBuildSummary(rep *pipeline.Report) *LastBuild {
	counts := rep.CountByStatus()
	return &LastBuild{
		ID:        rep.ID,
		Outcome:   string(rep.Outcome),
		Revision:  rep.Revision,
		StartedAt: rep.StartedAt,
		Duration:  rep.Duration().Round(time.Millisecond).String(),
		Succeeded: counts[pipeline.StatusSucceeded],
		Failed:    counts[pipeline.StatusFailed],
		Skipped:   counts[pipeline.StatusSkipped],
	}
}
