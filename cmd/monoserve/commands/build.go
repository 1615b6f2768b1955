package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/asrafilll/monoserve/internal/build"
	"github.com/asrafilll/monoserve/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Workspace   []string `short:"w" help:"Build only these workspaces plus everything that depends on them"`
	SkipPublish bool     `name:"skip-publish" help:"Build without touching the published static root"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadManifest(root.Config)
	if err != nil {
		return err
	}

	svc, _, cleanup, err := newBuildService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := svc.Run(context.Background(), build.Request{
		Reason:      "cli",
		Workspaces:  b.Workspace,
		SkipPublish: b.SkipPublish,
	})
	printReport(report)
	return err
}

// printReport writes the per-workspace outcome table to stdout. Failures are
// reported through the returned error; this is the human-facing summary.
func printReport(report *pipeline.Report) {
	if report == nil {
		return
	}
	for _, res := range report.Results {
		line := fmt.Sprintf("  %-16s %-10s %8s", res.Workspace, res.Status,
			res.Duration.Truncate(time.Millisecond))
		if res.Detail != "" {
			line += "  " + res.Detail
		}
		fmt.Println(line)
	}
	fmt.Println(report.Summary())
}
