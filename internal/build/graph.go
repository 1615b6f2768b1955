package build

import (
	"github.com/asrafilll/monoserve/internal/config"
	"github.com/asrafilll/monoserve/internal/workspace"
)

// GraphFromConfig maps the manifest's workspace entries into a validated
// graph. Unknown dependency edges and duplicate names surface here, before
// anything runs.
func GraphFromConfig(cfg *config.Config) (*workspace.Graph, error) {
	specs := make([]workspace.Workspace, 0, len(cfg.Workspaces))
	for _, wc := range cfg.Workspaces {
		specs = append(specs, workspace.Workspace{
			Name:      wc.Name,
			Path:      wc.Path,
			Build:     wc.Build,
			Output:    wc.Output,
			DependsOn: wc.DependsOn,
			Env:       wc.Env,
		})
	}
	return workspace.NewGraph(specs)
}
