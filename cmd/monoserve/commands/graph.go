package commands

import (
	"fmt"
	"strings"

	"github.com/asrafilll/monoserve/internal/build"
	derrors "github.com/asrafilll/monoserve/internal/errors"
	"github.com/asrafilll/monoserve/internal/workspace"
)

// GraphCmd implements the 'graph' command.
type GraphCmd struct {
	Format string `short:"f" help:"Output format: text or dot" default:"text" enum:"text,dot"`
}

func (g *GraphCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadManifest(root.Config)
	if err != nil {
		return err
	}
	graph, err := build.GraphFromConfig(cfg)
	if err != nil {
		return derrors.Wrap(err, derrors.CategoryGraph, derrors.SeverityFatal, "invalid workspace graph")
	}
	plan, err := workspace.Resolve(graph)
	if err != nil {
		return derrors.Wrap(err, derrors.CategoryGraph, derrors.SeverityFatal, "cannot order workspaces")
	}

	switch g.Format {
	case "dot":
		fmt.Print(renderDot(graph))
	default:
		fmt.Print(renderText(graph, plan))
	}
	return nil
}

// renderText prints one line per batch; workspaces within a batch may build
// concurrently.
func renderText(graph *workspace.Graph, plan *workspace.BuildPlan) string {
	var b strings.Builder
	for i, batch := range plan.BatchNames() {
		fmt.Fprintf(&b, "Batch %d: ", i+1)
		for j, name := range batch {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(name)
			if ws, ok := graph.Lookup(name); ok && len(ws.DependsOn) > 0 {
				fmt.Fprintf(&b, " (after %s)", strings.Join(ws.DependsOn, ", "))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderDot emits a Graphviz digraph with edges pointing from a workspace to
// the workspaces it depends on.
func renderDot(graph *workspace.Graph) string {
	var b strings.Builder
	b.WriteString("digraph workspaces {\n")
	b.WriteString("  rankdir=LR;\n")
	for _, name := range graph.Names() {
		ws, _ := graph.Lookup(name)
		if len(ws.DependsOn) == 0 {
			fmt.Fprintf(&b, "  %q;\n", name)
			continue
		}
		for _, dep := range ws.DependsOn {
			fmt.Fprintf(&b, "  %q -> %q;\n", name, dep)
		}
	}
	b.WriteString("}\n")
	return b.String()
}
