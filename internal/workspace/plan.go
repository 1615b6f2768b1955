package workspace

import (
	"fmt"
	"sort"
	"strings"
)

// CycleError reports that the dependency graph contains at least one cycle.
// Members holds the names of every workspace that could not be scheduled, in
// lexical order. A plan is never returned alongside it.
type CycleError struct {
	Members []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle among workspaces: %s", strings.Join(e.Members, ", "))
}

// BuildPlan is the batched execution order for a graph. Workspaces within a
// batch have no edges between them and may build concurrently; every
// workspace depends only on members of strictly earlier batches.
type BuildPlan struct {
	Batches [][]*Workspace
}

// WorkspaceCount returns the total number of workspaces across all batches.
func (p *BuildPlan) WorkspaceCount() int {
	total := 0
	for _, batch := range p.Batches {
		total += len(batch)
	}
	return total
}

// Filter returns a plan containing only the kept workspaces. Relative batch
// order is preserved and batches left empty are dropped, so dependency
// ordering among the kept members still holds.
func (p *BuildPlan) Filter(keep map[string]bool) *BuildPlan {
	filtered := &BuildPlan{}
	for _, batch := range p.Batches {
		var members []*Workspace
		for _, ws := range batch {
			if keep[ws.Name] {
				members = append(members, ws)
			}
		}
		if len(members) > 0 {
			filtered.Batches = append(filtered.Batches, members)
		}
	}
	return filtered
}

// BatchNames returns the plan as batches of workspace names, preserving
// batch order and the lexical order within each batch.
func (p *BuildPlan) BatchNames() [][]string {
	out := make([][]string, len(p.Batches))
	for i, batch := range p.Batches {
		names := make([]string, len(batch))
		for j, ws := range batch {
			names[j] = ws.Name
		}
		out[i] = names
	}
	return out
}

// Resolve layers the graph into a BuildPlan by repeated in-degree
// elimination. Each round schedules every workspace whose dependencies were
// all scheduled in earlier rounds; members of a round are ordered by name.
// A round that makes no progress while workspaces remain means the leftovers
// form or depend on a cycle, reported as a CycleError.
func Resolve(g *Graph) (*BuildPlan, error) {
	// Unmet dependency counts plus a reverse adjacency, so scheduling a
	// workspace can decrement exactly its dependents.
	pending := make(map[string]int, g.Len())
	dependents := make(map[string][]string, g.Len())
	for _, ws := range g.Workspaces() {
		pending[ws.Name] = len(ws.DependsOn)
		for _, dep := range ws.DependsOn {
			dependents[dep] = append(dependents[dep], ws.Name)
		}
	}

	plan := &BuildPlan{}

	for len(pending) > 0 {
		var ready []string
		for _, name := range g.Names() {
			if count, ok := pending[name]; ok && count == 0 {
				ready = append(ready, name)
			}
		}

		if len(ready) == 0 {
			members := make([]string, 0, len(pending))
			for name := range pending {
				members = append(members, name)
			}
			sort.Strings(members)
			return nil, &CycleError{Members: members}
		}

		batch := make([]*Workspace, 0, len(ready))
		for _, name := range ready {
			ws, _ := g.Lookup(name)
			batch = append(batch, ws)
			delete(pending, name)
		}
		for _, name := range ready {
			for _, dependent := range dependents[name] {
				if _, ok := pending[dependent]; ok {
					pending[dependent]--
				}
			}
		}

		plan.Batches = append(plan.Batches, batch)
	}

	return plan, nil
}
