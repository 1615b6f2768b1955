package workspace

import (
	"fmt"
	"sort"
)

// Workspace describes one buildable package of the monorepo.
type Workspace struct {
	Name      string            // unique identifier, referenced by DependsOn edges
	Path      string            // directory the build command runs in
	Build     string            // opaque build command line, run through the shell
	Output    string            // artifact directory produced by Build, relative to Path
	DependsOn []string          // names of workspaces that must build first
	Env       map[string]string // extra environment for the build command
}

// UnknownDependencyError reports a dependency edge that points at a workspace
// missing from the graph.
type UnknownDependencyError struct {
	Workspace string // the workspace declaring the edge
	Missing   string // the name the edge points at
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("workspace %q depends on unknown workspace %q", e.Workspace, e.Missing)
}

// Graph is the validated, immutable set of workspaces keyed by name.
type Graph struct {
	byName map[string]*Workspace
	names  []string // lexical order
}

// NewGraph validates the workspace set and builds the lookup graph.
// Names must be unique and non-empty, every dependency edge must point at a
// known workspace, and a workspace must not depend on itself. Validation
// failures are reported immediately; a Graph is never returned alongside an
// error.
func NewGraph(workspaces []Workspace) (*Graph, error) {
	byName := make(map[string]*Workspace, len(workspaces))
	names := make([]string, 0, len(workspaces))

	for i := range workspaces {
		ws := workspaces[i]
		if ws.Name == "" {
			return nil, fmt.Errorf("workspace at index %d has no name", i)
		}
		if _, exists := byName[ws.Name]; exists {
			return nil, fmt.Errorf("duplicate workspace name %q", ws.Name)
		}
		byName[ws.Name] = &ws
		names = append(names, ws.Name)
	}

	for _, name := range names {
		ws := byName[name]
		for _, dep := range ws.DependsOn {
			if dep == ws.Name {
				return nil, fmt.Errorf("workspace %q depends on itself", ws.Name)
			}
			if _, ok := byName[dep]; !ok {
				return nil, &UnknownDependencyError{Workspace: ws.Name, Missing: dep}
			}
		}
	}

	sort.Strings(names)
	return &Graph{byName: byName, names: names}, nil
}

// Lookup returns the workspace with the given name.
func (g *Graph) Lookup(name string) (*Workspace, bool) {
	ws, ok := g.byName[name]
	return ws, ok
}

// Names returns all workspace names in lexical order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Workspaces returns all workspaces in lexical name order.
func (g *Graph) Workspaces() []*Workspace {
	out := make([]*Workspace, 0, len(g.names))
	for _, name := range g.names {
		out = append(out, g.byName[name])
	}
	return out
}

// Len returns the number of workspaces in the graph.
func (g *Graph) Len() int {
	return len(g.byName)
}

// TransitiveDeps returns every workspace the named one depends on, directly
// or through intermediaries, in lexical order. Unknown names yield an empty
// slice.
func (g *Graph) TransitiveDeps(name string) []string {
	seen := make(map[string]bool)

	var walk func(string)
	walk = func(n string) {
		ws, ok := g.byName[n]
		if !ok {
			return
		}
		for _, dep := range ws.DependsOn {
			if !seen[dep] {
				seen[dep] = true
				walk(dep)
			}
		}
	}
	walk(name)

	out := make([]string, 0, len(seen))
	for dep := range seen {
		out = append(out, dep)
	}
	sort.Strings(out)
	return out
}

// TransitiveDependents returns every workspace that depends on the named one,
// directly or through intermediaries, in lexical order. This is the set that
// must rebuild when the named workspace changes.
func (g *Graph) TransitiveDependents(name string) []string {
	dependents := make(map[string][]string, len(g.byName))
	for _, ws := range g.byName {
		for _, dep := range ws.DependsOn {
			dependents[dep] = append(dependents[dep], ws.Name)
		}
	}

	seen := make(map[string]bool)

	var walk func(string)
	walk = func(n string) {
		for _, dependent := range dependents[n] {
			if !seen[dependent] {
				seen[dependent] = true
				walk(dependent)
			}
		}
	}
	walk(name)

	out := make([]string, 0, len(seen))
	for dependent := range seen {
		out = append(out, dependent)
	}
	sort.Strings(out)
	return out
}
