package workspace

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestNewGraph_Valid(t *testing.T) {
	g, err := NewGraph([]Workspace{
		{Name: "shared", Path: "packages/shared", Build: "npm run build"},
		{Name: "server", Path: "packages/server", Build: "npm run build", DependsOn: []string{"shared"}},
		{Name: "client", Path: "packages/client", Build: "npm run build", DependsOn: []string{"shared"}},
	})
	if err != nil {
		t.Fatalf("NewGraph() failed: %v", err)
	}

	if g.Len() != 3 {
		t.Errorf("Expected 3 workspaces, got: %d", g.Len())
	}

	names := g.Names()
	want := []string{"client", "server", "shared"}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], name)
		}
	}

	ws, ok := g.Lookup("server")
	if !ok {
		t.Fatal("Lookup(server) returned false")
	}
	if ws.Path != "packages/server" {
		t.Errorf("Expected path packages/server, got: %s", ws.Path)
	}

	if _, ok := g.Lookup("missing"); ok {
		t.Error("Lookup(missing) returned true for absent workspace")
	}
}

func TestNewGraph_EmptyName(t *testing.T) {
	_, err := NewGraph([]Workspace{
		{Name: "client", Path: "packages/client"},
		{Name: "", Path: "packages/anon"},
	})
	if err == nil {
		t.Fatal("Expected error for empty workspace name")
	}
	if !strings.Contains(err.Error(), "no name") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestNewGraph_DuplicateName(t *testing.T) {
	_, err := NewGraph([]Workspace{
		{Name: "client", Path: "packages/client"},
		{Name: "client", Path: "packages/client-v2"},
	})
	if err == nil {
		t.Fatal("Expected error for duplicate workspace name")
	}
	if !strings.Contains(err.Error(), `duplicate workspace name "client"`) {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestNewGraph_SelfDependency(t *testing.T) {
	_, err := NewGraph([]Workspace{
		{Name: "server", Path: "packages/server", DependsOn: []string{"server"}},
	})
	if err == nil {
		t.Fatal("Expected error for self-dependency")
	}
	if !strings.Contains(err.Error(), "depends on itself") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestNewGraph_UnknownDependency(t *testing.T) {
	_, err := NewGraph([]Workspace{
		{Name: "client", Path: "packages/client", DependsOn: []string{"shraed"}},
	})
	if err == nil {
		t.Fatal("Expected error for unknown dependency")
	}

	var unknownErr *UnknownDependencyError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("Expected *UnknownDependencyError, got: %T", err)
	}
	if unknownErr.Workspace != "client" {
		t.Errorf("Workspace = %q, want %q", unknownErr.Workspace, "client")
	}
	if unknownErr.Missing != "shraed" {
		t.Errorf("Missing = %q, want %q", unknownErr.Missing, "shraed")
	}
}

func TestGraph_TransitiveDeps(t *testing.T) {
	g, err := NewGraph([]Workspace{
		{Name: "shared"},
		{Name: "api", DependsOn: []string{"shared"}},
		{Name: "server", DependsOn: []string{"api", "shared"}},
		{Name: "client", DependsOn: []string{"api"}},
	})
	if err != nil {
		t.Fatalf("NewGraph() failed: %v", err)
	}

	deps := g.TransitiveDeps("server")
	want := []string{"api", "shared"}
	if len(deps) != len(want) {
		t.Fatalf("TransitiveDeps(server) = %v, want %v", deps, want)
	}
	for i := range want {
		if deps[i] != want[i] {
			t.Errorf("TransitiveDeps(server)[%d] = %q, want %q", i, deps[i], want[i])
		}
	}

	// client reaches shared only through api
	deps = g.TransitiveDeps("client")
	if len(deps) != 2 || deps[0] != "api" || deps[1] != "shared" {
		t.Errorf("TransitiveDeps(client) = %v, want [api shared]", deps)
	}

	if deps := g.TransitiveDeps("shared"); len(deps) != 0 {
		t.Errorf("TransitiveDeps(shared) = %v, want empty", deps)
	}
}

func TestGraph_TransitiveDependents(t *testing.T) {
	g, err := NewGraph([]Workspace{
		{Name: "shared"},
		{Name: "api", DependsOn: []string{"shared"}},
		{Name: "server", DependsOn: []string{"api", "shared"}},
		{Name: "client", DependsOn: []string{"api"}},
	})
	if err != nil {
		t.Fatalf("NewGraph() failed: %v", err)
	}

	got := g.TransitiveDependents("shared")
	want := []string{"api", "client", "server"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TransitiveDependents(shared) = %v, want %v", got, want)
	}

	got = g.TransitiveDependents("api")
	want = []string{"client", "server"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TransitiveDependents(api) = %v, want %v", got, want)
	}

	if got := g.TransitiveDependents("client"); len(got) != 0 {
		t.Errorf("TransitiveDependents(client) = %v, want empty", got)
	}
}
