package workspace

import (
	"errors"
	"reflect"
	"testing"
)

func mustGraph(t *testing.T, workspaces []Workspace) *Graph {
	t.Helper()
	g, err := NewGraph(workspaces)
	if err != nil {
		t.Fatalf("NewGraph() failed: %v", err)
	}
	return g
}

func TestResolve_SharedServerClient(t *testing.T) {
	g := mustGraph(t, []Workspace{
		{Name: "shared"},
		{Name: "server", DependsOn: []string{"shared"}},
		{Name: "client", DependsOn: []string{"shared"}},
	})

	plan, err := Resolve(g)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	want := [][]string{
		{"shared"},
		{"client", "server"},
	}
	if got := plan.BatchNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("BatchNames() = %v, want %v", got, want)
	}
	if plan.WorkspaceCount() != 3 {
		t.Errorf("WorkspaceCount() = %d, want 3", plan.WorkspaceCount())
	}
}

func TestResolve_Chain(t *testing.T) {
	g := mustGraph(t, []Workspace{
		{Name: "a"},
		{Name: "b", DependsOn: []string{"a"}},
		{Name: "c", DependsOn: []string{"b"}},
	})

	plan, err := Resolve(g)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	want := [][]string{{"a"}, {"b"}, {"c"}}
	if got := plan.BatchNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("BatchNames() = %v, want %v", got, want)
	}
}

func TestResolve_IndependentWorkspacesShareBatch(t *testing.T) {
	g := mustGraph(t, []Workspace{
		{Name: "web"},
		{Name: "docs"},
		{Name: "admin"},
	})

	plan, err := Resolve(g)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	want := [][]string{{"admin", "docs", "web"}}
	if got := plan.BatchNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("BatchNames() = %v, want %v", got, want)
	}
}

func TestResolve_Diamond(t *testing.T) {
	g := mustGraph(t, []Workspace{
		{Name: "base"},
		{Name: "left", DependsOn: []string{"base"}},
		{Name: "right", DependsOn: []string{"base"}},
		{Name: "top", DependsOn: []string{"left", "right"}},
	})

	plan, err := Resolve(g)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	want := [][]string{
		{"base"},
		{"left", "right"},
		{"top"},
	}
	if got := plan.BatchNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("BatchNames() = %v, want %v", got, want)
	}
}

func TestResolve_Cycle(t *testing.T) {
	g := mustGraph(t, []Workspace{
		{Name: "a", DependsOn: []string{"b"}},
		{Name: "b", DependsOn: []string{"a"}},
	})

	plan, err := Resolve(g)
	if plan != nil {
		t.Error("Resolve() returned a plan alongside a cycle")
	}
	if err == nil {
		t.Fatal("Expected CycleError")
	}

	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("Expected *CycleError, got: %T", err)
	}
	if !reflect.DeepEqual(cycleErr.Members, []string{"a", "b"}) {
		t.Errorf("Members = %v, want [a b]", cycleErr.Members)
	}
}

func TestResolve_CycleIncludesDownstream(t *testing.T) {
	// c is acyclic itself but can never be scheduled because it depends on
	// the a/b cycle; d is independent and schedules fine before the
	// resolver detects the stall.
	g := mustGraph(t, []Workspace{
		{Name: "a", DependsOn: []string{"b"}},
		{Name: "b", DependsOn: []string{"a"}},
		{Name: "c", DependsOn: []string{"a"}},
		{Name: "d"},
	})

	_, err := Resolve(g)
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("Expected *CycleError, got: %v", err)
	}
	if !reflect.DeepEqual(cycleErr.Members, []string{"a", "b", "c"}) {
		t.Errorf("Members = %v, want [a b c]", cycleErr.Members)
	}
}

func TestResolve_EmptyGraph(t *testing.T) {
	g := mustGraph(t, nil)

	plan, err := Resolve(g)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if len(plan.Batches) != 0 {
		t.Errorf("Expected no batches for empty graph, got: %d", len(plan.Batches))
	}
}

func TestBuildPlan_Filter(t *testing.T) {
	g := mustGraph(t, []Workspace{
		{Name: "shared"},
		{Name: "api", DependsOn: []string{"shared"}},
		{Name: "server", DependsOn: []string{"api"}},
		{Name: "client", DependsOn: []string{"api"}},
	})
	plan, err := Resolve(g)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	filtered := plan.Filter(map[string]bool{"api": true, "client": true})
	want := [][]string{{"api"}, {"client"}}
	if !reflect.DeepEqual(filtered.BatchNames(), want) {
		t.Errorf("Filter() batches = %v, want %v", filtered.BatchNames(), want)
	}
	if filtered.WorkspaceCount() != 2 {
		t.Errorf("WorkspaceCount() = %d, want 2", filtered.WorkspaceCount())
	}

	// The original plan is untouched.
	if plan.WorkspaceCount() != 4 {
		t.Errorf("original plan count = %d, want 4", plan.WorkspaceCount())
	}
}

func TestBuildPlan_FilterKeepNone(t *testing.T) {
	g := mustGraph(t, []Workspace{{Name: "a"}, {Name: "b"}})
	plan, err := Resolve(g)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	filtered := plan.Filter(nil)
	if len(filtered.Batches) != 0 {
		t.Errorf("Expected no batches, got %d", len(filtered.Batches))
	}
}
