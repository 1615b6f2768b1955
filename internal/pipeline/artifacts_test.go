package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/asrafilll/monoserve/internal/workspace"
)

// outputWorkspace creates a workspace directory whose output dir holds the
// given files. Keys may contain nested paths.
func outputWorkspace(t *testing.T, name string, files map[string]string) *workspace.Workspace {
	t.Helper()

	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, "dist", rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll(%q) failed: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile(%q) failed: %v", path, err)
		}
	}

	return &workspace.Workspace{Name: name, Path: dir, Build: "true", Output: "dist"}
}

func readArtifact(t *testing.T, artifactDir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(artifactDir, rel))
	if err != nil {
		t.Fatalf("ReadFile(%q) failed: %v", rel, err)
	}
	return string(data)
}

func TestPromoteArtifact_CopiesOutput(t *testing.T) {
	ws := outputWorkspace(t, "client", map[string]string{
		"index.html":           "<html>v1</html>",
		"assets/app.js":        "console.log(1)",
		"assets/css/style.css": "body{}",
	})
	artifactDir := filepath.Join(t.TempDir(), "artifacts", "client")

	if err := promoteArtifact(ws, artifactDir); err != nil {
		t.Fatalf("promoteArtifact() failed: %v", err)
	}

	if got := readArtifact(t, artifactDir, "index.html"); got != "<html>v1</html>" {
		t.Errorf("index.html = %q, want output copied verbatim", got)
	}
	if got := readArtifact(t, artifactDir, "assets/css/style.css"); got != "body{}" {
		t.Errorf("nested file = %q, want nested layout preserved", got)
	}

	if _, err := os.Stat(artifactDir + ".stage"); !os.IsNotExist(err) {
		t.Errorf("stage directory still present after promotion")
	}

	// The raw output must stay in place for incremental tool caches.
	if _, err := os.Stat(filepath.Join(ws.Path, "dist", "index.html")); err != nil {
		t.Errorf("raw build output disturbed: %v", err)
	}
}

func TestPromoteArtifact_ReplacesExisting(t *testing.T) {
	ws := outputWorkspace(t, "client", map[string]string{
		"index.html": "<html>v1</html>",
		"old.js":     "stale",
	})
	artifactDir := filepath.Join(t.TempDir(), "artifacts", "client")

	if err := promoteArtifact(ws, artifactDir); err != nil {
		t.Fatalf("first promoteArtifact() failed: %v", err)
	}

	// Rebuild the output from scratch: old.js disappears, index.html changes.
	distDir := filepath.Join(ws.Path, "dist")
	if err := os.RemoveAll(distDir); err != nil {
		t.Fatalf("RemoveAll(dist) failed: %v", err)
	}
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		t.Fatalf("MkdirAll(dist) failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(distDir, "index.html"), []byte("<html>v2</html>"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := promoteArtifact(ws, artifactDir); err != nil {
		t.Fatalf("second promoteArtifact() failed: %v", err)
	}

	if got := readArtifact(t, artifactDir, "index.html"); got != "<html>v2</html>" {
		t.Errorf("index.html = %q, want replaced artifact", got)
	}
	if _, err := os.Stat(filepath.Join(artifactDir, "old.js")); !os.IsNotExist(err) {
		t.Errorf("old.js survived promotion, want artifact fully replaced")
	}
}

func TestPromoteArtifact_EmptyOutput(t *testing.T) {
	ws := outputWorkspace(t, "client", map[string]string{"index.html": "<html>v1</html>"})
	artifactDir := filepath.Join(t.TempDir(), "artifacts", "client")

	if err := promoteArtifact(ws, artifactDir); err != nil {
		t.Fatalf("promoteArtifact() failed: %v", err)
	}

	// Simulate a build that exits zero without writing anything.
	if err := os.RemoveAll(filepath.Join(ws.Path, "dist")); err != nil {
		t.Fatalf("RemoveAll(dist) failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(ws.Path, "dist"), 0o755); err != nil {
		t.Fatalf("MkdirAll(dist) failed: %v", err)
	}

	err := promoteArtifact(ws, artifactDir)
	var emptyErr *EmptyOutputError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("promoteArtifact() error = %v, want *EmptyOutputError", err)
	}
	if emptyErr.Workspace != "client" {
		t.Errorf("EmptyOutputError.Workspace = %q, want %q", emptyErr.Workspace, "client")
	}

	// The previous artifact must survive the failed promotion.
	if got := readArtifact(t, artifactDir, "index.html"); got != "<html>v1</html>" {
		t.Errorf("index.html = %q, want previous artifact untouched", got)
	}
}

func TestPromoteArtifact_MissingOutputDir(t *testing.T) {
	ws := &workspace.Workspace{Name: "server", Path: t.TempDir(), Build: "true", Output: "dist"}
	artifactDir := filepath.Join(t.TempDir(), "artifacts", "server")

	err := promoteArtifact(ws, artifactDir)
	var emptyErr *EmptyOutputError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("promoteArtifact() error = %v, want *EmptyOutputError", err)
	}
	if emptyErr.Dir != filepath.Join(ws.Path, "dist") {
		t.Errorf("EmptyOutputError.Dir = %q, want raw output path", emptyErr.Dir)
	}
}

func TestCopyTree_SkipsNonRegularFiles(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "kept.txt"), []byte("kept"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.Symlink(filepath.Join(src, "kept.txt"), filepath.Join(src, "link.txt")); err != nil {
		t.Skipf("symlinks not supported here: %v", err)
	}

	dst := filepath.Join(t.TempDir(), "copy")
	if err := copyTree(src, dst); err != nil {
		t.Fatalf("copyTree() failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dst, "kept.txt")); err != nil {
		t.Errorf("regular file missing from copy: %v", err)
	}
	if _, err := os.Lstat(filepath.Join(dst, "link.txt")); !os.IsNotExist(err) {
		t.Errorf("symlink copied, want non-regular entries skipped")
	}
}
