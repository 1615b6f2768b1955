package pipeline

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/asrafilll/monoserve/internal/logfields"
	"github.com/asrafilll/monoserve/internal/workspace"
)

// EmptyOutputError reports a build command that exited successfully but left
// its declared output directory missing or empty. The previously promoted
// artifact, if any, stays in place.
type EmptyOutputError struct {
	Workspace string
	Dir       string
}

func (e *EmptyOutputError) Error() string {
	return fmt.Sprintf("workspace %q produced no output in %s", e.Workspace, e.Dir)
}

// promoteArtifact copies the workspace's raw build output into artifactDir.
// The copy lands in a stage directory next to the destination and is swapped
// in with a rename; the old artifact is parked as a .prev backup until the
// swap completes, so readers never observe a partially copied artifact.
func promoteArtifact(ws *workspace.Workspace, artifactDir string) error {
	rawDir := filepath.Join(ws.Path, ws.Output)

	entries, err := os.ReadDir(rawDir)
	if err != nil {
		if os.IsNotExist(err) {
			return &EmptyOutputError{Workspace: ws.Name, Dir: rawDir}
		}
		return fmt.Errorf("read build output %s: %w", rawDir, err)
	}
	if len(entries) == 0 {
		return &EmptyOutputError{Workspace: ws.Name, Dir: rawDir}
	}

	if err := os.MkdirAll(filepath.Dir(artifactDir), 0o755); err != nil {
		return fmt.Errorf("ensure artifact root: %w", err)
	}

	stageDir := artifactDir + ".stage"
	if err := os.RemoveAll(stageDir); err != nil {
		return fmt.Errorf("clear stale artifact stage: %w", err)
	}
	if err := copyTree(rawDir, stageDir); err != nil {
		_ = os.RemoveAll(stageDir)
		return fmt.Errorf("stage artifact for %s: %w", ws.Name, err)
	}

	prevDir := artifactDir + ".prev"
	if err := os.RemoveAll(prevDir); err != nil {
		_ = os.RemoveAll(stageDir)
		return fmt.Errorf("clear artifact backup: %w", err)
	}
	if _, err := os.Stat(artifactDir); err == nil {
		if err := os.Rename(artifactDir, prevDir); err != nil {
			_ = os.RemoveAll(stageDir)
			return fmt.Errorf("back up current artifact: %w", err)
		}
	}
	if err := os.Rename(stageDir, artifactDir); err != nil {
		return fmt.Errorf("promote artifact for %s: %w", ws.Name, err)
	}

	// Backup removal happens off the build path; a leftover .prev directory
	// is harmless and gets cleared on the next promotion.
	go func() {
		if err := os.RemoveAll(prevDir); err != nil {
			slog.Warn("Failed to remove previous artifact backup",
				logfields.Workspace(ws.Name), logfields.Path(prevDir), logfields.Error(err))
		}
	}()

	slog.Debug("Promoted artifact", logfields.Workspace(ws.Name), logfields.Path(artifactDir))
	return nil
}

// copyTree copies the regular files and directories under src into dst,
// preserving the relative layout. Non-regular entries are skipped.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
