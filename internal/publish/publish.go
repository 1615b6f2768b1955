// Package publish moves a producer workspace's build output into the
// consumer's static-serving directory. The copy is staged next to the
// destination and swapped in with a rename, so a server process starting
// mid-publish never reads a half-populated directory.
package publish

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/asrafilll/monoserve/internal/logfields"
)

// PublishError reports a publish attempt against a missing or empty producer
// output directory. It is distinct from a build failure: the build claimed
// success but produced nothing worth serving. The previously published
// directory is left untouched.
type PublishError struct {
	Producer string
	Dir      string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("nothing to publish for workspace %q: %s is missing or empty", e.Producer, e.Dir)
}

// Publish replaces destDir's contents with srcDir's contents. Fails with
// *PublishError before touching destDir when srcDir has nothing to copy.
func Publish(producer, srcDir, destDir string) error {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		if os.IsNotExist(err) {
			return &PublishError{Producer: producer, Dir: srcDir}
		}
		return fmt.Errorf("read publish source %s: %w", srcDir, err)
	}
	if len(entries) == 0 {
		return &PublishError{Producer: producer, Dir: srcDir}
	}

	if err := os.MkdirAll(filepath.Dir(destDir), 0o755); err != nil {
		return fmt.Errorf("ensure publish parent: %w", err)
	}

	// Unique stage names keep a crashed publish from blocking the next one;
	// leftovers are removed by the stale-stage sweep.
	stageDir := fmt.Sprintf("%s.stage-%d", destDir, time.Now().UnixNano())
	if err := copyTree(srcDir, stageDir); err != nil {
		_ = os.RemoveAll(stageDir)
		return fmt.Errorf("stage publish for %s: %w", producer, err)
	}

	prevDir := destDir + ".prev"
	if err := os.RemoveAll(prevDir); err != nil {
		_ = os.RemoveAll(stageDir)
		return fmt.Errorf("clear publish backup: %w", err)
	}
	if _, err := os.Stat(destDir); err == nil {
		if err := os.Rename(destDir, prevDir); err != nil {
			_ = os.RemoveAll(stageDir)
			return fmt.Errorf("back up published directory: %w", err)
		}
	}
	if err := os.Rename(stageDir, destDir); err != nil {
		return fmt.Errorf("publish %s: %w", producer, err)
	}

	go func() {
		if err := os.RemoveAll(prevDir); err != nil {
			slog.Warn("Failed to remove publish backup", logfields.Path(prevDir), logfields.Error(err))
		}
	}()

	slog.Info("Published artifacts", logfields.Workspace(producer), logfields.Path(destDir))
	return nil
}

// SweepStaleStages removes stage directories under dir older than maxAge,
// left behind by crashed publishes, and reports how many were removed.
func SweepStaleStages(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read %s: %w", dir, err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.Contains(entry.Name(), ".stage-") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			slog.Warn("Failed to remove stale stage", logfields.Path(path), logfields.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		slog.Info("Removed stale publish stages", logfields.Path(dir), logfields.Count(removed))
	}
	return removed, nil
}

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
