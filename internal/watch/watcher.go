package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/asrafilll/monoserve/internal/config"
	"github.com/asrafilll/monoserve/internal/logfields"
)

// Change is one filesystem modification attributed to a workspace. Workspace
// is empty when the path cannot be tied to a single workspace; consumers
// treat that as "rebuild everything".
type Change struct {
	Workspace string
	Path      string
	At        time.Time
}

// Watcher follows source trees recursively and reports changes on a channel.
// Build output directories, the publish destination, the state dir, staging
// leftovers, node_modules and dotted entries are never watched, so the writes
// a build performs cannot retrigger the build.
type Watcher struct {
	fs      *fsnotify.Watcher
	changes chan Change

	paths []string // the trees to watch, absolute
	skip  map[string]bool

	// workspace roots sorted longest-first so nested paths attribute to the
	// innermost workspace
	roots []watchRoot
}

type watchRoot struct {
	workspace string
	path      string
}

// NewWatcher builds a watcher over dev.watch when configured, otherwise over
// every workspace path.
func NewWatcher(cfg *config.Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	w := &Watcher{
		fs:      fsw,
		changes: make(chan Change, 256),
		skip:    make(map[string]bool),
	}

	for _, wc := range cfg.Workspaces {
		root, err := filepath.Abs(wc.Path)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("resolve workspace path %s: %w", wc.Path, err)
		}
		w.roots = append(w.roots, watchRoot{workspace: wc.Name, path: root})

		output := wc.Output
		if output == "" {
			output = config.DefaultOutputDir
		}
		w.addSkip(filepath.Join(root, output))
	}
	sort.Slice(w.roots, func(i, j int) bool {
		return len(w.roots[i].path) > len(w.roots[j].path)
	})

	if cfg.Publish != nil {
		if consumer := cfg.WorkspaceByName(cfg.Publish.Consumer); consumer != nil {
			dir := cfg.Publish.Dir
			if dir == "" {
				dir = config.DefaultPublishDir
			}
			w.addSkip(filepath.Join(consumer.Path, dir))
		}
	}
	if cfg.Serve.StaticRoot != "" {
		w.addSkip(cfg.Serve.StaticRoot)
	}
	if cfg.StateDir != "" {
		w.addSkip(cfg.StateDir)
	}

	watchPaths := cfg.Dev.Watch
	if len(watchPaths) == 0 {
		for _, wc := range cfg.Workspaces {
			watchPaths = append(watchPaths, wc.Path)
		}
	}
	for _, p := range watchPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("resolve watch path %s: %w", p, err)
		}
		w.paths = append(w.paths, abs)
	}

	return w, nil
}

func (w *Watcher) addSkip(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		w.skip[abs] = true
	}
}

// Start registers every watch tree. Missing paths are skipped with a warning
// so a workspace that has not been checked out yet does not prevent the dev
// loop from starting.
func (w *Watcher) Start() error {
	watched := 0
	for _, root := range w.paths {
		if _, err := os.Stat(root); err != nil {
			slog.Warn("Watch path does not exist, skipping", logfields.Path(root))
			continue
		}
		if err := w.addTree(root); err != nil {
			return err
		}
		watched++
	}
	slog.Info("Watching for source changes", logfields.Count(watched))
	return nil
}

// Changes returns the channel change notifications are delivered on.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Run consumes filesystem events until the context is canceled or the
// watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("File watcher error", logfields.Error(err))
		}
	}
}

// Close stops the underlying filesystem watcher, which ends Run.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	path := filepath.Clean(event.Name)
	if ignoreName(filepath.Base(path)) || w.skip[path] {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addTree(path); err != nil {
				slog.Warn("Failed to watch new directory", logfields.Path(path), logfields.Error(err))
			}
		}
	}

	select {
	case w.changes <- Change{Workspace: w.attribute(path), Path: path, At: time.Now()}:
	default:
		// Burst overflow. The consumer coalesces anyway, so dropping the
		// notification loses nothing.
	}
}

// addTree watches root and every directory below it that is not ignored.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (ignoreName(d.Name()) || w.skip[path]) {
			return fs.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// attribute maps a path to the innermost workspace containing it. Roots are
// sorted longest-first, so the first hit wins.
func (w *Watcher) attribute(path string) string {
	for _, root := range w.roots {
		if underDir(path, root.path) {
			return root.workspace
		}
	}
	return ""
}

func ignoreName(name string) bool {
	if strings.HasPrefix(name, ".") && name != "." {
		return true
	}
	if name == "node_modules" {
		return true
	}
	return strings.Contains(name, ".stage-") || strings.HasSuffix(name, ".prev")
}

func underDir(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
