package commands

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/metalint/pkg/glob"
)

// debounceDelay groups the events of one save into a single run.
const debounceDelay = 200 * time.Millisecond

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Lint files again whenever they change",
		Long: `Lint the selected files once, then watch their directories and lint
every selected file that is written or created. Stop with Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			w, err := newWatcher(cc)
			if err != nil {
				return err
			}
			defer func() { _ = w.close() }()

			if err := w.start(cmd.Context(), args); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Watching for changes. Press Ctrl+C to stop.")
			return w.loop(cmd.Context())
		},
	}
}

type watcher struct {
	cc    *CommandContext
	fs    *fsnotify.Watcher
	globs []*glob.Glob
	delay time.Duration
	// runs receives the files of each debounced run, for tests.
	runs chan []string
}

func newWatcher(cc *CommandContext) (*watcher, error) {
	globs := make([]*glob.Glob, len(cc.Checkers))
	for i, c := range cc.Checkers {
		g, err := glob.New(c.Patterns, glob.Options{Cwd: cc.Cfg.Root, Root: cc.Cfg.Root})
		if err != nil {
			return nil, fmt.Errorf("checker %d: %w", i, err)
		}
		globs[i] = g
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &watcher{cc: cc, fs: fsw, globs: globs, delay: debounceDelay}, nil
}

func (w *watcher) close() error {
	return w.fs.Close()
}

// start lints everything under paths once and watches the directories the
// checkers do not prune.
func (w *watcher) start(ctx context.Context, paths []string) error {
	files, err := w.cc.Discover(ctx, paths)
	if err != nil {
		return err
	}
	if _, err := w.cc.Lint(ctx, files); err != nil {
		return err
	}

	if len(paths) == 0 {
		paths = []string{w.cc.Cfg.Root}
	}
	for _, p := range paths {
		if err := w.watchTree(p); err != nil {
			return err
		}
	}
	return nil
}

// pruned reports whether every checker prunes the directory at path.
func (w *watcher) pruned(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, g := range w.globs {
		if g.Classify(abs+"/") != glob.Prune {
			return false
		}
	}
	return true
}

// watchTree adds dir and its subdirectories, skipping those no checker can
// select anything below.
func (w *watcher) watchTree(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.pruned(path) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func (w *watcher) loop(ctx context.Context) error {
	pending := make(map[string]struct{})
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if event.Has(fsnotify.Create) && !w.pruned(event.Name) {
					if err := w.watchTree(event.Name); err != nil {
						w.cc.Logger.Warn("cannot watch directory", "dir", event.Name, "error", err)
					}
				}
				continue
			}
			rel, err := w.cc.relative(event.Name)
			if err != nil {
				continue
			}
			pending[rel] = struct{}{}
			fire = time.After(w.delay)

		case <-fire:
			fire = nil
			files := slices.Sorted(maps.Keys(pending))
			clear(pending)
			if err := w.run(ctx, files); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				w.cc.Logger.Error("lint failed", "error", err)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.cc.Logger.Warn("watcher error", "error", err)
		}
	}
}

// run lints the changed files the checkers select and reports them.
func (w *watcher) run(ctx context.Context, files []string) error {
	results, err := w.cc.Engine.Run(ctx, files, w.cc.Checkers, w.cc.Cfg.Root)
	if err != nil {
		return err
	}
	for file, notices := range results {
		if notices == nil {
			delete(results, file)
		}
	}
	if len(results) > 0 {
		w.cc.Logger.Info("change detected", "files", len(results))
		err = w.cc.Report(results)
	}
	if w.runs != nil {
		w.runs <- slices.Sorted(maps.Keys(results))
	}
	return err
}
