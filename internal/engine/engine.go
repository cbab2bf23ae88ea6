// Package engine runs configured linters over a set of files.
// It matches files to checkers, resolves per-file overrides, reuses adapter
// instances across files and collects the normalized notices.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/metalint/pkg/config"
	"github.com/leapstack-labs/metalint/pkg/glob"
	"github.com/leapstack-labs/metalint/pkg/lint"
)

// Engine orchestrates linter runs. It holds no per-run state and may run
// concurrently.
type Engine struct {
	registry    *lint.Registry
	logger      *slog.Logger
	concurrency int
}

// Config holds engine configuration.
type Config struct {
	// Registry resolves linter identities. Defaults to lint.Default().
	Registry *lint.Registry
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Concurrency bounds how many files are linted at once. Defaults to
	// GOMAXPROCS.
	Concurrency int
}

// New creates an engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	registry := cfg.Registry
	if registry == nil {
		registry = lint.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Engine{
		registry:    registry,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Registry returns the registry linter identities are resolved against.
func (e *Engine) Registry() *lint.Registry {
	return e.registry
}

// Run lints files, given relative to root, with checkers.
//
// Every file appears in the result: nil when no linter ran on it, a possibly
// empty list otherwise. Paths that notices name on their own, such as archive
// members, are added as keys. An error is returned only for configuration
// problems, detected before any file is processed, or when ctx is cancelled.
func (e *Engine) Run(ctx context.Context, files []string, checkers []config.Checker, root string) (map[string][]lint.Notice, error) {
	runID := uuid.NewString()
	logger := e.logger.With("run_id", runID)
	start := time.Now()

	compiled, err := e.prepare(checkers, root)
	if err != nil {
		return nil, err
	}

	logger.Info("starting lint run", "files", len(files), "checkers", len(checkers), "root", root)

	r := &run{
		engine:    e,
		logger:    logger,
		root:      root,
		files:     slices.Clone(files),
		checkers:  compiled,
		results:   lint.NewResults(files),
		resolved:  make(map[string][]config.LinterConfig),
		instances: make(map[string]*instance),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, file := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r.lintFile(gctx, file)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		logger.Info("lint run cancelled", "error", err.Error())
		return nil, err
	}

	out := r.results.Map()
	logger.Info("lint run completed",
		"instances", len(r.instances),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// =============================================================================
// Setup
// =============================================================================

type compiledChecker struct {
	index     int
	checker   config.Checker
	glob      *glob.Glob
	overrides []*glob.Glob
}

// prepare compiles every pattern list and checks every linter identity, so
// configuration errors surface before the first file is touched.
func (e *Engine) prepare(checkers []config.Checker, root string) ([]compiledChecker, error) {
	if err := config.Validate(checkers, func(name string) bool {
		_, ok := e.registry.Lookup(name)
		return ok
	}); err != nil {
		return nil, err
	}

	opts := glob.Options{Cwd: root, Root: root}
	compiled := make([]compiledChecker, 0, len(checkers))
	for i, c := range checkers {
		g, err := glob.New(c.Patterns, opts)
		if err != nil {
			return nil, fmt.Errorf("checker %d: %w", i, err)
		}
		cc := compiledChecker{index: i, checker: c, glob: g}
		for j, o := range c.Overrides {
			og, err := glob.New(o.Patterns, opts)
			if err != nil {
				return nil, fmt.Errorf("checker %d override %d: %w", i, j, err)
			}
			cc.overrides = append(cc.overrides, og)
		}
		compiled = append(compiled, cc)
	}
	return compiled, nil
}

// =============================================================================
// Per-run state
// =============================================================================

type run struct {
	engine   *Engine
	logger   *slog.Logger
	root     string
	files    []string
	checkers []compiledChecker
	results  *lint.Results

	mu        sync.Mutex
	resolved  map[string][]config.LinterConfig
	instances map[string]*instance
}

// instance is a lazily constructed adapter shared by every file that
// resolves to the same configuration.
type instance struct {
	once    sync.Once
	adapter lint.Adapter
	err     error
}

func (r *run) lintFile(ctx context.Context, file string) {
	for _, c := range r.checkers {
		if !c.glob.Test(file) {
			continue
		}

		var matched []int
		for i, og := range c.overrides {
			if og.Test(file) {
				matched = append(matched, i)
			}
		}

		for _, lc := range r.resolve(c, matched) {
			if ctx.Err() != nil {
				return
			}
			r.results.Add(file, r.invoke(ctx, c.index, matched, lc, file))
		}
	}
}

// resolve returns the Stage B linter list of checker c for one combination
// of matching overrides, computing it once per run.
func (r *run) resolve(c compiledChecker, matched []int) []config.LinterConfig {
	key := fmt.Sprint(c.index, matched)

	r.mu.Lock()
	defer r.mu.Unlock()
	if linters, ok := r.resolved[key]; ok {
		return linters
	}

	overrides := make([]config.Override, len(matched))
	for i, m := range matched {
		overrides[i] = c.checker.Overrides[m]
	}
	linters := c.checker.ResolveLinters(overrides...)
	r.resolved[key] = linters
	return linters
}

func (r *run) invoke(ctx context.Context, checker int, overrides []int, lc config.LinterConfig, file string) []lint.Notice {
	inst := r.instance(fingerprint(checker, overrides, lc))
	inst.once.Do(func() {
		inst.adapter, inst.err = r.construct(lc)
	})
	if inst.err != nil {
		return lint.Filter(lc.Threshold(), []lint.Notice{lint.Fatal(file, lc.Linter, inst.err)})
	}

	notices := safeLint(ctx, inst.adapter, lc.Linter, file)
	for i := range notices {
		if notices[i].Linter == "" {
			notices[i].Linter = lc.Linter
		}
	}
	return lint.Filter(lc.Threshold(), notices)
}

func (r *run) instance(key string) *instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[key]
	if !ok {
		inst = &instance{}
		r.instances[key] = inst
	}
	return inst
}

func (r *run) construct(lc config.LinterConfig) (adapter lint.Adapter, err error) {
	def, ok := r.engine.registry.Lookup(lc.Linter)
	if !ok {
		return nil, fmt.Errorf("%w %q", config.ErrUnknownLinter, lc.Linter)
	}
	if len(lc.Options) > 0 && !def.Configurable {
		return nil, fmt.Errorf("linter %q takes no options", lc.Linter)
	}

	defer func() {
		if p := recover(); p != nil {
			adapter, err = nil, fmt.Errorf("constructing %s: panic: %v", lc.Linter, p)
		}
	}()

	lctx := lint.Context{
		Level:  lc.Threshold(),
		Fix:    lc.FixEnabled(),
		Root:   r.root,
		Files:  r.files,
		Logger: r.logger.With("linter", lc.Linter),
	}
	r.logger.Debug("constructing adapter", "linter", lc.Linter, "level", lctx.Level.String(), "fix", lctx.Fix)

	adapter, err = def.New(lctx, config.CloneOptions(lc.Options))
	if err != nil {
		return nil, fmt.Errorf("constructing %s: %w", lc.Linter, err)
	}
	if adapter == nil {
		return nil, fmt.Errorf("constructing %s: factory returned no adapter", lc.Linter)
	}
	return adapter, nil
}

// safeLint calls the adapter, turning a panic into a fatal notice.
func safeLint(ctx context.Context, a lint.Adapter, linter, file string) (notices []lint.Notice) {
	defer func() {
		if p := recover(); p != nil {
			notices = []lint.Notice{lint.Fatal(file, linter, fmt.Errorf("panic: %v", p))}
		}
	}()
	return a.Lint(ctx, file)
}

// describe renders a path list for log lines.
func describe(paths []string) string {
	if len(paths) > 5 {
		return strings.Join(paths[:5], ", ") + fmt.Sprintf(" (+%d)", len(paths)-5)
	}
	return strings.Join(paths, ", ")
}
