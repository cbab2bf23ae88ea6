// Package commands implements the metalint subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/metalint/internal/cli/config"
	"github.com/leapstack-labs/metalint/internal/engine"
	"github.com/leapstack-labs/metalint/internal/output"
	lintconfig "github.com/leapstack-labs/metalint/pkg/config"
	"github.com/leapstack-labs/metalint/pkg/lint"
)

// ErrProblems is returned when a run reported a FATAL or ERROR notice. The
// command has already printed its report, so callers only set the exit
// status.
var ErrProblems = errors.New("problems found")

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Checkers []lintconfig.Checker
	Out      io.Writer

	reporters []config.Reporter
	color     output.ColorMode
}

// NewCommandContext resolves the loaded configuration into checkers and
// reporters, and creates the engine.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, ok := config.FromContext(cmd.Context())
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	logger := config.GetLogger(cmd.Context())

	eng := engine.New(engine.Config{
		Registry:    lint.Default(),
		Logger:      logger,
		Concurrency: cfg.Concurrency,
	})

	root, err := cfg.Normalize(func(name string) bool {
		_, ok := eng.Registry().Lookup(name)
		return ok
	})
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	checkers, err := lintconfig.Flatten(root)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	formatFlag := cmd.Flag("formatter")
	reporters, err := cfg.ReporterList(formatFlag != nil && formatFlag.Changed)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	color, err := output.ParseColorMode(cfg.Color)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:       cfg,
		Logger:    logger,
		Engine:    eng,
		Checkers:  checkers,
		Out:       cmd.OutOrStdout(),
		reporters: reporters,
		color:     color,
	}, nil
}

// Discover returns the files under paths, given relative to the working
// directory, that any checker selects. Paths are converted relative to the
// configuration root; a path outside it is an error.
func (c *CommandContext) Discover(ctx context.Context, paths []string) ([]string, error) {
	rel := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := c.relative(p)
		if err != nil {
			return nil, err
		}
		rel = append(rel, r)
	}
	return c.Engine.Discover(ctx, c.Checkers, c.Cfg.Root, rel...)
}

func (c *CommandContext) relative(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(c.Cfg.Root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the project root %s", path, c.Cfg.Root)
	}
	return filepath.ToSlash(rel), nil
}

// Lint runs the engine on files and reports the results. It returns the
// summary of what was reported at the engine's levels.
func (c *CommandContext) Lint(ctx context.Context, files []string) (output.Summary, error) {
	results, err := c.Engine.Run(ctx, files, c.Checkers, c.Cfg.Root)
	if err != nil {
		return output.Summary{}, err
	}
	if err := c.Report(results); err != nil {
		return output.Summary{}, err
	}
	return output.Summarize(results), nil
}

// Report sends results to every configured reporter.
func (c *CommandContext) Report(results map[string][]lint.Notice) (err error) {
	var reporters output.Multi
	for _, rc := range c.reporters {
		w := c.Out
		if rc.Output != "" {
			path := rc.Output
			if !filepath.IsAbs(path) {
				path = filepath.Join(c.Cfg.Root, path)
			}
			f, ferr := os.Create(path)
			if ferr != nil {
				return fmt.Errorf("opening report %s: %w", rc.Output, ferr)
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()
			w = f
		}
		r, rerr := output.New(rc.Formatter, w, output.Options{Level: rc.Level, Color: c.color})
		if rerr != nil {
			return rerr
		}
		reporters = append(reporters, r)
	}
	return output.Report(reporters, results)
}
