// Package cli provides the command-line interface for metalint.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/metalint/internal/cli/commands"
	"github.com/leapstack-labs/metalint/internal/cli/config"
	"github.com/leapstack-labs/metalint/internal/output"
	_ "github.com/leapstack-labs/metalint/pkg/adapters/archive"  // register archive linter
	_ "github.com/leapstack-labs/metalint/pkg/adapters/command"  // register command linter
	_ "github.com/leapstack-labs/metalint/pkg/adapters/jsonlint" // register json linter
	_ "github.com/leapstack-labs/metalint/pkg/adapters/starlint" // register starlark linter
	_ "github.com/leapstack-labs/metalint/pkg/adapters/tomllint" // register toml linter
	_ "github.com/leapstack-labs/metalint/pkg/adapters/yamllint" // register yaml linter
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command. Without a subcommand it
// lints, like `metalint lint`.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "metalint [paths...]",
		Short: "metalint - run many linters from one configuration",
		Long: `metalint runs third-party linters over a project according to a single
configuration file. Checkers bind glob patterns to linters; overrides refine
them for subsets of files.

Configuration is read from .metalint.yaml in the working directory, or the
file named by --config, then METALINT_ environment variables and flags.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flag("config").Changed, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			if cfg.File != "" {
				logger.Debug("using config file", "path", cfg.File)
			}

			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)
			return nil
		},
		Args:          cobra.ArbitraryArgs,
		RunE:          commands.RunLint,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", config.DefaultFile, "config file")
	pf.Bool("fix", false, "Let linters rewrite files")
	pf.String("level", "", "Report threshold: OFF, FATAL, ERROR, WARN, INFO or 0-4")
	pf.StringP("formatter", "f", "", "Output format ("+strings.Join(output.Names(), "|")+")")
	pf.String("color", "", "Color output (auto|always|never)")
	pf.IntP("concurrency", "j", 0, "Files linted at once (default: number of CPUs)")
	pf.BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("formatter", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return output.Names(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"OFF", "FATAL", "ERROR", "WARN", "INFO"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("color", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "always", "never"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewLintCommand())
	rootCmd.AddCommand(commands.NewLintersCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, GitCommit, BuildDate))

	return rootCmd
}

// ExecuteContext runs the root command. Problems found by a lint run are
// not printed as an error; the report already shows them.
func ExecuteContext(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, commands.ErrProblems) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return err
	}
	return nil
}
