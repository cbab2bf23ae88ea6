package commands

import (
	"github.com/spf13/cobra"
)

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Run the configured linters",
		Long: `Lint the files selected by the configured checkers.

Each path is walked with the patterns of every checker; without paths the
project root is walked. The exit status is 1 when any FATAL or ERROR notice
is reported.`,
		Example: `  # Lint the whole project
  metalint lint

  # Lint one directory and fix what can be fixed
  metalint lint --fix src

  # Report only errors, as JSON
  metalint lint --level ERROR --formatter json`,
		RunE: RunLint,
	}
}

// RunLint lints the files under args. It is also the root command's action.
func RunLint(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	files, err := cc.Discover(cmd.Context(), args)
	if err != nil {
		return err
	}
	cc.Logger.Info("linting", "files", len(files), "root", cc.Cfg.Root)

	summary, err := cc.Lint(cmd.Context(), files)
	if err != nil {
		return err
	}
	if summary.Failed() {
		return ErrProblems
	}
	return nil
}
