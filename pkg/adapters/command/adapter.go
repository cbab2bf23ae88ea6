package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/leapstack-labs/metalint/pkg/adapter"
	"github.com/leapstack-labs/metalint/pkg/core"
	"github.com/leapstack-labs/metalint/pkg/lint"
)

// Name is the identity the adapter is registered under.
const Name = "command"

// FilePlaceholder in an argument is replaced with the linted file.
const FilePlaceholder = "{file}"

// Options configures the adapter.
type Options struct {
	// Command is the program and its arguments. When no argument holds
	// {file}, the file is appended.
	Command []string `mapstructure:"command"`
	// FixArgs are added after Command when fixing is enabled.
	FixArgs []string `mapstructure:"fix_args"`
	// Pattern parses each output line; see DefaultPattern.
	Pattern string `mapstructure:"pattern"`
	// Severities maps the tool's severity labels to FATAL, ERROR, WARN or INFO.
	Severities map[string]string `mapstructure:"severities"`
	// DefaultSeverity applies to findings without a recognized label.
	DefaultSeverity string `mapstructure:"default_severity"`
	// ExitCodes are the statuses meaning the tool ran, with or without
	// findings.
	ExitCodes []int `mapstructure:"exit_codes"`
	// Timeout bounds one run of the tool.
	Timeout time.Duration `mapstructure:"timeout"`
	// Env adds variables to the tool's environment.
	Env map[string]string `mapstructure:"env"`
}

// Adapter runs an external tool per file.
type Adapter struct {
	adapter.Base
	opts    Options
	program string
	parser  *Parser
}

// New builds the adapter. The program is looked up once, here.
func New(lctx lint.Context, options map[string]any) (lint.Adapter, error) {
	opts := Options{
		Pattern:         DefaultPattern,
		DefaultSeverity: core.SeverityError.String(),
		ExitCodes:       []int{0, 1},
	}
	if err := lint.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	if len(opts.Command) == 0 || opts.Command[0] == "" {
		return nil, errors.New("command is required")
	}

	fallback, err := core.ParseSeverity(opts.DefaultSeverity)
	if err != nil {
		return nil, fmt.Errorf("default_severity: %w", err)
	}
	parser, err := NewParser(opts.Pattern, opts.Severities, fallback)
	if err != nil {
		return nil, err
	}
	program, err := exec.LookPath(opts.Command[0])
	if err != nil {
		return nil, fmt.Errorf("finding %s: %w", opts.Command[0], err)
	}

	return &Adapter{
		Base:    adapter.NewBase(Name, lctx),
		opts:    opts,
		program: program,
		parser:  parser,
	}, nil
}

// Lint runs the tool on file.
func (a *Adapter) Lint(ctx context.Context, file string) []lint.Notice {
	if a.Idle() {
		return nil
	}

	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	args := a.args(file)
	cmd := exec.CommandContext(ctx, a.program, args...)
	cmd.Dir = a.Ctx.Root
	cmd.WaitDelay = time.Second
	cmd.Env = os.Environ()
	for k, v := range a.opts.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	a.Logger.Debug("running command", "program", a.program, "args", args)
	err := cmd.Run()

	if ctx.Err() != nil {
		return a.Fatal(file, fmt.Errorf("%s: %w", a.opts.Command[0], ctx.Err()))
	}

	output := slices.Concat(stdout.Bytes(), stderr.Bytes())
	notices := a.parser.Parse(output, file, a.Ctx.Root)

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		if !slices.Contains(a.opts.ExitCodes, exitErr.ExitCode()) && len(notices) == 0 {
			return a.Fatal(file, fmt.Errorf("%s exited with status %d: %s",
				a.opts.Command[0], exitErr.ExitCode(), firstLine(stderr.Bytes(), stdout.Bytes())))
		}
	default:
		return a.Fatal(file, fmt.Errorf("running %s: %w", a.opts.Command[0], err))
	}

	for i := range notices {
		notices[i].Linter = a.Name
	}
	return lint.Filter(a.Ctx.Level, notices)
}

// args builds the argument list for file, without the program name.
func (a *Adapter) args(file string) []string {
	args := slices.Clone(a.opts.Command[1:])
	if a.Ctx.Fix {
		args = append(args, a.opts.FixArgs...)
	}

	replaced := false
	for i, arg := range args {
		if strings.Contains(arg, FilePlaceholder) {
			args[i] = strings.ReplaceAll(arg, FilePlaceholder, file)
			replaced = true
		}
	}
	if !replaced {
		args = append(args, file)
	}
	return args
}

func firstLine(outputs ...[]byte) string {
	for _, out := range outputs {
		for _, line := range strings.Split(string(out), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				return line
			}
		}
	}
	return "no output"
}
