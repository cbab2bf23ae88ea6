package starlark

import (
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// Env describes the run a script lints for. It is exposed to scripts as the
// globals options, root, level and fix.
type Env struct {
	Options map[string]any
	Root    string
	Level   string
	Fix     bool
}

// Predeclared returns the globals every lint script starts with: the Env
// values plus the notice and struct builtins.
func (e Env) Predeclared() (starlark.StringDict, error) {
	opts := e.Options
	if opts == nil {
		opts = map[string]any{}
	}
	options, err := GoToStarlark(opts)
	if err != nil {
		return nil, err
	}
	options.Freeze()

	return starlark.StringDict{
		"options": options,
		"root":    starlark.String(e.Root),
		"level":   starlark.String(e.Level),
		"fix":     starlark.Bool(e.Fix),
		"notice":  starlark.NewBuiltin("notice", notice),
		"struct":  starlark.NewBuiltin("struct", starlarkstruct.Make),
	}, nil
}

// notice(message, line=0, column=0, severity="ERROR", rule="", file="")
// builds the value a lint function returns for one finding.
func notice(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message, rule, file string
	var line, column int
	severity := "ERROR"
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"message", &message,
		"line?", &line,
		"column?", &column,
		"severity?", &severity,
		"rule?", &rule,
		"file?", &file,
	); err != nil {
		return nil, err
	}

	return starlarkstruct.FromStringDict(starlark.String("notice"), starlark.StringDict{
		"message":  starlark.String(message),
		"line":     starlark.MakeInt(line),
		"column":   starlark.MakeInt(column),
		"severity": starlark.String(severity),
		"rule":     starlark.String(rule),
		"file":     starlark.String(file),
	}), nil
}
