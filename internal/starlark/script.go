package starlark

import (
	"context"
	"errors"
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Script is a loaded, frozen Starlark module.
type Script struct {
	name    string
	globals starlark.StringDict
	pool    *ThreadPool
}

// Load executes src once, with predeclared globals, and freezes the result.
// src may be nil, in which case filename is read.
func Load(filename string, src any, predeclared starlark.StringDict, pool *ThreadPool) (*Script, error) {
	thread := pool.Get(filename)
	defer pool.Put(thread)

	opts := &syntax.FileOptions{Set: true, While: true, TopLevelControl: true, GlobalReassign: true}
	globals, err := starlark.ExecFileOptions(opts, thread, filename, src, predeclared)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filename, describeError(err))
	}
	return &Script{name: filename, globals: globals, pool: pool}, nil
}

// Name returns the file name the script was loaded from.
func (s *Script) Name() string {
	return s.name
}

// Has reports whether the script defines a callable global fn.
func (s *Script) Has(fn string) bool {
	_, ok := s.globals[fn].(starlark.Callable)
	return ok
}

// Call invokes the global function fn with args converted by GoToStarlark
// and returns its result converted by ToGo. Cancelling ctx interrupts the
// script.
func (s *Script) Call(ctx context.Context, fn string, args ...any) (any, error) {
	callable, ok := s.globals[fn].(starlark.Callable)
	if !ok {
		return nil, fmt.Errorf("%s: %s is not defined", s.name, fn)
	}

	sargs := make(starlark.Tuple, len(args))
	for i, a := range args {
		v, err := GoToStarlark(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", fn, i, err)
		}
		sargs[i] = v
	}

	thread := s.pool.Get(s.name)
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})

	result, err := starlark.Call(thread, callable, sargs, nil)
	if stop() {
		s.pool.Put(thread)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, describeError(err))
	}

	out, err := ToGo(result)
	if err != nil {
		return nil, fmt.Errorf("%s result: %w", fn, err)
	}
	return out, nil
}

// describeError keeps the Starlark backtrace, which carries the script
// position, in the message.
func describeError(err error) error {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return fmt.Errorf("%s", evalErr.Backtrace())
	}
	return err
}
