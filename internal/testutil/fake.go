package testutil

import (
	"context"
	"sync"

	"github.com/leapstack-labs/metalint/pkg/lint"
)

// FakeLinter is a scripted adapter. Each instance it builds returns the
// notices Respond gives for a file. Construction and calls are counted.
type FakeLinter struct {
	Name    string
	Respond func(lctx lint.Context, options map[string]any, file string) []lint.Notice

	mu      sync.Mutex
	built   []lint.Context
	calls   map[string]int
	options []map[string]any
}

// Definition returns the registry entry for f.
func (f *FakeLinter) Definition() lint.Definition {
	return lint.Definition{
		Name:         f.Name,
		Description:  "test linter " + f.Name,
		Configurable: true,
		New: func(lctx lint.Context, options map[string]any) (lint.Adapter, error) {
			f.mu.Lock()
			f.built = append(f.built, lctx)
			f.options = append(f.options, options)
			f.mu.Unlock()

			return lint.AdapterFunc(func(_ context.Context, file string) []lint.Notice {
				f.mu.Lock()
				if f.calls == nil {
					f.calls = make(map[string]int)
				}
				f.calls[file]++
				f.mu.Unlock()

				if f.Respond == nil {
					return nil
				}
				return f.Respond(lctx, options, file)
			}), nil
		},
	}
}

// Instances returns the contexts of every instance built so far.
func (f *FakeLinter) Instances() []lint.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]lint.Context(nil), f.built...)
}

// Options returns the options of every instance built so far.
func (f *FakeLinter) Options() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.options...)
}

// Calls returns how many times file was linted.
func (f *FakeLinter) Calls(file string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[file]
}
