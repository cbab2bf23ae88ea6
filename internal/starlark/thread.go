package starlark

import (
	"log/slog"
	"sync"

	"go.starlark.net/starlark"
)

// ThreadPool hands out Starlark threads for script calls. Threads are not
// safe for concurrent use, so each in-flight call holds its own.
type ThreadPool struct {
	mu       sync.Mutex
	threads  []*starlark.Thread
	maxSize  int
	maxSteps uint64
	logger   *slog.Logger
}

// NewThreadPool creates a pool keeping at most maxSize idle threads. Output
// of the Starlark print builtin goes to logger at debug level. A non-zero
// maxSteps bounds the computation of each call.
func NewThreadPool(maxSize int, maxSteps uint64, logger *slog.Logger) *ThreadPool {
	if maxSize <= 0 {
		maxSize = 10
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ThreadPool{
		threads:  make([]*starlark.Thread, 0, maxSize),
		maxSize:  maxSize,
		maxSteps: maxSteps,
		logger:   logger,
	}
}

// Get retrieves a thread from the pool or creates a new one.
// The thread name is used for error reporting.
func (p *ThreadPool) Get(name string) *starlark.Thread {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.threads) > 0 {
		thread := p.threads[len(p.threads)-1]
		p.threads = p.threads[:len(p.threads)-1]
		thread.Name = name
		return thread
	}

	thread := &starlark.Thread{
		Name: name,
		Print: func(t *starlark.Thread, msg string) {
			p.logger.Debug(msg, "script", t.Name)
		},
	}
	if p.maxSteps > 0 {
		thread.SetMaxExecutionSteps(p.maxSteps)
	}
	return thread
}

// Put returns a thread to the pool for reuse.
// If the pool is full, the thread is discarded. Cancelled threads must not
// be returned.
func (p *ThreadPool) Put(thread *starlark.Thread) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.threads) < p.maxSize {
		thread.Name = ""
		p.threads = append(p.threads, thread)
	}
}

// Size returns the current number of threads in the pool.
func (p *ThreadPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.threads)
}
