package normalize

import (
	"fmt"
	"log/slog"
	"sync"

	"go.starlark.net/starlark"

	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// threadPool recycles Starlark threads across hook calls.
type threadPool struct {
	mu      sync.Mutex
	threads []*starlark.Thread
	maxSize int
}

func newThreadPool(maxSize int) *threadPool {
	if maxSize <= 0 {
		maxSize = 8
	}
	return &threadPool{
		threads: make([]*starlark.Thread, 0, maxSize),
		maxSize: maxSize,
	}
}

func (p *threadPool) get(name string) *starlark.Thread {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.threads); n > 0 {
		thread := p.threads[n-1]
		p.threads = p.threads[:n-1]
		thread.Name = name
		return thread
	}

	return &starlark.Thread{
		Name:  name,
		Print: func(_ *starlark.Thread, _ string) {},
	}
}

func (p *threadPool) put(thread *starlark.Thread) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.threads) < p.maxSize {
		thread.Name = ""
		p.threads = append(p.threads, thread)
	}
}

// Chain applies hooks in order. It is safe for concurrent use.
type Chain struct {
	hooks  []*Hook
	pool   *threadPool
	logger *slog.Logger
}

// NewChain builds a chain over hooks. A nil logger discards warnings.
func NewChain(hooks []*Hook, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Chain{
		hooks:  hooks,
		pool:   newThreadPool(len(hooks) * 4),
		logger: logger,
	}
}

// Len returns the number of hooks.
func (c *Chain) Len() int {
	return len(c.hooks)
}

// Normalize runs line through every hook. A failing hook leaves its input unchanged.
func (c *Chain) Normalize(line string) string {
	for _, h := range c.hooks {
		out, err := c.apply(h, line)
		if err != nil {
			c.logger.Warn("normalizer failed", slog.String("hook", h.Name), slog.String("error", err.Error()))
			continue
		}
		line = out
	}
	return line
}

func (c *Chain) apply(h *Hook, line string) (string, error) {
	thread := c.pool.get("normalize:" + h.Name)
	defer c.pool.put(thread)

	result, err := starlark.Call(thread, h.fn, starlark.Tuple{starlark.String(line)}, nil)
	if err != nil {
		return "", err
	}
	s, ok := starlark.AsString(result)
	if !ok {
		return "", fmt.Errorf("%s returned %s, want string", HookFunc, result.Type())
	}
	return s, nil
}

// Load loads dir and wraps the hooks in a Chain. Loading failures wrap
// core.ErrConfiguration. It returns nil when dir is empty or holds no hooks.
func Load(dir string, logger *slog.Logger) (*Chain, error) {
	if dir == "" {
		return nil, nil
	}
	hooks, err := NewLoader(dir).Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}
	if len(hooks) == 0 {
		return nil, nil
	}
	return NewChain(hooks, logger), nil
}
