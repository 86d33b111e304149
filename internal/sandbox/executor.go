// Package sandbox runs example snippets in fresh, isolated JavaScript contexts.
//
// Every execution gets its own goja runtime. Console output is captured
// through a Sink; timers and promise jobs are drained until the context
// settles or its timeout elapses. Nothing is shared between executions
// except the compiled console prelude, which is immutable.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dop251/goja"

	"github.com/leapstack-labs/snipcheck/internal/transpile"
	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// Runner executes one record in isolation.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines; both finalize as a timeout result.
// - Errors: snippet failures are data on the result, never returned or panicked.
// - Ownership: the record is read-only; the returned result is caller-owned.
type Runner interface {
	Execute(ctx context.Context, rec core.ExampleRecord) core.ExecutionResult
}

// Config configures an Executor.
type Config struct {
	// Timeout is the default per-execution wall-clock limit.
	Timeout time.Duration
	// MaxCallStack bounds snippet recursion depth.
	MaxCallStack int
	// Transpiler lowers snippet source before evaluation. Defaults to transpile.New().
	Transpiler *transpile.Transpiler
	Logger     *slog.Logger
}

// Executor is the goja-backed Runner.
type Executor struct {
	cfg Config
}

var _ Runner = (*Executor)(nil)

// New creates an Executor.
// Returns core.ErrConfiguration if the timeout is not positive.
func New(cfg Config) (*Executor, error) {
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be > 0 (got %v)", core.ErrConfiguration, cfg.Timeout)
	}
	if cfg.MaxCallStack <= 0 {
		cfg.MaxCallStack = core.DefaultMaxCallStack
	}
	if cfg.Transpiler == nil {
		cfg.Transpiler = transpile.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if _, err := preludeProgram(); err != nil {
		return nil, fmt.Errorf("failed to prepare sandbox: %w", err)
	}
	return &Executor{cfg: cfg}, nil
}

// Execute runs rec in a fresh context and returns its result.
// Synthetic parse-error records are not executed.
func (e *Executor) Execute(ctx context.Context, rec core.ExampleRecord) core.ExecutionResult {
	return e.Stream(ctx, rec, nil)
}

// Stream is Execute with every emission also forwarded to sink as it happens.
func (e *Executor) Stream(ctx context.Context, rec core.ExampleRecord, sink Sink) core.ExecutionResult {
	if rec.IsSynthetic() {
		return core.ResultForParseError(rec)
	}

	collector := NewCollector()
	var out Sink = collector
	if sink != nil {
		out = teeSink{collector, sink}
	}

	start := time.Now()
	execErr := e.run(ctx, rec, out)
	duration := time.Since(start).Milliseconds()

	result := core.ExecutionResult{
		ExampleID:  rec.ID,
		Actual:     collector.Lines(),
		Err:        execErr,
		DurationMs: duration,
	}

	attrs := []any{
		slog.String("id", rec.ID),
		slog.Int64("duration_ms", duration),
		slog.Int("lines", len(result.Actual)),
	}
	if execErr != nil {
		attrs = append(attrs, slog.String("error_kind", string(execErr.Kind)))
	}
	e.cfg.Logger.Debug("executed snippet", attrs...)

	return result
}

// timeoutFor returns the effective wall-clock limit for rec.
func (e *Executor) timeoutFor(rec core.ExampleRecord) time.Duration {
	if rec.TimeoutMs > 0 {
		return time.Duration(rec.TimeoutMs) * time.Millisecond
	}
	return e.cfg.Timeout
}

func (e *Executor) run(parent context.Context, rec core.ExampleRecord, sink Sink) *core.ExecError {
	timeout := e.timeoutFor(rec)
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	if ctx.Err() != nil {
		return timeoutError(ctx, timeout)
	}

	code, err := e.cfg.Transpiler.Lower(rec.ID, rec.Language, rec.Source)
	if err != nil {
		return loweringError(err)
	}

	vm := goja.New()
	vm.SetMaxCallStackSize(e.cfg.MaxCallStack)

	env, err := installPrelude(vm, sink)
	if err != nil {
		return core.NewExecError(core.ErrorKindRuntime, "%v", err)
	}
	loop := newEventLoop(vm)
	if err := loop.install(); err != nil {
		return core.NewExecError(core.ErrorKindRuntime, "failed to install timers: %v", err)
	}
	rejections := newRejectionTracker(vm)

	// Interrupt stops synchronous code (including infinite loops) once the
	// deadline passes or the run is cancelled.
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	prog, err := goja.Compile(rec.ID, code, false)
	if err != nil {
		return e.mapError(ctx, env, err, timeout)
	}

	checkRejections := func() error {
		if reason, ok := rejections.unhandled(); ok {
			return &unhandledRejection{reason: reason}
		}
		return nil
	}

	if _, err := vm.RunProgram(prog); err != nil {
		return e.mapError(ctx, env, err, timeout)
	}
	if err := checkRejections(); err != nil {
		return e.mapError(ctx, env, err, timeout)
	}
	if err := loop.run(ctx, checkRejections); err != nil {
		return e.mapError(ctx, env, err, timeout)
	}
	return nil
}

// unhandledRejection is a promise rejection nobody handled by the end of a macrotask.
type unhandledRejection struct {
	reason goja.Value
}

func (u *unhandledRejection) Error() string {
	return "unhandled promise rejection"
}

// mapError converts a failure inside the context to the error taxonomy.
func (e *Executor) mapError(ctx context.Context, env *prelude, err error, timeout time.Duration) *core.ExecError {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return timeoutError(ctx, timeout)
	}

	var rejection *unhandledRejection
	if errors.As(err, &rejection) {
		return core.NewExecError(core.ErrorKindRuntime, "Uncaught (in promise) %s", env.describe(rejection.reason))
	}

	var overflow *goja.StackOverflowError
	if errors.As(err, &overflow) {
		return core.NewExecError(core.ErrorKindRuntime, "RangeError: Maximum call stack size exceeded")
	}

	var exception *goja.Exception
	if errors.As(err, &exception) {
		execErr := core.NewExecError(core.ErrorKindRuntime, "%s", uncaughtMessage(env, exception.Value()))
		execErr.Stack = exception.String()
		return execErr
	}

	var syntax *goja.CompilerSyntaxError
	if errors.As(err, &syntax) {
		return core.NewExecError(core.ErrorKindRuntime, "SyntaxError: %s", syntax.Message)
	}

	return core.NewExecError(core.ErrorKindRuntime, "%v", err)
}

func uncaughtMessage(env *prelude, v goja.Value) string {
	if obj, ok := v.(*goja.Object); ok && obj.ClassName() == "Error" {
		return v.String()
	}
	return "Uncaught " + env.describe(v)
}

func loweringError(err error) *core.ExecError {
	var terr *transpile.Error
	if errors.As(err, &terr) {
		execErr := core.NewExecError(core.ErrorKindRuntime, "SyntaxError: %s", terr.Message)
		execErr.Line = terr.Line
		execErr.Column = terr.Column
		return execErr
	}
	return core.NewExecError(core.ErrorKindRuntime, "failed to lower source: %v", err)
}

func timeoutError(ctx context.Context, timeout time.Duration) *core.ExecError {
	if errors.Is(ctx.Err(), context.Canceled) {
		return core.NewExecError(core.ErrorKindTimeout, "execution cancelled before scheduled work settled")
	}
	return core.NewExecError(core.ErrorKindTimeout, "execution did not settle within %v", timeout)
}

// rejectionTracker records promises rejected without a handler.
type rejectionTracker struct {
	order   []*goja.Promise
	pending map[*goja.Promise]bool
}

func newRejectionTracker(vm *goja.Runtime) *rejectionTracker {
	t := &rejectionTracker{pending: make(map[*goja.Promise]bool)}
	vm.SetPromiseRejectionTracker(func(p *goja.Promise, op goja.PromiseRejectionOperation) {
		switch op {
		case goja.PromiseRejectionReject:
			if !t.pending[p] {
				t.pending[p] = true
				t.order = append(t.order, p)
			}
		case goja.PromiseRejectionHandle:
			delete(t.pending, p)
		}
	})
	return t
}

// unhandled returns the reason of the oldest still-unhandled rejection.
func (t *rejectionTracker) unhandled() (goja.Value, bool) {
	for _, p := range t.order {
		if t.pending[p] {
			return p.Result(), true
		}
	}
	return nil, false
}
