package sandbox

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/dop251/goja"
)

//go:embed prelude.js
var preludeSource string

// preludeProgram compiles the console prelude once; the compiled program is
// immutable and shared by every runtime.
var preludeProgram = sync.OnceValues(func() (*goja.Program, error) {
	return goja.Compile("prelude.js", preludeSource, true)
})

// prelude holds the helpers the prelude returns to Go.
type prelude struct {
	inspect goja.Callable
}

// installPrelude defines console and queueMicrotask on vm, wiring console
// output to sink.
func installPrelude(vm *goja.Runtime, sink Sink) (*prelude, error) {
	prog, err := preludeProgram()
	if err != nil {
		return nil, fmt.Errorf("failed to compile prelude: %w", err)
	}

	setupValue, err := vm.RunProgram(prog)
	if err != nil {
		return nil, fmt.Errorf("failed to load prelude: %w", err)
	}
	setup, ok := goja.AssertFunction(setupValue)
	if !ok {
		return nil, fmt.Errorf("prelude did not evaluate to a function")
	}

	emit := func(call goja.FunctionCall) goja.Value {
		emitText(sink, Stream(call.Argument(0).String()), call.Argument(1).String())
		return goja.Undefined()
	}

	promiseState := func(call goja.FunctionCall) goja.Value {
		p, ok := call.Argument(0).Export().(*goja.Promise)
		if !ok {
			return goja.Undefined()
		}
		result := p.Result()
		if result == nil {
			result = goja.Undefined()
		}
		return vm.NewArray(promiseStateName(p.State()), result)
	}

	helpers, err := setup(goja.Undefined(), vm.ToValue(emit), vm.ToValue(promiseState), vm.GlobalObject())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prelude: %w", err)
	}

	inspect, ok := goja.AssertFunction(helpers.ToObject(vm).Get("inspect"))
	if !ok {
		return nil, fmt.Errorf("prelude did not export inspect")
	}
	return &prelude{inspect: inspect}, nil
}

func promiseStateName(s goja.PromiseState) string {
	switch s {
	case goja.PromiseStateFulfilled:
		return "fulfilled"
	case goja.PromiseStateRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// describe renders a thrown value the way an uncaught exception is reported.
func (p *prelude) describe(v goja.Value) string {
	if v == nil {
		return "undefined"
	}
	if obj, ok := v.(*goja.Object); ok && obj.ClassName() == "Error" {
		return v.String()
	}
	out, err := p.inspect(goja.Undefined(), v)
	if err != nil {
		return v.String()
	}
	return out.String()
}
