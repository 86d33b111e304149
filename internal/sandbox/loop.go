package sandbox

import (
	"container/heap"
	"context"
	"math"
	"time"

	"github.com/dop251/goja"
)

// minTimerDelay matches the clamp browsers and Node apply to timers.
const minTimerDelay = time.Millisecond

// timer is one scheduled macrotask.
type timer struct {
	id       int64
	seq      uint64
	due      time.Time
	interval time.Duration
	repeat   bool
	fn       goja.Callable
	args     []goja.Value
	index    int
}

// timerQueue orders timers by due time, then by scheduling order.
type timerQueue []*timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// eventLoop owns the scheduled work of one isolated context.
// It is only touched from the goroutine running the context.
type eventLoop struct {
	vm     *goja.Runtime
	queue  timerQueue
	active map[int64]*timer
	nextID int64
	seq    uint64
}

func newEventLoop(vm *goja.Runtime) *eventLoop {
	return &eventLoop{
		vm:     vm,
		active: make(map[int64]*timer),
	}
}

// install defines the timer globals on the runtime.
func (l *eventLoop) install() error {
	globals := []struct {
		name string
		fn   func(goja.FunctionCall) goja.Value
	}{
		{"setTimeout", func(call goja.FunctionCall) goja.Value { return l.schedule(call, false) }},
		{"setInterval", func(call goja.FunctionCall) goja.Value { return l.schedule(call, true) }},
		{"setImmediate", l.immediate},
		{"clearTimeout", l.clear},
		{"clearInterval", l.clear},
		{"clearImmediate", l.clear},
	}
	for _, g := range globals {
		if err := l.vm.Set(g.name, g.fn); err != nil {
			return err
		}
	}
	return nil
}

func (l *eventLoop) immediate(call goja.FunctionCall) goja.Value {
	var args []goja.Value
	if len(call.Arguments) > 1 {
		args = call.Arguments[1:]
	}
	return l.add(call.Argument(0), 0, false, args)
}

func (l *eventLoop) schedule(call goja.FunctionCall, repeat bool) goja.Value {
	delay := minTimerDelay
	if len(call.Arguments) > 1 {
		ms := call.Argument(1).ToFloat()
		if !math.IsNaN(ms) && ms >= 1 && ms <= math.MaxInt32 {
			delay = time.Duration(ms * float64(time.Millisecond))
		}
	}
	var args []goja.Value
	if len(call.Arguments) > 2 {
		args = call.Arguments[2:]
	}
	return l.add(call.Argument(0), delay, repeat, args)
}

func (l *eventLoop) add(callback goja.Value, delay time.Duration, repeat bool, args []goja.Value) goja.Value {
	fn, ok := goja.AssertFunction(callback)
	if !ok {
		panic(l.vm.NewTypeError("The \"callback\" argument must be of type function"))
	}

	l.nextID++
	l.seq++
	t := &timer{
		id:       l.nextID,
		seq:      l.seq,
		due:      time.Now().Add(delay),
		interval: delay,
		repeat:   repeat,
		fn:       fn,
		args:     append([]goja.Value(nil), args...),
	}
	l.active[t.id] = t
	heap.Push(&l.queue, t)
	return l.vm.ToValue(t.id)
}

func (l *eventLoop) clear(call goja.FunctionCall) goja.Value {
	id := call.Argument(0).ToInteger()
	if t, ok := l.active[id]; ok {
		delete(l.active, id)
		if t.index >= 0 {
			heap.Remove(&l.queue, t.index)
		}
	}
	return goja.Undefined()
}

// pending reports the number of scheduled timers.
func (l *eventLoop) pending() int {
	return len(l.queue)
}

// run drains the timer queue in due order until it is empty or ctx ends.
// afterTask runs after every macrotask, once the runtime has drained its
// promise jobs.
func (l *eventLoop) run(ctx context.Context, afterTask func() error) error {
	wait := time.NewTimer(time.Hour)
	defer wait.Stop()

	for len(l.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		next := l.queue[0]
		if d := time.Until(next.due); d > 0 {
			wait.Reset(d)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-wait.C:
			}
		}

		heap.Pop(&l.queue)
		if next.repeat {
			l.seq++
			next.seq = l.seq
			next.due = time.Now().Add(next.interval)
			heap.Push(&l.queue, next)
		} else {
			delete(l.active, next.id)
		}

		if _, err := next.fn(goja.Undefined(), next.args...); err != nil {
			return err
		}
		if err := afterTask(); err != nil {
			return err
		}
	}
	return nil
}
