package sandbox

import (
	"strings"
	"sync"
)

// Stream identifies the console stream an emission was written to.
type Stream string

// Console streams.
const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// Sink receives observable output from an isolated context.
// The executor injects a Sink into every context; snippets can only write to it.
type Sink interface {
	Emit(stream Stream, line string)
}

// Emission is one captured output line.
type Emission struct {
	Stream Stream
	Line   string
}

// Collector is a Sink that records emissions in order.
type Collector struct {
	mu        sync.Mutex
	emissions []Emission
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Emit records one line.
func (c *Collector) Emit(stream Stream, line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emissions = append(c.emissions, Emission{Stream: stream, Line: line})
}

// Lines returns the captured lines of both streams in emission order.
func (c *Collector) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.emissions) == 0 {
		return nil
	}
	lines := make([]string, len(c.emissions))
	for i, e := range c.emissions {
		lines[i] = e.Line
	}
	return lines
}

// Emissions returns a copy of the captured emissions.
func (c *Collector) Emissions() []Emission {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Emission, len(c.emissions))
	copy(out, c.emissions)
	return out
}

// teeSink forwards every emission to all of its sinks.
type teeSink []Sink

func (t teeSink) Emit(stream Stream, line string) {
	for _, s := range t {
		s.Emit(stream, line)
	}
}

// emitText splits a console write into lines.
func emitText(sink Sink, stream Stream, text string) {
	for _, line := range strings.Split(text, "\n") {
		sink.Emit(stream, line)
	}
}
