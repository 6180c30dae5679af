package pipeline

import "fmt"

// Trace is the per-request log accumulator surfaced in the response "logs"
// field. One Trace per request; stages append as they run, so there is no
// shared mutable state across concurrent requests.
type Trace struct {
	lines []string
}

func NewTrace() *Trace {
	return &Trace{}
}

func (t *Trace) Addf(format string, args ...interface{}) {
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}

// Lines returns the accumulated entries in order.
func (t *Trace) Lines() []string {
	if t.lines == nil {
		return []string{}
	}
	return t.lines
}
