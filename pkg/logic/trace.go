package logic

import "github.com/hashicorp/go-hclog"

// Tracer observes resolution without influencing it: Call fires once per
// goal dispatch, Exit the first time that dispatch yields a
// substitution, Redo on every subsequent yield of the same dispatch, and
// Fail if it yields none. A query with no Tracer pays nothing for
// tracing beyond a single nil check per goal.
type Tracer interface {
	Call(goal Compound, depth int)
	Exit(goal Compound, sub Substitution)
	Redo(goal Compound)
	Fail(goal Compound)
}

// hclogTracer renders trace events through an hclog.Logger at Trace
// level: data a developer wants only while actively debugging a query.
type hclogTracer struct {
	log hclog.Logger
}

// NewHCLogTracer returns a Tracer that logs CALL/EXIT/FAIL/REDO events
// through logger at hclog.Trace level.
func NewHCLogTracer(logger hclog.Logger) Tracer {
	return &hclogTracer{log: logger}
}

func (t *hclogTracer) Call(goal Compound, depth int) {
	t.log.Trace("CALL", "goal", goal.String(), "depth", depth)
}

func (t *hclogTracer) Exit(goal Compound, sub Substitution) {
	t.log.Trace("EXIT", "goal", goal.String())
}

func (t *hclogTracer) Redo(goal Compound) {
	t.log.Trace("REDO", "goal", goal.String())
}

func (t *hclogTracer) Fail(goal Compound) {
	t.log.Trace("FAIL", "goal", goal.String())
}
