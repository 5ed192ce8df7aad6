package builder

// TraceStep is one processed traversal step.
type TraceStep struct {
	Seq    int
	Action string
	Module string
	Group  string
}

// Tracer observes traversal steps in processing order. Implementations
// must be cheap: the builder calls Step once per queue item.
type Tracer interface {
	Step(TraceStep)
}
