package trace

import "github.com/roach88/bento/internal/builder"

// Recorder buffers traversal steps in memory so a finished build can be
// recorded in a single transaction. It implements builder.Tracer and is
// not safe for concurrent use; builds call Step sequentially.
type Recorder struct {
	actions []Action
}

func (r *Recorder) Step(step builder.TraceStep) {
	r.actions = append(r.actions, Action{
		Seq:    step.Seq,
		Action: step.Action,
		Module: step.Module,
		Group:  step.Group,
	})
}

// Actions returns the recorded steps in processing order.
func (r *Recorder) Actions() []Action { return r.actions }

// Record packages the recorded steps with the build's identity for
// Store.RecordBuild.
func (r *Recorder) Record(buildID, snapshotHash string, diagnostics int) *BuildRecord {
	return &BuildRecord{
		ID:           buildID,
		SnapshotHash: snapshotHash,
		Diagnostics:  diagnostics,
		Actions:      r.actions,
	}
}
