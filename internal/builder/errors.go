package builder

import (
	"fmt"

	"github.com/roach88/bento/internal/depgraph"
)

// Code classifies a recoverable build problem.
type Code string

const (
	// CodeAsyncNameCollision marks an async boundary naming a chunk group
	// that is already part of the initial load. The boundary degrades to a
	// synchronous edge inside the requesting group.
	CodeAsyncNameCollision Code = "async-name-collision"
	// CodeOptionConflict marks chunk group or entry options that cannot be
	// merged with the options already recorded under the same name. The
	// recorded options win.
	CodeOptionConflict Code = "option-conflict"
	// CodeUnknownDependOn marks an entrypoint depending on an entry name
	// that does not exist. The link is dropped.
	CodeUnknownDependOn Code = "unknown-depend-on"
)

// Diagnostic describes a recoverable problem found during a build. Builds
// never abort: the affected construct degrades and the build carries on,
// so callers must check Result.Diagnostics to learn about conflicts.
type Diagnostic struct {
	Code   Code
	Group  string       // chunk group name involved, if any
	Module string       // module that triggered the problem, if any
	Loc    depgraph.Loc // source position of the reference, if known
	Detail string
}

func (d *Diagnostic) Error() string {
	msg := fmt.Sprintf("%s: %s", d.Code, d.Detail)
	if !d.Loc.IsZero() {
		msg += " (" + d.Loc.String() + ")"
	}
	return msg
}
