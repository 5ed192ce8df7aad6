package depgraph

import "fmt"

// Loc is a source position carried for diagnostics. The zero value means
// "position unknown".
type Loc struct {
	File string
	Line int
	Col  int
}

// IsZero reports whether no position information is present.
func (l Loc) IsZero() bool {
	return l.File == "" && l.Line == 0 && l.Col == 0
}

func (l Loc) String() string {
	if l.IsZero() {
		return ""
	}
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Col)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}
