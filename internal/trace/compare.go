package trace

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Compare renders two action streams as a classic unified diff. Identical
// streams produce the empty string.
func Compare(aName, bName string, a, b []Action) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        actionLines(a),
		B:        actionLines(b),
		FromFile: aName,
		ToFile:   bName,
		Context:  3,
	}
	s, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diffing traces: %w", err)
	}
	return s, nil
}

func actionLines(actions []Action) []string {
	lines := make([]string, len(actions))
	for i, a := range actions {
		lines[i] = fmt.Sprintf("%d %s %s %s\n", a.Seq, a.Action, a.Module, a.Group)
	}
	return lines
}
