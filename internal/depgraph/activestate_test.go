package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActiveStateMerge(t *testing.T) {
	tests := []struct {
		name string
		a, b ActiveState
		want ActiveState
	}{
		{"never+never", ActiveNever, ActiveNever, ActiveNever},
		{"never+conditional", ActiveNever, ActiveConditional, ActiveConditional},
		{"conditional+conditional", ActiveConditional, ActiveConditional, ActiveConditional},
		{"conditional+always", ActiveConditional, ActiveAlways, ActiveAlways},
		{"always+never", ActiveAlways, ActiveNever, ActiveAlways},
		{"always+always", ActiveAlways, ActiveAlways, ActiveAlways},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Merge(tt.b))
			// Merge is commutative.
			assert.Equal(t, tt.want, tt.b.Merge(tt.a))
		})
	}
}

func TestActiveStateString(t *testing.T) {
	assert.Equal(t, "never", ActiveNever.String())
	assert.Equal(t, "conditional", ActiveConditional.String())
	assert.Equal(t, "always", ActiveAlways.String())
	assert.Equal(t, "unknown", ActiveState(99).String())
}
