package testutil

// ConstantIDGenerator returns the same build identifier every time.
//
// Unlike builder.FixedGenerator, which returns identifiers in sequence and
// panics when exhausted, this generator never runs out. Harness scenarios
// use it so repeated builds in one test produce byte-identical snapshots.
type ConstantIDGenerator struct {
	id string
}

// NewConstantIDGenerator creates a generator for id. An empty id defaults
// to "test-build".
func NewConstantIDGenerator(id string) *ConstantIDGenerator {
	if id == "" {
		id = "test-build"
	}
	return &ConstantIDGenerator{id: id}
}

// Generate returns the fixed identifier. Implements builder.IDGenerator.
func (g *ConstantIDGenerator) Generate() string {
	return g.id
}
