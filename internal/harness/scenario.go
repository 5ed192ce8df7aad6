package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance scenario: a definition directory to
// build and the expectations on the resulting chunk graph.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Defs is the definition directory to load, relative to the package
	// under test.
	Defs string `yaml:"defs"`

	// Expect holds the assertions to run against the build.
	Expect Expect `yaml:"expect"`
}

// Expect describes the asserted shape of a build. Empty sections are
// skipped, except Groups: when present it must list every chunk group
// the build produces.
type Expect struct {
	// Groups lists all expected chunk groups with per-chunk module
	// membership in binding order.
	Groups []GroupExpect `yaml:"groups,omitempty"`

	// Parents maps a group name to its expected parent group names,
	// order insensitive.
	Parents map[string][]string `yaml:"parents,omitempty"`

	// AsyncEntries maps a group name to the async entry groups forked
	// below it, order insensitive.
	AsyncEntries map[string][]string `yaml:"asyncEntries,omitempty"`

	// Runtimes maps a chunk name to its merged runtime key, runtimes
	// joined by "+".
	Runtimes map[string]string `yaml:"runtimes,omitempty"`

	// Entries maps a chunk name to its entry modules in order.
	Entries map[string][]string `yaml:"entries,omitempty"`

	// Order asserts the global traversal orders.
	Order *OrderExpect `yaml:"order,omitempty"`

	// Diagnostics lists the expected diagnostic codes in order. Omitted
	// or empty means the build must be clean.
	Diagnostics []string `yaml:"diagnostics,omitempty"`

	// Golden names a snapshot fixture under testdata/golden to compare
	// the canonical snapshot bytes against.
	Golden string `yaml:"golden,omitempty"`
}

// GroupExpect describes one expected chunk group.
type GroupExpect struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	// Chunks holds the module names of each chunk, in binding order.
	Chunks [][]string `yaml:"chunks"`
}

// OrderExpect asserts the global pre and post traversal orders over all
// placed modules.
type OrderExpect struct {
	Pre  []string `yaml:"pre,omitempty"`
	Post []string `yaml:"post,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly instead of silently skipping assertions.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Defs == "" {
		return fmt.Errorf("defs is required")
	}
	e := s.Expect
	if len(e.Groups) == 0 && len(e.Parents) == 0 && len(e.AsyncEntries) == 0 &&
		len(e.Runtimes) == 0 && len(e.Entries) == 0 && e.Order == nil &&
		e.Diagnostics == nil && e.Golden == "" {
		return fmt.Errorf("expect must assert something")
	}
	for i, ge := range e.Groups {
		if ge.Name == "" {
			return fmt.Errorf("expect.groups[%d]: name is required", i)
		}
		if ge.Kind == "" {
			return fmt.Errorf("expect.groups[%d]: kind is required", i)
		}
	}
	return nil
}
