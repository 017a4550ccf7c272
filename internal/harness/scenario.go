package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/arrowpush/internal/engine"
	"github.com/roach88/arrowpush/internal/ir"
)

// Scenario defines a conformance scenario: a rule set, the cases to
// evaluate against it, and the assertions that must hold afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Rules lists CUE rule files loaded after the built-in rules.
	// Relative paths are resolved against the scenario file's directory.
	Rules []string `yaml:"rules,omitempty"`

	// NoBuiltin starts from an empty library instead of the built-in rules.
	NoBuiltin bool `yaml:"no_builtin,omitempty"`

	// RequestID is recorded on every audit row.
	// If empty, testutil.DefaultRequestID is used.
	RequestID string `yaml:"request_id,omitempty"`

	// Cases are evaluated in order.
	Cases []Case `yaml:"cases"`

	// Assertions validate the trace and the audit log.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Case is one reactant/reagent evaluation.
type Case struct {
	Name     string `yaml:"name"`
	Reactant string `yaml:"reactant"`
	Reagent  string `yaml:"reagent"`

	// Expect is checked against the evaluation. If nil, nothing is checked.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected evaluation outcome.
type ExpectClause struct {
	// Arrows is the exact expected arrow list. Empty means no arrows.
	Arrows []ExpectedArrow `yaml:"arrows,omitempty"`

	// Invalid names the side expected to fail parsing: "reactant" or
	// "reagent". Mutually exclusive with Arrows.
	Invalid string `yaml:"invalid,omitempty"`
}

// ExpectedArrow is an arrow written in scenario shorthand.
type ExpectedArrow struct {
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
	Type  string `yaml:"type"`
}

// Annotation converts the shorthand into an ir.ArrowAnnotation.
func (a ExpectedArrow) Annotation() ir.ArrowAnnotation {
	return ir.ArrowAnnotation{StartAtom: a.Start, EndAtom: a.End, Type: ir.ArrowType(a.Type)}
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "rule_fired": Rule produced an arrow (in Case, if set)
	// - "rule_order": Rules produced arrows in this order within Case
	// - "arrow_count": Total arrows (in Case, if set) equal Count
	// - "final_state": Query table and verify expected values
	Type string `yaml:"type"`

	// Case restricts trace assertions to one case.
	Case string `yaml:"case,omitempty"`

	// Rule is the rule ID (used by rule_fired).
	Rule string `yaml:"rule,omitempty"`

	// Rules is the expected firing order (used by rule_order).
	Rules []string `yaml:"rules,omitempty"`

	// Count is the expected number of arrows (used by arrow_count).
	Count int `yaml:"count,omitempty"`

	// Table is the audit table name (used by final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (used by final_state).
	// All fields must match exactly.
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected field values (used by final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertRuleFired  = "rule_fired"
	AssertRuleOrder  = "rule_order"
	AssertArrowCount = "arrow_count"
	AssertFinalState = "final_state"
)

// LoadScenario reads and parses a scenario YAML file. Rule paths are
// resolved against the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i, rulePath := range scenario.Rules {
		if !filepath.IsAbs(rulePath) {
			scenario.Rules[i] = filepath.Join(base, rulePath)
		}
	}

	if err := checkRuleFiles(scenario.Rules); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML without resolving or checking rule
// paths.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
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

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}
	if s.NoBuiltin && len(s.Rules) == 0 {
		return fmt.Errorf("no_builtin requires at least one rules file")
	}

	names := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if names[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		names[c.Name] = true
		if c.Expect != nil {
			if err := validateExpect(i, c.Expect); err != nil {
				return err
			}
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], names); err != nil {
			return err
		}
	}
	return nil
}

func validateExpect(index int, e *ExpectClause) error {
	switch engine.Side(e.Invalid) {
	case "":
	case engine.SideReactant, engine.SideReagent:
		if len(e.Arrows) > 0 {
			return fmt.Errorf("cases[%d].expect: arrows and invalid are mutually exclusive", index)
		}
	default:
		return fmt.Errorf("cases[%d].expect: invalid must be %q or %q, got %q",
			index, engine.SideReactant, engine.SideReagent, e.Invalid)
	}

	for j, a := range e.Arrows {
		if !ir.ArrowType(a.Type).Valid() {
			return fmt.Errorf("cases[%d].expect.arrows[%d]: unknown arrow type %q", index, j, a.Type)
		}
		if a.Start < 0 || a.End < 0 {
			return fmt.Errorf("cases[%d].expect.arrows[%d]: atom indices must be non-negative", index, j)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, cases map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Case != "" && !cases[a.Case] {
		return fmt.Errorf("assertions[%d]: unknown case %q", index, a.Case)
	}

	switch a.Type {
	case AssertRuleFired:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for rule_fired", index)
		}
	case AssertRuleOrder:
		if a.Case == "" {
			return fmt.Errorf("assertions[%d]: case is required for rule_order", index)
		}
		if len(a.Rules) == 0 {
			return fmt.Errorf("assertions[%d]: rules list is required for rule_order", index)
		}
	case AssertArrowCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for arrow_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func checkRuleFiles(paths []string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("rule file not found: %s", p)
		}
	}
	return nil
}
