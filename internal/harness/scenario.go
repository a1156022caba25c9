package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines a set of rolls answered with canned die values.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SessionID is an optional fixed session id for every roll.
	// If empty, defaults to "test-session-default".
	SessionID string `yaml:"session_id,omitempty"`

	// Budgets overrides the engine's round and dice budgets.
	Budgets *Budgets `yaml:"budgets,omitempty"`

	// Rolls are evaluated in order, each in a fresh session.
	Rolls []RollStep `yaml:"rolls"`

	// Assertions validate the final trace and roll log.
	// Supported types: request_contains, request_order, request_count, final_state
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Budgets limits every session of a scenario. Zero keeps the default.
type Budgets struct {
	Rounds int `yaml:"rounds"`
	Dice   int `yaml:"dice"`
}

// RollStep evaluates one expression.
type RollStep struct {
	// Expression is the dice notation to evaluate.
	Expression string `yaml:"expression"`

	// Responses are the die values handed out, one per requested die, in
	// request order. Dice beyond the script get the face's minimum and fail
	// the step.
	Responses []int `yaml:"responses,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the step only has to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step. Only the fields
// that are set are checked.
type ExpectClause struct {
	Explain string    `yaml:"explain,omitempty"`
	Folded  string    `yaml:"folded,omitempty"`
	Total   *float64  `yaml:"total,omitempty"`
	List    []float64 `yaml:"list,omitempty"`
	Rounds  int       `yaml:"rounds,omitempty"`
	Dice    int       `yaml:"dice,omitempty"`

	// Error is a substring of the expected error. A step expecting an
	// error must not expect a result.
	Error string `yaml:"error,omitempty"`
}

func (e *ExpectClause) expectsResult() bool {
	return e.Explain != "" || e.Folded != "" || e.Total != nil || e.List != nil || e.Rounds != 0 || e.Dice != 0
}

// Assertion validates the trace or the roll log.
type Assertion struct {
	// Type specifies the assertion type:
	// - "request_contains": a request for Face (of Count dice, if set) was made
	// - "request_order": Faces were first requested in this order
	// - "request_count": Face was requested exactly Count times
	// - "final_state": query Table and verify expected values
	Type string `yaml:"type"`

	// Face is a die face such as "d6", "dF" or "dC".
	Face string `yaml:"face,omitempty"`

	// Count is a dice count (request_contains) or a request count
	// (request_count).
	Count int `yaml:"count,omitempty"`

	// Faces is the expected face order (used by request_order).
	Faces []string `yaml:"faces,omitempty"`

	// Table is the roll log table name (used by final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (used by final_state).
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected column values (used by final_state).
	// Subset match - only specified columns are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertRequestContains = "request_contains"
	AssertRequestOrder    = "request_order"
	AssertRequestCount    = "request_count"
	AssertFinalState      = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
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

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob scenarios: %w", err)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Rolls) == 0 {
		return fmt.Errorf("rolls must contain at least one step")
	}
	if s.Budgets != nil && (s.Budgets.Rounds < 0 || s.Budgets.Dice < 0) {
		return fmt.Errorf("budgets must be non-negative")
	}

	for i, step := range s.Rolls {
		if step.Expression == "" {
			return fmt.Errorf("rolls[%d]: expression is required", i)
		}
		if step.Expect != nil && step.Expect.Error != "" && step.Expect.expectsResult() {
			return fmt.Errorf("rolls[%d]: expect cannot name both an error and a result", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRequestContains:
		if a.Face == "" {
			return fmt.Errorf("assertions[%d]: face is required for request_contains", index)
		}
	case AssertRequestOrder:
		if len(a.Faces) == 0 {
			return fmt.Errorf("assertions[%d]: faces list is required for request_order", index)
		}
	case AssertRequestCount:
		if a.Face == "" {
			return fmt.Errorf("assertions[%d]: face is required for request_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for request_count", index)
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
