package harness

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is a conformance scenario: one system evaluated against a list of
// cases, each with optional expectations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// System is the CUE file or directory defining the system under test.
	// Relative paths are resolved against the scenario file's directory.
	System string `yaml:"system"`

	// RunIDs optionally fixes the run ID of each case, in case order.
	// When empty, IDs are "<name>-001", "<name>-002", ...
	RunIDs []string `yaml:"run_ids,omitempty"`

	// Cases are evaluated in order.
	Cases []Case `yaml:"cases"`
}

// Case is one evaluation of the system.
type Case struct {
	Name   string             `yaml:"name"`
	Inputs map[string]float64 `yaml:"inputs"`

	// Expect is optional; a case without it only contributes to the trace.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is a subset match on a run outcome: only the fields that are set
// are checked. Error excludes every output field.
type Expect struct {
	Variable string   `yaml:"variable,omitempty"`
	Label    string   `yaml:"label,omitempty"`
	Value    *float64 `yaml:"value,omitempty"`
	Strength *float64 `yaml:"strength,omitempty"`

	// Tolerance applies to Value and Strength. Default: DefaultTolerance.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Error is the expected engine error code, e.g. "MISSING_INPUT".
	Error string `yaml:"error,omitempty"`
}

// DefaultTolerance is used when an expectation does not set one.
const DefaultTolerance = 1e-9

// SystemNotFoundError is returned when a scenario references a system path
// that does not exist.
type SystemNotFoundError struct {
	Scenario     string
	SystemPath   string
	ResolvedPath string
}

// Error implements the error interface.
func (e *SystemNotFoundError) Error() string {
	return fmt.Sprintf("scenario %q references system %q which does not exist (resolved to: %s)",
		e.Scenario, e.SystemPath, e.ResolvedPath)
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected (catches typos like "expects:").
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML %s: %w", path, err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}

	// Resolve the system path relative to the scenario, then check it exists.
	rel := scenario.System
	if !filepath.IsAbs(scenario.System) {
		scenario.System = filepath.Join(filepath.Dir(path), scenario.System)
	}
	if _, err := os.Stat(scenario.System); os.IsNotExist(err) {
		return nil, &SystemNotFoundError{
			Scenario:     scenario.Name,
			SystemPath:   rel,
			ResolvedPath: scenario.System,
		}
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
// If filter is non-empty, only scenarios whose name matches the glob are kept.
func LoadScenarios(dir, filter string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	sort.Strings(paths)

	var scenarios []*Scenario
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		if filter != "" {
			ok, err := filepath.Match(filter, s.Name)
			if err != nil {
				return nil, fmt.Errorf("bad filter %q: %w", filter, err)
			}
			if !ok {
				continue
			}
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.System == "" {
		return fmt.Errorf("system is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}
	if len(s.RunIDs) > 0 && len(s.RunIDs) != len(s.Cases) {
		return fmt.Errorf("run_ids has %d entries for %d cases", len(s.RunIDs), len(s.Cases))
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true

		for name, x := range c.Inputs {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("cases[%d].inputs.%s: value must be finite", i, name)
			}
		}
		if err := validateExpect(c.Expect); err != nil {
			return fmt.Errorf("cases[%d].expect: %w", i, err)
		}
	}
	return nil
}

func validateExpect(e *Expect) error {
	if e == nil {
		return nil
	}
	if e.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative")
	}
	if e.Error != "" && (e.Variable != "" || e.Label != "" || e.Value != nil || e.Strength != nil) {
		return fmt.Errorf("error cannot be combined with output fields")
	}
	return nil
}
