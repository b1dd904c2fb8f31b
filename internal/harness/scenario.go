package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSubject is the subject id used when a scenario names none.
const DefaultSubject = "subject-1"

// Scenario describes one run of a workflow against a single subject.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Definition is the path of a .cue, .yaml or .yml definition file,
	// relative to the scenario file.
	Definition string `yaml:"definition"`

	// Workflow selects a workflow from the definition file. Optional when
	// the file defines exactly one.
	Workflow string `yaml:"workflow,omitempty"`

	// Subject is the subject id. Defaults to DefaultSubject.
	Subject string `yaml:"subject,omitempty"`

	// Marking is the starting marking; a place listed twice holds two
	// tokens. When empty the workflow seeds the initial place.
	Marking []string `yaml:"marking,omitempty"`

	// Block lists transitions a guard listener always blocks.
	Block []string `yaml:"block,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// FinalMarking, when set, is compared with the stored marking after
	// the last step.
	FinalMarking []string `yaml:"final_marking,omitempty"`
}

// Step is a single operation. Exactly one of Can, Apply or Enabled is set.
type Step struct {
	// Can checks whether the named transition is enabled.
	Can string `yaml:"can,omitempty"`

	// Apply fires the named transition.
	Apply string `yaml:"apply,omitempty"`

	// Enabled lists the names of the transitions expected to be enabled,
	// in definition order.
	Enabled *[]string `yaml:"enabled,omitempty"`

	// Expect is the expected result of a can step.
	Expect *bool `yaml:"expect,omitempty"`

	// Marking is the expected marking after an apply step.
	Marking []string `yaml:"marking,omitempty"`

	// Error is the expected error code (e.g. TRANSITION_NOT_APPLICABLE).
	Error string `yaml:"error,omitempty"`
}

// Step kinds.
const (
	StepCan     = "can"
	StepApply   = "apply"
	StepEnabled = "enabled"
)

// Kind returns the step kind, or "" when the step sets none or several.
func (s Step) Kind() string {
	kinds := 0
	kind := ""
	if s.Can != "" {
		kinds++
		kind = StepCan
	}
	if s.Apply != "" {
		kinds++
		kind = StepApply
	}
	if s.Enabled != nil {
		kinds++
		kind = StepEnabled
	}
	if kinds != 1 {
		return ""
	}
	return kind
}

// LoadScenario reads and parses a scenario YAML file. The definition path
// is resolved relative to the scenario file. Unknown fields are rejected.
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

	if scenario.Definition != "" && !filepath.IsAbs(scenario.Definition) {
		scenario.Definition = filepath.Join(filepath.Dir(path), scenario.Definition)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// ScenarioFiles lists the .yaml and .yml files directly inside dir, in
// file name order. A non-empty filter is a filepath.Match pattern applied to
// the file name without its extension.
func ScenarioFiles(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		if filter != "" {
			ok, err := filepath.Match(filter, strings.TrimSuffix(entry.Name(), ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, err)
			}
			if !ok {
				continue
			}
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// LoadScenarios loads every scenario in dir, in file name order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := ScenarioFiles(dir, "")
	if err != nil {
		return nil, err
	}

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
	if s.Definition == "" {
		return fmt.Errorf("definition is required")
	}
	if _, err := os.Stat(s.Definition); err != nil {
		return fmt.Errorf("definition file not found: %s", s.Definition)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch step.Kind() {
		case "":
			return fmt.Errorf("steps[%d]: exactly one of can, apply or enabled is required", i)
		case StepCan:
			if step.Expect == nil && step.Error == "" {
				return fmt.Errorf("steps[%d]: can needs expect or error", i)
			}
		case StepApply, StepEnabled:
			if step.Expect != nil {
				return fmt.Errorf("steps[%d]: expect only applies to can", i)
			}
		}
	}
	return nil
}
