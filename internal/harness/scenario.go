package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// A scenario compiles a directory of CUE programs, decomposes and runs a
// set of circuits and/or converts and embeds one anneal program, then
// asserts on what came out.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs is the directory of CUE files to compile.
	// Relative paths are resolved against the base path at load time.
	Specs string `yaml:"specs"`

	// Circuits are decomposed and run, in this order, on the trace
	// accelerator.
	Circuits []string `yaml:"circuits,omitempty"`

	// Program is the anneal program converted to a problem graph.
	Program string `yaml:"program,omitempty"`

	// Values bind the program's variables, in declaration order.
	Values []float64 `yaml:"values,omitempty"`

	// Hardware is a topology ("chimera:1,1,4") or a YAML hardware file.
	// When set, the problem graph is embedded onto it.
	Hardware string `yaml:"hardware,omitempty"`

	// Seed drives the embedding search.
	Seed uint64 `yaml:"seed,omitempty"`

	// JobID is the fixed job id for deterministic traces.
	// If empty, defaults to "test-job-default".
	JobID string `yaml:"job_id,omitempty"`

	// Assertions validate the decomposition, trace, graph and embedding.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one property of a scenario result.
type Assertion struct {
	// Type selects the check; see the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected number (base_length, sub_count, graph_order,
	// graph_size, max_chain_length).
	Count int `yaml:"count,omitempty"`

	// Circuit names a sub-circuit (sub_instructions).
	Circuit string `yaml:"circuit,omitempty"`

	// Instructions are expected instruction strings (base_instructions,
	// sub_instructions).
	Instructions []string `yaml:"instructions,omitempty"`

	// Circuits are the circuits the accelerator must have executed
	// (executed), in any order.
	Circuits []string `yaml:"circuits,omitempty"`

	// U, V and Weight describe an expected edge (edge_weight).
	U      int64   `yaml:"u,omitempty"`
	V      int64   `yaml:"v,omitempty"`
	Weight float64 `yaml:"weight,omitempty"`

	// Expect flips validates and embeds. Defaults to true.
	Expect *bool `yaml:"expect,omitempty"`
}

// expected returns the boolean an assertion expects.
func (a Assertion) expected() bool {
	return a.Expect == nil || *a.Expect
}

// Assertion type constants.
const (
	AssertBaseLength       = "base_length"
	AssertBaseInstructions = "base_instructions"
	AssertSubCount         = "sub_count"
	AssertSubInstructions  = "sub_instructions"
	AssertValidates        = "validates"
	AssertExecuted         = "executed"
	AssertGraphOrder       = "graph_order"
	AssertGraphSize        = "graph_size"
	AssertEdgeWeight       = "edge_weight"
	AssertEmbeds           = "embeds"
	AssertMaxChainLength   = "max_chain_length"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, "")
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the specs directory and any hardware file relative to
// basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if basePath != "" {
		scenario.Specs = resolve(basePath, scenario.Specs)
		if isHardwareFile(scenario.Hardware) {
			scenario.Hardware = resolve(basePath, scenario.Hardware)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// isHardwareFile reports whether a hardware reference names a YAML file
// rather than a topology.
func isHardwareFile(hardware string) bool {
	ext := strings.ToLower(filepath.Ext(hardware))
	return ext == ".yaml" || ext == ".yml"
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Specs == "" {
		return fmt.Errorf("specs directory is required")
	}
	if info, err := os.Stat(s.Specs); err != nil || !info.IsDir() {
		return fmt.Errorf("specs directory not found: %s", s.Specs)
	}
	if len(s.Circuits) == 0 && s.Program == "" {
		return fmt.Errorf("circuits or program is required")
	}
	if s.Hardware != "" && s.Program == "" {
		return fmt.Errorf("hardware requires a program")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, s); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion against what the
// scenario produces.
func validateAssertion(index int, a *Assertion, s *Scenario) error {
	needCircuits := func() error {
		if len(s.Circuits) == 0 {
			return fmt.Errorf("assertions[%d]: %s requires circuits", index, a.Type)
		}
		return nil
	}
	needProgram := func() error {
		if s.Program == "" {
			return fmt.Errorf("assertions[%d]: %s requires a program", index, a.Type)
		}
		return nil
	}
	needHardware := func() error {
		if s.Hardware == "" {
			return fmt.Errorf("assertions[%d]: %s requires hardware", index, a.Type)
		}
		return nil
	}
	nonNegative := func() error {
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertBaseLength, AssertSubCount:
		if err := needCircuits(); err != nil {
			return err
		}
		return nonNegative()
	case AssertBaseInstructions, AssertValidates:
		return needCircuits()
	case AssertSubInstructions:
		if a.Circuit == "" {
			return fmt.Errorf("assertions[%d]: circuit is required for sub_instructions", index)
		}
		return needCircuits()
	case AssertExecuted:
		if len(a.Circuits) == 0 {
			return fmt.Errorf("assertions[%d]: circuits list is required for executed", index)
		}
		return needCircuits()
	case AssertGraphOrder, AssertGraphSize:
		if err := needProgram(); err != nil {
			return err
		}
		return nonNegative()
	case AssertEdgeWeight:
		if a.U == a.V {
			return fmt.Errorf("assertions[%d]: edge_weight needs two distinct vertices", index)
		}
		return needProgram()
	case AssertEmbeds:
		return needHardware()
	case AssertMaxChainLength:
		if err := needHardware(); err != nil {
			return err
		}
		return nonNegative()
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
}
