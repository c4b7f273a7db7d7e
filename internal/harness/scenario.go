package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/callbind/internal/binder"
	"github.com/roach88/callbind/internal/ir"
)

// Scenario is a set of call cases run against one catalog.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs is the CUE catalog directory, relative to the scenario file.
	Specs string `yaml:"specs"`

	// Platform overrides the platform named in unresolvable-default
	// diagnostics. Defaults to binder.DefaultPlatform.
	Platform string `yaml:"platform,omitempty"`

	// Cases run in order against the same store.
	Cases []Case `yaml:"cases"`
}

// Case is one template call and its expected outcome.
type Case struct {
	Name string `yaml:"name"`

	// Type is the call type: function, filter or test.
	Type string `yaml:"type"`

	// Call is the template-visible name.
	Call string `yaml:"call"`

	// Args is the argument list in the syntax accepted by ParseArgs.
	Args yaml.Node `yaml:"args,omitempty"`

	Expect Expect `yaml:"expect"`
}

// Expect holds either the bound values or the expected failure.
type Expect struct {
	// Result is the sequence of values the binder must return.
	Result yaml.Node `yaml:"result,omitempty"`

	Error *ExpectError `yaml:"error,omitempty"`
}

// ExpectError matches a binding failure. Message, when set, must match exactly.
type ExpectError struct {
	Code    string `yaml:"code"`
	Message string `yaml:"message,omitempty"`
}

// hasResult reports whether the case declares an expected result.
func (e Expect) hasResult() bool {
	return e.Result.Kind != 0
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Specs is resolved relative to the file's directory.
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

	if scenario.Specs != "" && !filepath.IsAbs(scenario.Specs) {
		scenario.Specs = filepath.Join(filepath.Dir(path), scenario.Specs)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the scenario files under path, sorted. A file path
// is returned as is.
func FindScenarios(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}
		switch filepath.Ext(p) {
		case ".yaml", ".yml":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Specs == "" {
		return fmt.Errorf("specs is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("at least one case is required")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if err := validateCase(c, i); err != nil {
			return err
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

func validateCase(c Case, index int) error {
	if c.Name == "" {
		return fmt.Errorf("cases[%d]: name is required", index)
	}
	if !ir.ValidCallTypes[c.Type] {
		return fmt.Errorf("cases[%d]: type must be function, filter or test, got %q", index, c.Type)
	}
	if c.Call == "" {
		return fmt.Errorf("cases[%d]: call is required", index)
	}
	if _, err := ArgsFromNode(&c.Args); err != nil {
		return fmt.Errorf("cases[%d]: %w", index, err)
	}

	switch {
	case c.Expect.hasResult() && c.Expect.Error != nil:
		return fmt.Errorf("cases[%d]: expect must have either result or error, not both", index)
	case c.Expect.hasResult():
		if _, err := ValuesFromNode(&c.Expect.Result); err != nil {
			return fmt.Errorf("cases[%d]: expect.result: %w", index, err)
		}
	case c.Expect.Error != nil:
		if c.Expect.Error.Code == "" {
			return fmt.Errorf("cases[%d]: expect.error.code is required", index)
		}
		if !knownCodes[binder.ErrorCode(c.Expect.Error.Code)] {
			return fmt.Errorf("cases[%d]: unknown error code %q", index, c.Expect.Error.Code)
		}
	default:
		return fmt.Errorf("cases[%d]: expect is required", index)
	}
	return nil
}

var knownCodes = map[binder.ErrorCode]bool{
	binder.ErrCodeOrderingViolation:     true,
	binder.ErrCodeDuplicateArgument:     true,
	binder.ErrCodeUnknownArgument:       true,
	binder.ErrCodeMissingArgument:       true,
	binder.ErrCodeUnresolvableDefault:   true,
	binder.ErrCodeInvalidVariadicTarget: true,
	binder.ErrCodeNamedUnsupported:      true,
}
