package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/callbind/internal/binder"
	"github.com/roach88/callbind/internal/ir"
)

// mustNode parses a YAML fragment into the node a scenario field would hold.
func mustNode(t *testing.T, src string) yaml.Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	require.NotEmpty(t, doc.Content)
	return *doc.Content[0]
}

func specsDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs("testdata/specs")
	require.NoError(t, err)
	return dir
}

func TestRun_Scenarios(t *testing.T) {
	for _, file := range []string{"date.yaml", "variadic.yaml"} {
		t.Run(file, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", file))
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
			assert.Len(t, result.Cases, len(scenario.Cases))
		})
	}
}

func TestRun_RecordsOutcomes(t *testing.T) {
	scenario := &Scenario{
		Name:  "outcomes",
		Specs: specsDir(t),
		Cases: []Case{
			{
				Name:   "bound",
				Type:   ir.CallFunction,
				Call:   "date",
				Args:   mustNode(t, `["Y", {name: timestamp, value: 5}]`),
				Expect: Expect{Result: mustNode(t, `["Y", 5]`)},
			},
			{
				Name:   "failed",
				Type:   ir.CallFunction,
				Call:   "date",
				Args:   mustNode(t, `[{name: timestamp, value: 5}]`),
				Expect: Expect{Error: &ExpectError{Code: string(binder.ErrCodeMissingArgument)}},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Cases, 2)

	bound := result.Cases[0]
	assert.Equal(t, `function "date"`, bound.Call)
	assert.Equal(t, `("Y", timestamp: 5)`, bound.Args)
	assert.False(t, bound.Failed())
	assert.Equal(t, []ir.IRValue{ir.IRString("Y"), ir.IRInt(5)}, bound.Values)

	failed := result.Cases[1]
	assert.True(t, failed.Failed())
	assert.Equal(t, "MISSING_ARGUMENT", failed.Code)
	assert.Equal(t, `Value for argument "format" is required for function "date".`, failed.Message)
	assert.Nil(t, failed.Values)
}

func TestRun_ReportsMismatches(t *testing.T) {
	scenario := &Scenario{
		Name:  "mismatches",
		Specs: specsDir(t),
		Cases: []Case{
			{
				Name:   "wrong_values",
				Type:   ir.CallFunction,
				Call:   "date",
				Args:   mustNode(t, `["Y"]`),
				Expect: Expect{Result: mustNode(t, `["Y", null]`)},
			},
			{
				Name:   "unexpected_error",
				Type:   ir.CallFunction,
				Call:   "date",
				Args:   mustNode(t, `[{name: nope, value: 1}]`),
				Expect: Expect{Result: mustNode(t, `[1]`)},
			},
			{
				Name:   "unexpected_success",
				Type:   ir.CallFunction,
				Call:   "date",
				Args:   mustNode(t, `["Y"]`),
				Expect: Expect{Error: &ExpectError{Code: "MISSING_ARGUMENT"}},
			},
			{
				Name:   "wrong_code_and_message",
				Type:   ir.CallFunction,
				Call:   "date",
				Args:   mustNode(t, `[{name: timestamp, value: 1}, 2]`),
				Expect: Expect{Error: &ExpectError{Code: "DUPLICATE_ARGUMENT", Message: "something else"}},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)

	assert.Equal(t, `wrong_values: expected result ["Y", null], got ["Y"]`, result.Errors[0])
	assert.Contains(t, result.Errors[1], "unexpected_error: expected result [1], got error: Unknown argument")
	assert.Equal(t, `unexpected_success: expected error MISSING_ARGUMENT, got result ["Y"]`, result.Errors[2])
	assert.Contains(t, result.Errors[3], "wrong_code_and_message: expected error code DUPLICATE_ARGUMENT, got ORDERING_VIOLATION")
	assert.Contains(t, result.Errors[4], `wrong_code_and_message: expected message "something else"`)
}

func TestRun_UnknownCall(t *testing.T) {
	scenario := &Scenario{
		Name:  "unknown_call",
		Specs: specsDir(t),
		Cases: []Case{{
			Name:   "missing",
			Type:   ir.CallTest,
			Call:   "date",
			Expect: Expect{Error: &ExpectError{Code: "MISSING_ARGUMENT"}},
		}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Cases, 1)
	assert.Empty(t, result.Cases[0].Code)
	assert.Contains(t, result.Cases[0].Message, `unknown call: test "date"`)
	assert.Contains(t, result.Errors[0], "expected error code MISSING_ARGUMENT, got <none>")
}

func TestRun_PlatformOverride(t *testing.T) {
	scenario := &Scenario{
		Name:     "platform",
		Specs:    specsDir(t),
		Platform: "Rust",
		Cases: []Case{{
			Name: "unresolvable",
			Type: ir.CallFunction,
			Call: "substr_compare",
			Args: mustNode(t, `["a", "b", 0, {name: case_sensitivity, value: true}]`),
			Expect: Expect{Error: &ExpectError{
				Code: "UNRESOLVABLE_DEFAULT",
			}},
		}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, result.Cases[0].Message, "internal Rust function")
}

func TestRun_BadSpecs(t *testing.T) {
	scenario := &Scenario{
		Name:  "bad_specs",
		Specs: filepath.Join(t.TempDir(), "missing"),
		Cases: []Case{{Name: "a", Type: ir.CallFunction, Call: "date"}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load specs")
}
