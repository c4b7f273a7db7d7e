package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/callbind/internal/ir"
)

// checkExpectation compares an observed case outcome with its expectation
// and returns one message per mismatch.
func checkExpectation(expect Expect, got CaseResult) ([]string, error) {
	if expect.Error != nil {
		return checkError(expect.Error, got), nil
	}

	want, err := ValuesFromNode(&expect.Result)
	if err != nil {
		return nil, fmt.Errorf("expect.result: %w", err)
	}
	if got.Failed() {
		return []string{fmt.Sprintf("expected result %s, got error: %s", formatValues(want), got.Message)}, nil
	}
	if !valuesEqual(want, got.Values) {
		return []string{fmt.Sprintf("expected result %s, got %s", formatValues(want), formatValues(got.Values))}, nil
	}
	return nil, nil
}

func checkError(want *ExpectError, got CaseResult) []string {
	if !got.Failed() {
		return []string{fmt.Sprintf("expected error %s, got result %s", want.Code, formatValues(got.Values))}
	}

	var mismatches []string
	if got.Code != want.Code {
		code := got.Code
		if code == "" {
			code = "<none>"
		}
		mismatches = append(mismatches, fmt.Sprintf("expected error code %s, got %s (%s)", want.Code, code, got.Message))
	}
	if want.Message != "" && got.Message != want.Message {
		mismatches = append(mismatches, fmt.Sprintf("expected message %q, got %q", want.Message, got.Message))
	}
	return mismatches
}

func valuesEqual(want, got []ir.IRValue) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if !ir.Equal(want[i], got[i]) {
			return false
		}
	}
	return true
}

// formatValues renders a value list the way the CLI prints bound arguments.
func formatValues(values []ir.IRValue) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = ir.String(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
