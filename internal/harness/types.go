package harness

import "github.com/roach88/callbind/internal/ir"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every case matched its expectation.
	Pass bool `json:"pass"`

	// Cases holds the observed outcome of each case, in scenario order.
	// Used for golden comparison.
	Cases []CaseResult `json:"cases"`

	// Errors contains expectation mismatches, prefixed with the case name.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// CaseResult is what the binder actually did for one case.
type CaseResult struct {
	Name string `json:"name"`
	Call string `json:"call"`
	Args string `json:"args"`

	// Values is set when binding succeeded.
	Values []ir.IRValue `json:"values,omitempty"`

	// Code and Message are set when binding failed. Code is empty for
	// failures that are not binding errors (e.g. an unknown call).
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Failed reports whether the binder returned an error for the case.
func (c CaseResult) Failed() bool {
	return c.Message != ""
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cases:  []CaseResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
