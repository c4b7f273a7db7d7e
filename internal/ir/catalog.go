package ir

import "fmt"

// Call types a template can use to reach a callable.
const (
	CallFunction = "function"
	CallFilter   = "filter"
	CallTest     = "test"
)

// ValidCallTypes defines allowed call types.
var ValidCallTypes = map[string]bool{
	CallFunction: true,
	CallFilter:   true,
	CallTest:     true,
}

// CallEntry maps a template-visible name to a concrete target.
type CallEntry struct {
	CallType string      `json:"call_type"`
	CallName string      `json:"call_name"`
	Target   CallableRef `json:"target"`

	// Variadic marks the call site as collecting surplus arguments into
	// the target's trailing parameter.
	Variadic bool `json:"variadic,omitempty"`

	// Implicit counts leading target parameters the runtime supplies
	// (environment, context, pre-bound arguments).
	Implicit int `json:"implicit,omitempty"`
}

// Key returns the registry key, e.g. `function "date"`.
func (e CallEntry) Key() string {
	return CallKey(e.CallType, e.CallName)
}

// CallKey formats a call type and name the way diagnostics reference it.
func CallKey(callType, name string) string {
	return fmt.Sprintf("%s \"%s\"", callType, name)
}

// Catalog is a compiled set of call entries and the signatures of their targets.
type Catalog struct {
	Calls      []CallEntry `json:"calls"`
	Signatures []Signature `json:"signatures"`
}

// Signature returns the signature registered for a target.
func (c *Catalog) Signature(ref CallableRef) (*Signature, bool) {
	name := ref.QualifiedName()
	for i := range c.Signatures {
		if c.Signatures[i].Target.QualifiedName() == name {
			return &c.Signatures[i], true
		}
	}
	return nil, false
}

// Call returns the entry for a call type and name.
func (c *Catalog) Call(callType, name string) (CallEntry, bool) {
	for _, e := range c.Calls {
		if e.CallType == callType && e.CallName == name {
			return e, true
		}
	}
	return CallEntry{}, false
}
