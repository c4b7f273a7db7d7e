package ir

import "strings"

// Arg is one supplied argument. An empty Name means positional.
type Arg struct {
	Name  string  `json:"name,omitempty"`
	Value IRValue `json:"value"`
}

// Positional creates a positional argument.
func Positional(v IRValue) Arg {
	return Arg{Value: v}
}

// Named creates a named argument.
func Named(name string, v IRValue) Arg {
	return Arg{Name: name, Value: v}
}

// IsNamed reports whether the argument was supplied by name.
func (a Arg) IsNamed() bool {
	return a.Name != ""
}

// Args is the ordered list of supplied arguments at a call site.
// Once parsed, positional entries precede named ones; the binder re-checks it.
type Args []Arg

// HasNamed reports whether any argument was supplied by name.
func (a Args) HasNamed() bool {
	for _, arg := range a {
		if arg.IsNamed() {
			return true
		}
	}
	return false
}

// Values returns the argument values in supplied order.
func (a Args) Values() []IRValue {
	out := make([]IRValue, len(a))
	for i, arg := range a {
		out[i] = arg.Value
	}
	return out
}

// String renders the list the way a template would write it,
// e.g. ("Y-m-d", timestamp: null).
func (a Args) String() string {
	parts := make([]string, len(a))
	for i, arg := range a {
		if arg.IsNamed() {
			parts[i] = arg.Name + ": " + String(arg.Value)
		} else {
			parts[i] = String(arg.Value)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
