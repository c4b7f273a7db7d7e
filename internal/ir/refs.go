package ir

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RefKind tags the shape of a callable target.
type RefKind string

const (
	// RefFunction is a free function identified by its fully qualified name.
	RefFunction RefKind = "function"

	// RefMethod is a static or bound method on a type.
	RefMethod RefKind = "method"

	// RefInvocable is an object whose type can be called directly.
	RefInvocable RefKind = "invocable"
)

// invokeMethod is the method name an invocable object is called through.
const invokeMethod = "__invoke"

// CallableRef identifies the concrete target behind a template call.
// The binder never looks inside it; only the oracle and diagnostics do.
type CallableRef struct {
	Kind RefKind `json:"kind"`
	Type string  `json:"type,omitempty"` // owning type for methods and invocables
	Name string  `json:"name,omitempty"` // function or method name
}

// FunctionRef references a free function.
func FunctionRef(name string) CallableRef {
	return CallableRef{Kind: RefFunction, Name: name}
}

// MethodRef references a method on a type.
func MethodRef(typ, name string) CallableRef {
	return CallableRef{Kind: RefMethod, Type: typ, Name: name}
}

// InvocableRef references an invocable object of the given type.
func InvocableRef(typ string) CallableRef {
	return CallableRef{Kind: RefInvocable, Type: typ}
}

// QualifiedName renders the reference in its concrete form:
//
//	date                     free function
//	Strings::upper           method
//	CallableTestClass::__invoke  invocable object
func (r CallableRef) QualifiedName() string {
	switch r.Kind {
	case RefMethod:
		return r.Type + "::" + r.Name
	case RefInvocable:
		return r.Type + "::" + invokeMethod
	default:
		return r.Name
	}
}

// String implements fmt.Stringer.
func (r CallableRef) String() string {
	return r.QualifiedName()
}

// Validate checks that the fields required by the kind are present.
func (r CallableRef) Validate() error {
	switch r.Kind {
	case RefFunction:
		if r.Name == "" {
			return fmt.Errorf("function reference requires a name")
		}
	case RefMethod:
		if r.Type == "" || r.Name == "" {
			return fmt.Errorf("method reference requires a type and a name")
		}
	case RefInvocable:
		if r.Type == "" {
			return fmt.Errorf("invocable reference requires a type")
		}
	default:
		return fmt.Errorf("unknown callable kind %q", r.Kind)
	}
	return nil
}

// ParseCallableRef parses the QualifiedName form back into a reference.
// "Type::__invoke" is an invocable, "Type::name" a method, anything else a function.
func ParseCallableRef(s string) (CallableRef, error) {
	if s == "" {
		return CallableRef{}, fmt.Errorf("empty callable reference")
	}
	typ, name, ok := strings.Cut(s, "::")
	if !ok {
		return FunctionRef(s), nil
	}
	if typ == "" || name == "" {
		return CallableRef{}, fmt.Errorf("malformed callable reference %q", s)
	}
	if name == invokeMethod {
		return InvocableRef(typ), nil
	}
	return MethodRef(typ, name), nil
}

// callableRefJSON has CallableRef's fields without its methods.
type callableRefJSON CallableRef

// UnmarshalJSON accepts either the structured form or a qualified name string.
func (r *CallableRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		ref, err := ParseCallableRef(s)
		if err != nil {
			return err
		}
		*r = ref
		return nil
	}
	var raw callableRefJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = CallableRef(raw)
	return nil
}
