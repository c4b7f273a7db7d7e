package ir

import (
	"encoding/json"
	"fmt"
)

// TargetKind says how much the oracle could learn about a target's defaults.
type TargetKind string

const (
	// KindUserDefined targets have fully introspectable defaults.
	KindUserDefined TargetKind = "user"

	// KindNative targets may have optional parameters whose default the
	// platform cannot report.
	KindNative TargetKind = "native"
)

// ParamDescriptor is one formal parameter of a callable target.
type ParamDescriptor struct {
	Name string `json:"name"`

	// Optional is true when the parameter may be omitted. An optional
	// parameter without HasDefault is a native parameter whose default the
	// oracle could not determine.
	Optional bool `json:"optional,omitempty"`

	// HasDefault is true when Default holds the declared default.
	HasDefault bool `json:"has_default,omitempty"`

	// Default is only meaningful when HasDefault is true.
	Default IRValue `json:"-"`

	// Variadic marks the trailing parameter that captures surplus arguments.
	Variadic bool `json:"variadic,omitempty"`
}

// Required reports whether the parameter must be supplied.
func (p ParamDescriptor) Required() bool {
	return !p.Optional && !p.HasDefault
}

// UnknownDefault reports whether the parameter is optional but its default
// could not be introspected.
func (p ParamDescriptor) UnknownDefault() bool {
	return p.Optional && !p.HasDefault
}

// paramJSON is the wire shape of ParamDescriptor.
type paramJSON struct {
	Name       string          `json:"name"`
	Optional   bool            `json:"optional,omitempty"`
	HasDefault bool            `json:"has_default,omitempty"`
	Default    json.RawMessage `json:"default,omitempty"`
	Variadic   bool            `json:"variadic,omitempty"`
}

// MarshalJSON encodes the default canonically, and only when it is known.
func (p ParamDescriptor) MarshalJSON() ([]byte, error) {
	raw := paramJSON{
		Name:       p.Name,
		Optional:   p.Optional,
		HasDefault: p.HasDefault,
		Variadic:   p.Variadic,
	}
	if p.HasDefault {
		b, err := MarshalCanonical(p.Default)
		if err != nil {
			return nil, fmt.Errorf("param %q default: %w", p.Name, err)
		}
		raw.Default = b
	}
	return json.Marshal(raw)
}

// UnmarshalJSON restores the default as an IRValue.
func (p *ParamDescriptor) UnmarshalJSON(data []byte) error {
	var raw paramJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ParamDescriptor{
		Name:       raw.Name,
		Optional:   raw.Optional,
		HasDefault: raw.HasDefault,
		Variadic:   raw.Variadic,
	}
	if raw.HasDefault {
		// A missing default field with has_default set means a null default.
		if len(raw.Default) == 0 {
			p.Default = Null
			return nil
		}
		v, err := UnmarshalIRValue(raw.Default)
		if err != nil {
			return fmt.Errorf("param %q default: %w", raw.Name, err)
		}
		p.Default = v
	}
	return nil
}

// Signature is the ordered parameter list the oracle reports for a target.
type Signature struct {
	Target CallableRef       `json:"target"`
	Kind   TargetKind        `json:"kind"`
	Params []ParamDescriptor `json:"params"`
}

// ParamNames returns the parameter names in declaration order.
func (s *Signature) ParamNames() []string {
	names := make([]string, len(s.Params))
	for i, p := range s.Params {
		names[i] = p.Name
	}
	return names
}

// Last returns the trailing parameter, if any.
func (s *Signature) Last() (ParamDescriptor, bool) {
	if len(s.Params) == 0 {
		return ParamDescriptor{}, false
	}
	return s.Params[len(s.Params)-1], true
}

// HasVariadicCapture reports whether the last parameter is a variadic
// capture with an empty-array default.
func (s *Signature) HasVariadicCapture() bool {
	last, ok := s.Last()
	return ok && last.Variadic && last.HasDefault && IsEmptyArray(last.Default)
}

// Validate checks the structural invariants of a signature:
// unique names after NormalizeName, at most one variadic capture and only
// in last position, and no unknown defaults on user-defined targets.
func (s *Signature) Validate() error {
	if err := s.Target.Validate(); err != nil {
		return fmt.Errorf("signature %s: %w", s.Target, err)
	}
	if s.Kind != KindUserDefined && s.Kind != KindNative {
		return fmt.Errorf("signature %s: unknown kind %q", s.Target, s.Kind)
	}

	seen := make(map[string]bool, len(s.Params))
	for i, p := range s.Params {
		if p.Name == "" {
			return fmt.Errorf("signature %s: params[%d] has no name", s.Target, i)
		}
		key := NormalizeName(p.Name)
		if seen[key] {
			return fmt.Errorf("signature %s: duplicate parameter %q", s.Target, p.Name)
		}
		seen[key] = true

		if p.Variadic && i != len(s.Params)-1 {
			return fmt.Errorf("signature %s: variadic parameter %q must be last", s.Target, p.Name)
		}
		if p.UnknownDefault() && s.Kind == KindUserDefined {
			return fmt.Errorf("signature %s: optional parameter %q of a user-defined target must declare a default", s.Target, p.Name)
		}
	}
	return nil
}

// Clone returns a deep enough copy for callers that trim parameter lists.
func (s *Signature) Clone() *Signature {
	out := *s
	out.Params = append([]ParamDescriptor(nil), s.Params...)
	return &out
}
