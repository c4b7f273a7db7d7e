package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/callbind/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrInvalidCallType  = "E101" // call type is not function, filter or test
	ErrEmptyName        = "E102" // call or parameter name is empty
	ErrDuplicateName    = "E103" // duplicate call, target or parameter name
	ErrInvalidTarget    = "E104" // malformed target reference or kind
	ErrMissingSignature = "E105" // call target has no signature
	ErrVariadicPosition = "E106" // variadic parameter is not last
	ErrUnknownDefault   = "E107" // user-defined optional parameter without default
	ErrImplicitOverflow = "E108" // more implicit parameters than declared
	ErrInvalidDefault   = "E109" // default is a float or not concrete
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled catalog against schema rules.
// Returns all errors found (does not fail-fast).
func Validate(cat *ir.Catalog) []ValidationError {
	var errs []ValidationError

	sigs := make(map[string]*ir.Signature, len(cat.Signatures))
	for i := range cat.Signatures {
		sig := &cat.Signatures[i]
		errs = append(errs, validateSignature(sig, fmt.Sprintf("signatures[%d]", i))...)

		name := sig.Target.QualifiedName()
		if _, dup := sigs[name]; dup {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("signatures[%d].target", i),
				Message: fmt.Sprintf("duplicate signature for target %q", name),
				Code:    ErrDuplicateName,
			})
			continue
		}
		sigs[name] = sig
	}

	keys := make(map[string]bool, len(cat.Calls))
	for i, call := range cat.Calls {
		errs = append(errs, validateCall(call, sigs, keys, fmt.Sprintf("calls[%d]", i))...)
	}

	return errs
}

// validateCall checks one call entry against the signatures it references.
func validateCall(call ir.CallEntry, sigs map[string]*ir.Signature, keys map[string]bool, field string) []ValidationError {
	var errs []ValidationError

	// E101
	if !ir.ValidCallTypes[call.CallType] {
		errs = append(errs, ValidationError{
			Field:   field + ".call_type",
			Message: fmt.Sprintf("invalid call type %q, must be \"function\", \"filter\", or \"test\"", call.CallType),
			Code:    ErrInvalidCallType,
		})
	}

	// E102
	if strings.TrimSpace(call.CallName) == "" {
		errs = append(errs, ValidationError{
			Field:   field + ".call_name",
			Message: "call name is required and must be non-empty",
			Code:    ErrEmptyName,
		})
	}

	// E103
	if keys[call.Key()] {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("duplicate call %s", call.Key()),
			Code:    ErrDuplicateName,
		})
	}
	keys[call.Key()] = true

	// E104
	if err := call.Target.Validate(); err != nil {
		errs = append(errs, ValidationError{
			Field:   field + ".target",
			Message: err.Error(),
			Code:    ErrInvalidTarget,
		})
		return errs
	}

	// E105
	sig, ok := sigs[call.Target.QualifiedName()]
	if !ok {
		errs = append(errs, ValidationError{
			Field:   field + ".target",
			Message: fmt.Sprintf("no signature declared for target %q", call.Target.QualifiedName()),
			Code:    ErrMissingSignature,
		})
		return errs
	}

	// E108
	if call.Implicit < 0 || call.Implicit > len(sig.Params) {
		errs = append(errs, ValidationError{
			Field:   field + ".implicit",
			Message: fmt.Sprintf("%s has %d implicit parameters but its target declares %d", call.Key(), call.Implicit, len(sig.Params)),
			Code:    ErrImplicitOverflow,
		})
	}

	return errs
}

// validateSignature checks the structural rules of a single signature.
func validateSignature(sig *ir.Signature, field string) []ValidationError {
	var errs []ValidationError

	// E104
	if err := sig.Target.Validate(); err != nil {
		errs = append(errs, ValidationError{
			Field:   field + ".target",
			Message: err.Error(),
			Code:    ErrInvalidTarget,
		})
	}
	if sig.Kind != ir.KindUserDefined && sig.Kind != ir.KindNative {
		errs = append(errs, ValidationError{
			Field:   field + ".kind",
			Message: fmt.Sprintf("invalid kind %q, must be \"user\" or \"native\"", sig.Kind),
			Code:    ErrInvalidTarget,
		})
	}

	// keyed by the normalized name the binder matches on
	names := make(map[string]string, len(sig.Params))
	for i, p := range sig.Params {
		pfield := fmt.Sprintf("%s.params[%d]", field, i)

		// E102
		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   pfield + ".name",
				Message: "parameter name is required and must be non-empty",
				Code:    ErrEmptyName,
			})
		}

		// E103
		key := ir.NormalizeName(p.Name)
		if prev, dup := names[key]; dup {
			msg := fmt.Sprintf("duplicate parameter name: %q", p.Name)
			if prev != p.Name {
				msg = fmt.Sprintf("parameter name %q collides with %q", p.Name, prev)
			}
			errs = append(errs, ValidationError{
				Field:   pfield + ".name",
				Message: msg,
				Code:    ErrDuplicateName,
			})
		} else {
			names[key] = p.Name
		}

		// E106
		if p.Variadic && i != len(sig.Params)-1 {
			errs = append(errs, ValidationError{
				Field:   pfield + ".variadic",
				Message: fmt.Sprintf("variadic parameter %q must be the last parameter of %s", p.Name, sig.Target),
				Code:    ErrVariadicPosition,
			})
		}

		// E107
		if p.UnknownDefault() && sig.Kind == ir.KindUserDefined {
			errs = append(errs, ValidationError{
				Field:   pfield + ".default",
				Message: fmt.Sprintf("optional parameter %q of user-defined target %s must declare a default", p.Name, sig.Target),
				Code:    ErrUnknownDefault,
			})
		}
	}

	return errs
}
