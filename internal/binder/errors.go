package binder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/callbind/internal/ir"
)

var (
	// ErrCallableNotFound is wrapped by oracles that have no signature for a target.
	ErrCallableNotFound = errors.New("callable not found")

	// ErrUnknownCall is wrapped by registries that have no entry for a call.
	ErrUnknownCall = errors.New("unknown call")
)

// ErrorCode categorizes binding failures.
type ErrorCode string

const (
	// ErrCodeOrderingViolation indicates a positional argument after a named one.
	ErrCodeOrderingViolation ErrorCode = "ORDERING_VIOLATION"

	// ErrCodeDuplicateArgument indicates a parameter supplied twice.
	ErrCodeDuplicateArgument ErrorCode = "DUPLICATE_ARGUMENT"

	// ErrCodeUnknownArgument indicates named arguments matching no parameter.
	ErrCodeUnknownArgument ErrorCode = "UNKNOWN_ARGUMENT"

	// ErrCodeMissingArgument indicates a required parameter left unfilled.
	ErrCodeMissingArgument ErrorCode = "MISSING_ARGUMENT"

	// ErrCodeUnresolvableDefault indicates a native optional parameter whose
	// default cannot be introspected sits before a supplied argument.
	ErrCodeUnresolvableDefault ErrorCode = "UNRESOLVABLE_DEFAULT"

	// ErrCodeInvalidVariadicTarget indicates a variadic call site whose target
	// lacks a trailing empty-array capture parameter, or whose target
	// signature is unknown.
	ErrCodeInvalidVariadicTarget ErrorCode = "INVALID_VARIADIC_TARGET"

	// ErrCodeNamedUnsupported indicates named arguments for a call site
	// without a signature to match them against.
	ErrCodeNamedUnsupported ErrorCode = "NAMED_UNSUPPORTED"
)

// BindError is a binding failure. Message is the exact diagnostic surfaced
// to template authors; the remaining fields carry the same facts in
// structured form.
type BindError struct {
	// Code identifies the error category.
	Code ErrorCode `json:"code"`

	// Message is the human-readable diagnostic.
	Message string `json:"message"`

	// CallType and CallName identify the call site, e.g. function / date.
	CallType string `json:"call_type"`
	CallName string `json:"call_name"`

	// Signature is the call reference with its parameter list,
	// e.g. date(format, timestamp). Empty when the message doesn't use it.
	Signature string `json:"signature,omitempty"`

	// Target is the qualified name of the concrete callable, when known.
	Target string `json:"target,omitempty"`

	// Arguments lists the offending argument names.
	Arguments []string `json:"arguments,omitempty"`

	// Missing lists optional parameters whose default could not be determined.
	Missing []string `json:"missing,omitempty"`
}

// Error implements the error interface. The message is returned verbatim.
func (e *BindError) Error() string {
	return e.Message
}

// IsBindError reports whether err is, or wraps, a *BindError.
func IsBindError(err error) bool {
	var be *BindError
	return errors.As(err, &be)
}

// CodeOf returns the code of a wrapped *BindError, or "" for other errors.
func CodeOf(err error) ErrorCode {
	var be *BindError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// quoteList renders names as "a", "b".
func quoteList(names []string) string {
	return `"` + strings.Join(names, `", "`) + `"`
}

// plural returns "s" when n != 1.
func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func newOrderingError(call CallSite) *BindError {
	return &BindError{
		Code:     ErrCodeOrderingViolation,
		Message:  fmt.Sprintf("Positional arguments cannot be used after named arguments for %s.", call.Ref()),
		CallType: call.Type,
		CallName: call.Name,
	}
}

func newNamedUnsupportedError(call CallSite) *BindError {
	return &BindError{
		Code:     ErrCodeNamedUnsupported,
		Message:  fmt.Sprintf("Named arguments are not supported for %s.", call.Ref()),
		CallType: call.Type,
		CallName: call.Name,
	}
}

// noSignatureError reports why a call needs a signature nobody could supply:
// named arguments, or else a variadic call site.
func noSignatureError(call CallSite, args ir.Args) *BindError {
	if args.HasNamed() {
		return newNamedUnsupportedError(call)
	}
	return &BindError{
		Code:     ErrCodeInvalidVariadicTarget,
		Message:  fmt.Sprintf("Arbitrary arguments cannot be collected for %s because the signature of its target is unknown.", call.Ref()),
		CallType: call.Type,
		CallName: call.Name,
	}
}

func newDuplicateError(call CallSite, name string) *BindError {
	return &BindError{
		Code:      ErrCodeDuplicateArgument,
		Message:   fmt.Sprintf("Argument \"%s\" is defined twice for %s.", name, call.Ref()),
		CallType:  call.Type,
		CallName:  call.Name,
		Arguments: []string{name},
	}
}

func newUnknownError(call CallSite, params, names []string) *BindError {
	sig := call.signature(params)
	return &BindError{
		Code:      ErrCodeUnknownArgument,
		Message:   fmt.Sprintf("Unknown argument%s %s for %s %s.", plural(len(names)), quoteList(names), call.Type, quote(sig)),
		CallType:  call.Type,
		CallName:  call.Name,
		Signature: sig,
		Arguments: names,
	}
}

func newMissingError(call CallSite, name string) *BindError {
	return &BindError{
		Code:      ErrCodeMissingArgument,
		Message:   fmt.Sprintf("Value for argument \"%s\" is required for %s.", name, call.Ref()),
		CallType:  call.Type,
		CallName:  call.Name,
		Arguments: []string{name},
	}
}

func newUnresolvableError(call CallSite, params []string, target, name, platform string, missing []string) *BindError {
	sig := call.signature(params)
	return &BindError{
		Code: ErrCodeUnresolvableDefault,
		Message: fmt.Sprintf(
			"Argument \"%s\" could not be assigned for %s %s because it is mapped to an internal %s function which cannot determine default value for optional argument%s %s.",
			name, call.Type, quote(sig), platform, plural(len(missing)), quoteList(missing),
		),
		CallType:  call.Type,
		CallName:  call.Name,
		Signature: sig,
		Target:    target,
		Arguments: []string{name},
		Missing:   missing,
	}
}

func newVariadicError(call CallSite, target string) *BindError {
	return &BindError{
		Code: ErrCodeInvalidVariadicTarget,
		Message: fmt.Sprintf(
			"The last parameter of \"%s\" for %s must be an ordered collection with an empty-collection default value.",
			target, call.Ref(),
		),
		CallType: call.Type,
		CallName: call.Name,
		Target:   target,
	}
}

func quote(s string) string {
	return `"` + s + `"`
}
