package binder

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/roach88/callbind/internal/ir"
)

// DefaultPlatform names the host platform in UnresolvableDefault diagnostics.
const DefaultPlatform = "Go"

// CallSite describes how a template reaches a callable.
type CallSite struct {
	// Type is the call type: function, filter or test.
	Type string

	// Name is the template-visible name, e.g. date.
	Name string

	// Variadic marks call sites whose surplus arguments are collected into
	// the target's trailing capture parameter.
	Variadic bool

	// Implicit counts leading target parameters supplied by the runtime.
	// They are invisible to the template and skipped during matching.
	Implicit int
}

// CallSiteFor builds the call site a catalog entry describes.
func CallSiteFor(e ir.CallEntry) CallSite {
	return CallSite{
		Type:     e.CallType,
		Name:     e.CallName,
		Variadic: e.Variadic,
		Implicit: e.Implicit,
	}
}

// Ref renders the call reference used in diagnostics: function "date".
func (c CallSite) Ref() string {
	return ir.CallKey(c.Type, c.Name)
}

// signature renders the call name with a parameter list: date(format, timestamp).
func (c CallSite) signature(params []string) string {
	return c.Name + "(" + strings.Join(params, ", ") + ")"
}

// Oracle reports the parameters of a callable target.
// Implementations must be safe for concurrent use and free of side effects.
type Oracle interface {
	Describe(ctx context.Context, ref ir.CallableRef) (*ir.Signature, error)
}

// Registry maps template-visible call names to their call sites and targets.
type Registry interface {
	LookupCall(ctx context.Context, callType, name string) (ir.CallEntry, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, ref ir.CallableRef) (*ir.Signature, error)

// Describe implements Oracle.
func (f OracleFunc) Describe(ctx context.Context, ref ir.CallableRef) (*ir.Signature, error) {
	return f(ctx, ref)
}

// Option configures a Binder.
type Option func(*Binder)

// WithPlatform sets the platform named in UnresolvableDefault diagnostics.
func WithPlatform(platform string) Option {
	return func(b *Binder) {
		if platform != "" {
			b.platform = platform
		}
	}
}

// WithLogger sets the logger used for debug tracing of resolutions.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Binder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Binder resolves supplied arguments into invocation order.
type Binder struct {
	oracle   Oracle
	platform string
	logger   *slog.Logger
}

// New creates a Binder. The oracle may be nil when only Resolve is used.
func New(oracle Oracle, opts ...Option) *Binder {
	b := &Binder{
		oracle:   oracle,
		platform: DefaultPlatform,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Platform returns the platform name used in diagnostics.
func (b *Binder) Platform() string {
	return b.platform
}

// Resolve binds args against sig using the default platform name.
func Resolve(call CallSite, sig *ir.Signature, args ir.Args) ([]ir.IRValue, error) {
	return New(nil).Resolve(call, sig, args)
}

// Bind looks up the target's signature and resolves args against it.
// Purely positional, non-variadic calls never consult the oracle.
func (b *Binder) Bind(ctx context.Context, call CallSite, ref ir.CallableRef, args ir.Args) ([]ir.IRValue, error) {
	if err := checkOrdering(call, args); err != nil {
		return nil, b.fail(call, err)
	}
	if !args.HasNamed() && !call.Variadic {
		return b.succeed(call, args, args.Values()), nil
	}
	if b.oracle == nil {
		return nil, b.fail(call, noSignatureError(call, args))
	}

	sig, err := b.oracle.Describe(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("describe %s for %s: %w", ref, call.Ref(), err)
	}
	return b.Resolve(call, sig, args)
}

// Call looks up a registered call by type and name, then binds args to its target.
func (b *Binder) Call(ctx context.Context, registry Registry, callType, name string, args ir.Args) ([]ir.IRValue, error) {
	entry, err := registry.LookupCall(ctx, callType, name)
	if err != nil {
		return nil, err
	}
	return b.Bind(ctx, CallSiteFor(entry), entry.Target, args)
}

// Resolve binds args against sig and returns the values in parameter order,
// with trailing unsupplied defaults trimmed. A nil sig is allowed for purely
// positional calls.
func (b *Binder) Resolve(call CallSite, sig *ir.Signature, args ir.Args) ([]ir.IRValue, error) {
	out, err := b.resolve(call, sig, args)
	if err != nil {
		return nil, b.fail(call, err)
	}
	return b.succeed(call, args, out), nil
}

func (b *Binder) fail(call CallSite, err error) error {
	b.logger.Debug("binding failed",
		"call", call.Ref(),
		"code", CodeOf(err),
		"error", err.Error(),
	)
	return err
}

func (b *Binder) succeed(call CallSite, args ir.Args, out []ir.IRValue) []ir.IRValue {
	b.logger.Debug("arguments bound",
		"call", call.Ref(),
		"supplied", args.String(),
		"emitted", len(out),
	)
	return out
}

// suppliedName is a named argument after name normalization.
type suppliedName struct {
	name  string
	value ir.IRValue
}

func (b *Binder) resolve(call CallSite, sig *ir.Signature, args ir.Args) ([]ir.IRValue, error) {
	if err := checkOrdering(call, args); err != nil {
		return nil, err
	}
	if !args.HasNamed() && !call.Variadic {
		return args.Values(), nil
	}
	if sig == nil {
		return nil, noSignatureError(call, args)
	}

	params, capture := callableParams(call, sig)
	names := make([]string, len(params))
	index := make(map[string]int, len(params))
	for i, p := range params {
		names[i] = NormalizeName(p.Name)
		index[names[i]] = i
	}

	var positional []ir.IRValue
	var named []suppliedName
	for _, a := range args {
		if a.IsNamed() {
			named = append(named, suppliedName{name: NormalizeName(a.Name), value: a.Value})
		} else {
			positional = append(positional, a.Value)
		}
	}

	seen := make(map[string]bool, len(named))
	for _, a := range named {
		if seen[a.name] {
			return nil, newDuplicateError(call, a.name)
		}
		seen[a.name] = true
		if i, ok := index[a.name]; ok && i < len(positional) {
			return nil, newDuplicateError(call, a.name)
		}
	}

	if !call.Variadic {
		var unknown []string
		for i := len(params); i < len(positional); i++ {
			unknown = append(unknown, strconv.Itoa(i))
		}
		for _, a := range named {
			if _, ok := index[a.name]; !ok {
				unknown = append(unknown, a.name)
			}
		}
		if len(unknown) > 0 {
			return nil, newUnknownError(call, names, unknown)
		}
	} else if capture == nil {
		return nil, newVariadicError(call, sig.Target.QualifiedName())
	}

	values := make(map[string]ir.IRValue, len(named))
	for _, a := range named {
		values[a.name] = a.value
	}

	out := make([]ir.IRValue, 0, len(params)+1)
	var pending []ir.IRValue // defaults emitted only if a supplied value follows
	var missing []string     // optional params whose default is unknown
	pos := 0

walk:
	for i, p := range params {
		name := names[i]

		if v, ok := values[name]; ok {
			if len(missing) > 0 {
				return nil, newUnresolvableError(call, names, sig.Target.QualifiedName(), name, b.platform, missing)
			}
			out = append(out, pending...)
			out = append(out, v)
			pending = nil
			delete(values, name)
			continue
		}

		if pos < len(positional) {
			out = append(out, pending...)
			out = append(out, positional[pos])
			pending = nil
			pos++
			continue
		}

		switch {
		case p.HasDefault:
			pending = append(pending, p.Default)
		case p.Optional:
			if len(values) == 0 {
				for j := i + 1; j < len(params); j++ {
					if params[j].Required() {
						return nil, newMissingError(call, names[j])
					}
				}
				break walk
			}
			missing = append(missing, name)
		default:
			return nil, newMissingError(call, name)
		}
	}

	if capture != nil {
		if extra := captureValue(positional[pos:], named, values); extra != nil {
			if len(missing) > 0 {
				return nil, newUnresolvableError(call, names, sig.Target.QualifiedName(), NormalizeName(capture.Name), b.platform, missing)
			}
			out = append(out, pending...)
			out = append(out, extra)
		}
	}

	return out, nil
}

// checkOrdering rejects a positional argument that follows a named one.
func checkOrdering(call CallSite, args ir.Args) error {
	named := false
	for _, a := range args {
		if a.IsNamed() {
			named = true
		} else if named {
			return newOrderingError(call)
		}
	}
	return nil
}

// callableParams returns the template-visible parameters and, for variadic
// call sites with a well-formed target, the capture parameter split off the end.
func callableParams(call CallSite, sig *ir.Signature) ([]ir.ParamDescriptor, *ir.ParamDescriptor) {
	params := sig.Params
	if call.Implicit > 0 {
		params = params[min(call.Implicit, len(params)):]
	}
	if !call.Variadic || len(params) == 0 {
		return params, nil
	}

	last := params[len(params)-1]
	if last.Variadic && last.HasDefault && ir.IsEmptyArray(last.Default) {
		return params[:len(params)-1], &last
	}
	return params, nil
}

// captureValue collects surplus arguments for the variadic capture parameter.
// Positional surplus alone yields an array; any named surplus yields an object
// keyed by position index and name. Returns nil when nothing is left over.
func captureValue(extra []ir.IRValue, named []suppliedName, remaining map[string]ir.IRValue) ir.IRValue {
	var extraNamed []suppliedName
	for _, a := range named {
		if v, ok := remaining[a.name]; ok {
			extraNamed = append(extraNamed, suppliedName{name: a.name, value: v})
		}
	}

	if len(extra) == 0 && len(extraNamed) == 0 {
		return nil
	}
	if len(extraNamed) == 0 {
		return append(ir.IRArray{}, extra...)
	}

	obj := make(ir.IRObject, len(extra)+len(extraNamed))
	for i, v := range extra {
		obj[strconv.Itoa(i)] = v
	}
	for _, a := range extraNamed {
		obj[a.name] = a.value
	}
	return obj
}
