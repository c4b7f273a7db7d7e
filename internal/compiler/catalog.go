package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/callbind/internal/ir"
)

// callSections lists the top-level CUE fields holding call declarations,
// in the order they are compiled.
var callSections = []string{ir.CallFunction, ir.CallFilter, ir.CallTest}

// CompiledCall is one call declaration together with its target's signature.
type CompiledCall struct {
	Entry     ir.CallEntry
	Signature ir.Signature
}

// CompileCatalog compiles every call declaration in v into a Catalog.
// It stops at the first error; LoadSpecs offers a collect-all mode.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`function: date: { kind: "native", params: [...] }`)
//	cat, err := CompileCatalog(v)
func CompileCatalog(v cue.Value) (*ir.Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	b := newCatalogBuilder()
	for _, section := range callSections {
		sectionVal := v.LookupPath(cue.ParsePath(section))
		if !sectionVal.Exists() {
			continue
		}

		iter, err := sectionVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			call, err := CompileCall(section, iter.Value())
			if err != nil {
				return nil, err
			}
			if err := b.add(call, iter.Value().Pos()); err != nil {
				return nil, err
			}
		}
	}
	return b.catalog(), nil
}

// CompileCall parses a single call declaration. The call name is taken from
// the value's struct label, e.g. the `date` in `function: date: {...}`.
func CompileCall(callType string, v cue.Value) (*CompiledCall, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	name := ""
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		name = strings.Trim(labels[len(labels)-1].String(), `"`)
	}
	field := callType + "." + name

	target, err := parseTarget(v, name, field)
	if err != nil {
		return nil, err
	}

	kind := ir.KindUserDefined
	if kindVal := v.LookupPath(cue.ParsePath("kind")); kindVal.Exists() {
		s, err := kindVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		kind = ir.TargetKind(s)
		if kind != ir.KindUserDefined && kind != ir.KindNative {
			return nil, &CompileError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("kind must be %q or %q, got %q", ir.KindUserDefined, ir.KindNative, s),
				Pos:     kindVal.Pos(),
			}
		}
	}

	params, err := parseParams(v, field)
	if err != nil {
		return nil, err
	}

	variadic, err := lookupBool(v, "variadic")
	if err != nil {
		return nil, err
	}

	implicit, err := parseImplicit(v)
	if err != nil {
		return nil, err
	}

	return &CompiledCall{
		Entry: ir.CallEntry{
			CallType: callType,
			CallName: name,
			Target:   target,
			Variadic: variadic,
			Implicit: implicit,
		},
		Signature: ir.Signature{
			Target: target,
			Kind:   kind,
			Params: params,
		},
	}, nil
}

// parseTarget reads the target block. A missing target means a free
// function named after the call.
//
//	target: function: "date"
//	target: {type: "Strings", method: "upper"}
//	target: {type: "CallableTestClass", invoke: true}
func parseTarget(v cue.Value, name, field string) (ir.CallableRef, error) {
	targetVal := v.LookupPath(cue.ParsePath("target"))
	if !targetVal.Exists() {
		return ir.FunctionRef(name), nil
	}

	if fnVal := targetVal.LookupPath(cue.ParsePath("function")); fnVal.Exists() {
		fn, err := fnVal.String()
		if err != nil {
			return ir.CallableRef{}, formatCUEError(err)
		}
		return ir.FunctionRef(fn), nil
	}

	typeVal := targetVal.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return ir.CallableRef{}, &CompileError{
			Field:   field + ".target",
			Message: "target requires either function or type",
			Pos:     targetVal.Pos(),
		}
	}
	typ, err := typeVal.String()
	if err != nil {
		return ir.CallableRef{}, formatCUEError(err)
	}

	if methodVal := targetVal.LookupPath(cue.ParsePath("method")); methodVal.Exists() {
		method, err := methodVal.String()
		if err != nil {
			return ir.CallableRef{}, formatCUEError(err)
		}
		return ir.MethodRef(typ, method), nil
	}

	invoke, err := lookupBool(targetVal, "invoke")
	if err != nil {
		return ir.CallableRef{}, err
	}
	if !invoke {
		return ir.CallableRef{}, &CompileError{
			Field:   field + ".target",
			Message: "type target requires method or invoke: true",
			Pos:     targetVal.Pos(),
		}
	}
	return ir.InvocableRef(typ), nil
}

// parseParams reads the ordered parameter list.
func parseParams(v cue.Value, field string) ([]ir.ParamDescriptor, error) {
	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if !paramsVal.Exists() {
		return []ir.ParamDescriptor{}, nil
	}

	iter, err := paramsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	params := []ir.ParamDescriptor{}
	for i := 0; iter.Next(); i++ {
		pv := iter.Value()
		pfield := fmt.Sprintf("%s.params[%d]", field, i)

		nameVal := pv.LookupPath(cue.ParsePath("name"))
		if !nameVal.Exists() {
			return nil, &CompileError{
				Field:   pfield + ".name",
				Message: "parameter name is required",
				Pos:     pv.Pos(),
			}
		}
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		p := ir.ParamDescriptor{Name: name}

		if p.Optional, err = lookupBool(pv, "optional"); err != nil {
			return nil, err
		}
		if p.Variadic, err = lookupBool(pv, "variadic"); err != nil {
			return nil, err
		}

		if defVal := pv.LookupPath(cue.ParsePath("default")); defVal.Exists() {
			def, err := cueToIR(defVal, pfield+".default")
			if err != nil {
				return nil, err
			}
			p.HasDefault = true
			p.Optional = true
			p.Default = def
		}

		params = append(params, p)
	}
	return params, nil
}

// parseImplicit sums the leading parameters the runtime supplies.
func parseImplicit(v cue.Value) (int, error) {
	implicit := 0
	for _, flag := range []string{"needs_environment", "needs_context"} {
		set, err := lookupBool(v, flag)
		if err != nil {
			return 0, err
		}
		if set {
			implicit++
		}
	}

	if boundVal := v.LookupPath(cue.ParsePath("bound_arguments")); boundVal.Exists() {
		n, err := boundVal.Int64()
		if err != nil {
			return 0, formatCUEError(err)
		}
		if n < 0 {
			return 0, &CompileError{
				Field:   "bound_arguments",
				Message: "bound_arguments must not be negative",
				Pos:     boundVal.Pos(),
			}
		}
		implicit += int(n)
	}
	return implicit, nil
}

// lookupBool reads an optional boolean field, defaulting to false.
func lookupBool(v cue.Value, path string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// cueToIR converts a concrete CUE value into an IRValue.
// Floats are forbidden, as everywhere in the IR.
func cueToIR(v cue.Value, field string) (ir.IRValue, error) {
	if !v.IsConcrete() {
		return nil, &CompileError{
			Field:   field,
			Message: "default must be a concrete value",
			Pos:     v.Pos(),
		}
	}

	switch v.Kind() {
	case cue.NullKind:
		return ir.Null, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRBool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRInt(n), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRString(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := ir.IRArray{}
		for i := 0; iter.Next(); i++ {
			elem, err := cueToIR(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := ir.IRObject{}
		for iter.Next() {
			elem, err := cueToIR(iter.Value(), field+"."+iter.Label())
			if err != nil {
				return nil, err
			}
			obj[iter.Label()] = elem
		}
		return obj, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   field,
			Message: "float defaults are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported default kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

// catalogBuilder accumulates compiled calls, sharing one signature per target.
type catalogBuilder struct {
	calls  []ir.CallEntry
	sigs   []ir.Signature
	hashes map[string]string
}

func newCatalogBuilder() *catalogBuilder {
	return &catalogBuilder{
		calls:  []ir.CallEntry{},
		sigs:   []ir.Signature{},
		hashes: make(map[string]string),
	}
}

// add records a call. Two calls may share a target only if they declare
// the same signature for it.
func (b *catalogBuilder) add(call *CompiledCall, pos token.Pos) error {
	hash, err := ir.SignatureHash(&call.Signature)
	if err != nil {
		return &CompileError{
			Field:   call.Entry.CallType + "." + call.Entry.CallName,
			Message: err.Error(),
			Pos:     pos,
		}
	}

	name := call.Signature.Target.QualifiedName()
	if prev, ok := b.hashes[name]; ok {
		if prev != hash {
			return &CompileError{
				Field:   call.Entry.CallType + "." + call.Entry.CallName + ".params",
				Message: fmt.Sprintf("conflicting signature for target %q", name),
				Pos:     pos,
			}
		}
	} else {
		b.hashes[name] = hash
		b.sigs = append(b.sigs, call.Signature)
	}

	b.calls = append(b.calls, call.Entry)
	return nil
}

func (b *catalogBuilder) catalog() *ir.Catalog {
	return &ir.Catalog{Calls: b.calls, Signatures: b.sigs}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Report the first error that carries a position
	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
