package compiler

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/callbind/internal/binder"
	"github.com/roach88/callbind/internal/ir"
)

// Registry serves a compiled catalog from memory. It is both the oracle and
// the call registry the binder consumes, and is read-only after construction.
type Registry struct {
	calls map[string]ir.CallEntry
	sigs  map[string]*ir.Signature
}

// NewRegistry indexes a catalog. Later entries replace earlier ones with
// the same key; run Validate first to reject such catalogs.
func NewRegistry(cat *ir.Catalog) *Registry {
	r := &Registry{
		calls: make(map[string]ir.CallEntry, len(cat.Calls)),
		sigs:  make(map[string]*ir.Signature, len(cat.Signatures)),
	}
	for _, e := range cat.Calls {
		r.calls[e.Key()] = e
	}
	for i := range cat.Signatures {
		sig := cat.Signatures[i].Clone()
		r.sigs[sig.Target.QualifiedName()] = sig
	}
	return r
}

// Describe implements binder.Oracle.
func (r *Registry) Describe(_ context.Context, ref ir.CallableRef) (*ir.Signature, error) {
	sig, ok := r.sigs[ref.QualifiedName()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", binder.ErrCallableNotFound, ref.QualifiedName())
	}
	return sig, nil
}

// LookupCall implements binder.Registry.
func (r *Registry) LookupCall(_ context.Context, callType, name string) (ir.CallEntry, error) {
	e, ok := r.calls[ir.CallKey(callType, name)]
	if !ok {
		return ir.CallEntry{}, fmt.Errorf("%w: %s", binder.ErrUnknownCall, ir.CallKey(callType, name))
	}
	return e, nil
}

// Calls returns the registered entries sorted by call type, then name.
func (r *Registry) Calls() []ir.CallEntry {
	out := make([]ir.CallEntry, 0, len(r.calls))
	for _, e := range r.calls {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CallType != out[j].CallType {
			return out[i].CallType < out[j].CallType
		}
		return out[i].CallName < out[j].CallName
	})
	return out
}
