// Package binder resolves template call arguments against a callable's
// declared parameters.
//
// Given a call site (`function "date"`), the target's signature as reported by
// the introspection oracle, and the supplied arguments, the binder produces the
// ordered argument list used to invoke the target, or exactly one *BindError.
//
// RESOLUTION PHASES:
//
// Each Resolve call is a single linear pass. The first failure wins, in this order:
//  1. Ordering: a positional argument after a named one
//  2. Duplicates: the same parameter supplied twice, by name or by name and position
//  3. Unknown names: named arguments matching no parameter (non-variadic call sites)
//  4. Variadic shape: a variadic call site whose target has no trailing
//     empty-array capture parameter
//  5. Assignment: positional values, then named values, then defaults; a native
//     optional parameter whose default cannot be introspected blocks any
//     later supplied argument
//
// Trailing parameters that would only receive their default are omitted, so the
// emitted call is minimal.
//
// CONCURRENCY:
//
// A Binder is immutable after New and Resolve touches nothing but its inputs, so
// one Binder may serve any number of goroutines. Bind calls the oracle once per
// call; caching oracle answers is the caller's business (see compiler.Memoize).
package binder
