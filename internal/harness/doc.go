// Package harness runs conformance scenarios against the argument binder.
//
// A scenario names a CUE catalog directory and a list of call cases. Each
// case supplies an argument list and expects either the bound values or a
// binding error:
//
//	name: date_calls
//	description: "Named arguments against date()"
//	specs: ../specs
//	cases:
//	  - name: named_timezone
//	    type: function
//	    call: date
//	    args: [{name: timezone, value: "Europe/Paris"}]
//	    expect:
//	      result: [null, "Europe/Paris"]
//	  - name: positional_after_named
//	    type: function
//	    call: date
//	    args: [{name: format, value: "Y"}, 1]
//	    expect:
//	      error: {code: ORDERING_VIOLATION}
//
// The argument list syntax is shared with the CLI's --args flag; see ParseArgs.
//
// # Execution
//
// Every scenario compiles its catalog, saves it to a fresh in-memory store
// with fixed snapshot IDs, and binds through the store behind a memoizing
// oracle. The observed outcomes are deterministic, so they can be compared
// against golden files as well as against the expect clauses.
package harness
