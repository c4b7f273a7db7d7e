package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/callbind/internal/ir"
	"github.com/roach88/callbind/internal/testutil"
)

// createTestStore creates a new store in a temp directory with fixed snapshot IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewFixedIDGenerator()))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testCatalog returns a small catalog covering every parameter shape the
// store has to round-trip.
func testCatalog() *ir.Catalog {
	return &ir.Catalog{
		Calls: []ir.CallEntry{
			{CallType: ir.CallFunction, CallName: "date", Target: ir.FunctionRef("date")},
			{CallType: ir.CallFilter, CallName: "upper", Target: ir.MethodRef("Strings", "upper"), Implicit: 1},
			{CallType: ir.CallFunction, CallName: "join", Target: ir.InvocableRef("Joiner"), Variadic: true},
		},
		Signatures: []ir.Signature{
			{
				Target: ir.FunctionRef("date"),
				Kind:   ir.KindUserDefined,
				Params: []ir.ParamDescriptor{
					{Name: "format", HasDefault: true, Optional: true, Default: ir.Null},
					{Name: "timezone", HasDefault: true, Optional: true, Default: ir.IRString("UTC")},
				},
			},
			{
				Target: ir.MethodRef("Strings", "upper"),
				Kind:   ir.KindNative,
				Params: []ir.ParamDescriptor{
					{Name: "env"},
					{Name: "value"},
					{Name: "locale", Optional: true},
				},
			},
			{
				Target: ir.InvocableRef("Joiner"),
				Kind:   ir.KindUserDefined,
				Params: []ir.ParamDescriptor{
					{Name: "glue", HasDefault: true, Optional: true, Default: ir.IRInt(9007199254740993)},
					{Name: "pieces", HasDefault: true, Optional: true, Default: ir.EmptyArray(), Variadic: true},
				},
			},
		},
	}
}
