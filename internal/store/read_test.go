package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/callbind/internal/binder"
	"github.com/roach88/callbind/internal/ir"
)

func TestLatest_NoCatalog(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Latest(context.Background())
	if !errors.Is(err, ErrNoCatalog) {
		t.Errorf("Latest() error = %v, want ErrNoCatalog", err)
	}
}

func TestSnapshots_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	snaps, err := s.Snapshots(context.Background())
	if err != nil {
		t.Fatalf("Snapshots() failed: %v", err)
	}
	if snaps == nil {
		t.Error("Snapshots() returned nil, want empty slice")
	}
}

func TestDescribe_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	cat := testCatalog()

	if _, err := s.SaveCatalog(ctx, cat, "specs/"); err != nil {
		t.Fatalf("SaveCatalog() failed: %v", err)
	}

	for i := range cat.Signatures {
		want := &cat.Signatures[i]
		t.Run(want.Target.QualifiedName(), func(t *testing.T) {
			got, err := s.Describe(ctx, want.Target)
			if err != nil {
				t.Fatalf("Describe() failed: %v", err)
			}
			assertSignatureEqual(t, got, want)
		})
	}
}

func TestDescribe_NotFound(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveCatalog(ctx, testCatalog(), "specs/"); err != nil {
		t.Fatalf("SaveCatalog() failed: %v", err)
	}

	_, err := s.Describe(ctx, ir.FunctionRef("missing"))
	if !errors.Is(err, binder.ErrCallableNotFound) {
		t.Errorf("Describe() error = %v, want ErrCallableNotFound", err)
	}
}

func TestDescribe_ReadsLatestSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := testCatalog()
	if _, err := s.SaveCatalog(ctx, first, "v1/"); err != nil {
		t.Fatalf("SaveCatalog(v1) failed: %v", err)
	}

	second := testCatalog()
	second.Signatures[0].Params = []ir.ParamDescriptor{{Name: "format"}}
	if _, err := s.SaveCatalog(ctx, second, "v2/"); err != nil {
		t.Fatalf("SaveCatalog(v2) failed: %v", err)
	}

	got, err := s.Describe(ctx, ir.FunctionRef("date"))
	if err != nil {
		t.Fatalf("Describe() failed: %v", err)
	}
	assertSignatureEqual(t, got, &second.Signatures[0])
}

func TestLookupCall(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveCatalog(ctx, testCatalog(), "specs/"); err != nil {
		t.Fatalf("SaveCatalog() failed: %v", err)
	}

	tests := []struct {
		callType string
		name     string
		want     ir.CallEntry
	}{
		{ir.CallFunction, "date", ir.CallEntry{CallType: "function", CallName: "date", Target: ir.FunctionRef("date")}},
		{ir.CallFilter, "upper", ir.CallEntry{CallType: "filter", CallName: "upper", Target: ir.MethodRef("Strings", "upper"), Implicit: 1}},
		{ir.CallFunction, "join", ir.CallEntry{CallType: "function", CallName: "join", Target: ir.InvocableRef("Joiner"), Variadic: true}},
	}

	for _, tt := range tests {
		t.Run(tt.callType+"/"+tt.name, func(t *testing.T) {
			got, err := s.LookupCall(ctx, tt.callType, tt.name)
			if err != nil {
				t.Fatalf("LookupCall() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("LookupCall() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLookupCall_Unknown(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveCatalog(ctx, testCatalog(), "specs/"); err != nil {
		t.Fatalf("SaveCatalog() failed: %v", err)
	}

	// Same name under a different call type is a different entry.
	_, err := s.LookupCall(ctx, ir.CallTest, "date")
	if !errors.Is(err, binder.ErrUnknownCall) {
		t.Errorf("LookupCall() error = %v, want ErrUnknownCall", err)
	}
}

func TestListCalls_Ordered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveCatalog(ctx, testCatalog(), "specs/"); err != nil {
		t.Fatalf("SaveCatalog() failed: %v", err)
	}

	calls, err := s.ListCalls(ctx)
	if err != nil {
		t.Fatalf("ListCalls() failed: %v", err)
	}

	want := []string{`filter "upper"`, `function "date"`, `function "join"`}
	if len(calls) != len(want) {
		t.Fatalf("ListCalls() returned %d entries, want %d", len(calls), len(want))
	}
	for i, e := range calls {
		if e.Key() != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, e.Key(), want[i])
		}
	}
}

func TestListCalls_NoCatalog(t *testing.T) {
	s := createTestStore(t)

	calls, err := s.ListCalls(context.Background())
	if err != nil {
		t.Fatalf("ListCalls() failed: %v", err)
	}
	if calls == nil || len(calls) != 0 {
		t.Errorf("ListCalls() = %#v, want empty non-nil slice", calls)
	}
}

func TestLoadCatalog_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	cat := testCatalog()

	if _, err := s.SaveCatalog(ctx, cat, "specs/"); err != nil {
		t.Fatalf("SaveCatalog() failed: %v", err)
	}

	loaded, err := s.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("LoadCatalog() failed: %v", err)
	}

	if len(loaded.Calls) != len(cat.Calls) {
		t.Errorf("calls = %d, want %d", len(loaded.Calls), len(cat.Calls))
	}
	for _, sig := range cat.Signatures {
		got, ok := loaded.Signature(sig.Target)
		if !ok {
			t.Errorf("loaded catalog missing signature %s", sig.Target)
			continue
		}
		assertSignatureEqual(t, got, &sig)
	}
	for _, e := range cat.Calls {
		got, ok := loaded.Call(e.CallType, e.CallName)
		if !ok || got != e {
			t.Errorf("loaded call %s = %+v, want %+v", e.Key(), got, e)
		}
	}
}

func TestLoadCatalog_NoCatalog(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LoadCatalog(context.Background())
	if !errors.Is(err, ErrNoCatalog) {
		t.Errorf("LoadCatalog() error = %v, want ErrNoCatalog", err)
	}
}

func TestStore_DrivesBinder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveCatalog(ctx, testCatalog(), "specs/"); err != nil {
		t.Fatalf("SaveCatalog() failed: %v", err)
	}

	b := binder.New(s)

	got, err := b.Call(ctx, s, ir.CallFunction, "date", ir.Args{
		ir.Named("timezone", ir.IRString("Europe/Paris")),
	})
	if err != nil {
		t.Fatalf("Call(date) failed: %v", err)
	}
	want := []ir.IRValue{ir.Null, ir.IRString("Europe/Paris")}
	if !valuesEqual(got, want) {
		t.Errorf("Call(date) = %v, want %v", got, want)
	}

	got, err = b.Call(ctx, s, ir.CallFunction, "join", ir.Args{
		ir.Named("glue", ir.IRString("-")),
	})
	if err != nil {
		t.Fatalf("Call(join) failed: %v", err)
	}
	want = []ir.IRValue{ir.IRString("-")}
	if !valuesEqual(got, want) {
		t.Errorf("Call(join) = %v, want %v", got, want)
	}

	_, err = b.Call(ctx, s, ir.CallFilter, "upper", ir.Args{
		ir.Named("locale", ir.IRString("fr")),
	})
	if code := binder.CodeOf(err); code != binder.ErrCodeMissingArgument {
		t.Errorf("Call(upper) code = %q, want %q (err: %v)", code, binder.ErrCodeMissingArgument, err)
	}
}

func assertSignatureEqual(t *testing.T, got, want *ir.Signature) {
	t.Helper()

	if got.Target != want.Target {
		t.Errorf("target = %s, want %s", got.Target, want.Target)
	}
	if got.Kind != want.Kind {
		t.Errorf("kind = %q, want %q", got.Kind, want.Kind)
	}
	if len(got.Params) != len(want.Params) {
		t.Fatalf("params = %d, want %d", len(got.Params), len(want.Params))
	}
	for i, p := range got.Params {
		w := want.Params[i]
		if p.Name != w.Name || p.Optional != w.Optional || p.HasDefault != w.HasDefault || p.Variadic != w.Variadic {
			t.Errorf("params[%d] = %+v, want %+v", i, p, w)
		}
		if w.HasDefault && !ir.Equal(p.Default, w.Default) {
			t.Errorf("params[%d] default = %s, want %s", i, ir.String(p.Default), ir.String(w.Default))
		}
	}
}

func valuesEqual(got, want []ir.IRValue) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if !ir.Equal(got[i], want[i]) {
			return false
		}
	}
	return true
}
