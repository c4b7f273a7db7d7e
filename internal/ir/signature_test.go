package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallableRefQualifiedName(t *testing.T) {
	tests := []struct {
		name     string
		ref      CallableRef
		expected string
	}{
		{"function", FunctionRef(`Twig\Tests\custom_function`), `Twig\Tests\custom_function`},
		{"method", MethodRef("CallTest", "customStaticFunction"), "CallTest::customStaticFunction"},
		{"invocable", InvocableRef("CallableTestClass"), "CallableTestClass::__invoke"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.ref.QualifiedName())
			assert.NoError(t, tt.ref.Validate())

			parsed, err := ParseCallableRef(tt.expected)
			require.NoError(t, err)
			assert.Equal(t, tt.ref, parsed)
		})
	}
}

func TestParseCallableRefErrors(t *testing.T) {
	_, err := ParseCallableRef("")
	assert.Error(t, err)

	_, err = ParseCallableRef("::name")
	assert.Error(t, err)

	_, err = ParseCallableRef("Type::")
	assert.Error(t, err)
}

func TestCallableRefValidate(t *testing.T) {
	assert.Error(t, CallableRef{Kind: RefFunction}.Validate())
	assert.Error(t, CallableRef{Kind: RefMethod, Type: "T"}.Validate())
	assert.Error(t, CallableRef{Kind: RefInvocable}.Validate())
	assert.Error(t, CallableRef{Kind: "closure", Name: "x"}.Validate())
}

func TestCallableRefJSON(t *testing.T) {
	data, err := json.Marshal(MethodRef("Strings", "upper"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"method","type":"Strings","name":"upper"}`, string(data))

	var ref CallableRef
	require.NoError(t, json.Unmarshal(data, &ref))
	assert.Equal(t, MethodRef("Strings", "upper"), ref)

	require.NoError(t, json.Unmarshal([]byte(`"Foo::__invoke"`), &ref))
	assert.Equal(t, InvocableRef("Foo"), ref)
}

func dateSignature() *Signature {
	return &Signature{
		Target: FunctionRef("date"),
		Kind:   KindNative,
		Params: []ParamDescriptor{
			{Name: "format"},
			{Name: "timestamp", Optional: true, HasDefault: true, Default: Null},
		},
	}
}

func TestSignatureParamNames(t *testing.T) {
	assert.Equal(t, []string{"format", "timestamp"}, dateSignature().ParamNames())
}

func TestParamDescriptorPredicates(t *testing.T) {
	required := ParamDescriptor{Name: "format"}
	assert.True(t, required.Required())
	assert.False(t, required.UnknownDefault())

	unknown := ParamDescriptor{Name: "length", Optional: true}
	assert.False(t, unknown.Required())
	assert.True(t, unknown.UnknownDefault())

	withDefault := ParamDescriptor{Name: "timestamp", Optional: true, HasDefault: true, Default: Null}
	assert.False(t, withDefault.Required())
	assert.False(t, withDefault.UnknownDefault())
}

func TestSignatureHasVariadicCapture(t *testing.T) {
	sig := &Signature{
		Target: FunctionRef("format"),
		Kind:   KindUserDefined,
		Params: []ParamDescriptor{
			{Name: "format"},
			{Name: "values", Optional: true, HasDefault: true, Default: EmptyArray(), Variadic: true},
		},
	}
	assert.True(t, sig.HasVariadicCapture())

	sig.Params[1].Default = IRArray{IRInt(1)}
	assert.False(t, sig.HasVariadicCapture())

	sig.Params[1].Default = EmptyArray()
	sig.Params[1].Variadic = false
	assert.False(t, sig.HasVariadicCapture())

	assert.False(t, (&Signature{}).HasVariadicCapture())
}

func TestSignatureValidate(t *testing.T) {
	require.NoError(t, dateSignature().Validate())

	dup := dateSignature()
	dup.Params = append(dup.Params, ParamDescriptor{Name: "format"})
	assert.ErrorContains(t, dup.Validate(), `duplicate parameter "format"`)

	// caseSensitivity and case_sensitivity are the same binding key
	collide := &Signature{
		Target: FunctionRef("f"),
		Kind:   KindNative,
		Params: []ParamDescriptor{{Name: "caseSensitivity"}, {Name: "case_sensitivity"}},
	}
	assert.ErrorContains(t, collide.Validate(), `duplicate parameter "case_sensitivity"`)

	notLast := dateSignature()
	notLast.Params[0].Variadic = true
	assert.ErrorContains(t, notLast.Validate(), "must be last")

	userUnknown := dateSignature()
	userUnknown.Kind = KindUserDefined
	userUnknown.Params = append(userUnknown.Params, ParamDescriptor{Name: "locale", Optional: true})
	assert.ErrorContains(t, userUnknown.Validate(), "must declare a default")

	badKind := dateSignature()
	badKind.Kind = "other"
	assert.ErrorContains(t, badKind.Validate(), "unknown kind")
}

func TestParamDescriptorJSON(t *testing.T) {
	sig := dateSignature()
	sig.Params = append(sig.Params, ParamDescriptor{Name: "locale", Optional: true})

	data, err := json.Marshal(sig)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"target": {"kind": "function", "name": "date"},
		"kind": "native",
		"params": [
			{"name": "format"},
			{"name": "timestamp", "optional": true, "has_default": true, "default": null},
			{"name": "locale", "optional": true}
		]
	}`, string(data))

	var decoded Signature
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Params, 3)
	assert.True(t, decoded.Params[1].HasDefault)
	assert.Equal(t, Null, decoded.Params[1].Default)
	assert.Nil(t, decoded.Params[2].Default)
	assert.True(t, decoded.Params[2].UnknownDefault())
}

func TestSignatureHash(t *testing.T) {
	a := MustSignatureHash(dateSignature())
	b := MustSignatureHash(dateSignature())
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	changed := dateSignature()
	changed.Params[1].Default = IRInt(0)
	assert.NotEqual(t, a, MustSignatureHash(changed))
}

func TestCatalogLookups(t *testing.T) {
	cat := &Catalog{
		Calls: []CallEntry{
			{CallType: CallFunction, CallName: "date", Target: FunctionRef("date")},
		},
		Signatures: []Signature{*dateSignature()},
	}

	entry, ok := cat.Call(CallFunction, "date")
	require.True(t, ok)
	assert.Equal(t, `function "date"`, entry.Key())

	_, ok = cat.Call(CallFilter, "date")
	assert.False(t, ok)

	sig, ok := cat.Signature(FunctionRef("date"))
	require.True(t, ok)
	assert.Equal(t, "date", sig.Target.Name)

	h1, err := CatalogHash(cat)
	require.NoError(t, err)
	cat.Calls[0].Variadic = true
	h2, err := CatalogHash(cat)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
