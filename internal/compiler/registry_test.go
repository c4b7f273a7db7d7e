package compiler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/callbind/internal/binder"
	"github.com/roach88/callbind/internal/ir"
)

func TestRegistryDescribe(t *testing.T) {
	reg := NewRegistry(validCatalog())

	sig, err := reg.Describe(context.Background(), ir.FunctionRef("date"))
	require.NoError(t, err)
	assert.Equal(t, []string{"format", "timestamp"}, sig.ParamNames())

	_, err = reg.Describe(context.Background(), ir.FunctionRef("strftime"))
	assert.ErrorIs(t, err, binder.ErrCallableNotFound)
	assert.Contains(t, err.Error(), "strftime")
}

func TestRegistryLookupCall(t *testing.T) {
	reg := NewRegistry(validCatalog())

	e, err := reg.LookupCall(context.Background(), ir.CallFilter, "date")
	require.NoError(t, err)
	assert.Equal(t, ir.FunctionRef("twig_date_format_filter"), e.Target)
	assert.Equal(t, 1, e.Implicit)

	_, err = reg.LookupCall(context.Background(), ir.CallTest, "date")
	assert.ErrorIs(t, err, binder.ErrUnknownCall)
	assert.Contains(t, err.Error(), `test "date"`)
}

func TestRegistryCallsSorted(t *testing.T) {
	reg := NewRegistry(validCatalog())

	var keys []string
	for _, e := range reg.Calls() {
		keys = append(keys, e.Key())
	}
	assert.Equal(t, []string{`filter "date"`, `function "date"`}, keys)
}

func TestRegistryIsolatedFromCatalog(t *testing.T) {
	cat := validCatalog()
	reg := NewRegistry(cat)
	cat.Signatures[0].Params[0].Name = "changed"

	sig, err := reg.Describe(context.Background(), ir.FunctionRef("date"))
	require.NoError(t, err)
	assert.Equal(t, "format", sig.Params[0].Name)
}

func TestRegistryDrivesBinder(t *testing.T) {
	cat, err := CompileCatalog(compileFixture(t, catalogFixture))
	require.NoError(t, err)
	reg := NewRegistry(cat)
	b := binder.New(reg, binder.WithPlatform("PHP"))

	result, err := b.Call(context.Background(), reg, ir.CallFunction, "date", ir.Args{
		ir.Named("format", ir.IRString("U")),
		ir.Named("timestamp", ir.Null),
	})
	require.NoError(t, err)
	assert.Equal(t, []ir.IRValue{ir.IRString("U"), ir.Null}, result)

	_, err = b.Call(context.Background(), reg, ir.CallFunction, "substr_compare", ir.Args{
		ir.Positional(ir.IRString("abcd")),
		ir.Positional(ir.IRString("bc")),
		ir.Named("offset", ir.IRInt(1)),
		ir.Named("case_sensitivity", ir.IRBool(true)),
	})
	assert.EqualError(t, err, `Argument "case_sensitivity" could not be assigned for function "substr_compare(main_str, str, offset, length, case_sensitivity)" because it is mapped to an internal PHP function which cannot determine default value for optional argument "length".`)

	_, err = b.Call(context.Background(), reg, ir.CallFunction, "foo", nil)
	assert.EqualError(t, err, `The last parameter of "CallableTestClass::__invoke" for function "foo" must be an ordered collection with an empty-collection default value.`)

	// needs_environment hides the env parameter
	_, err = b.Call(context.Background(), reg, ir.CallFilter, "upper", ir.Args{ir.Named("env", ir.Null)})
	assert.EqualError(t, err, `Unknown argument "env" for filter "upper(value)".`)
}

type slowOracle struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
	fail    bool

	canceled atomic.Bool // ctx was done when the lookup finished
}

func (o *slowOracle) Describe(ctx context.Context, ref ir.CallableRef) (*ir.Signature, error) {
	o.calls.Add(1)
	if o.entered != nil {
		o.entered <- struct{}{}
	}
	if o.release != nil {
		<-o.release
	}
	o.canceled.Store(ctx.Err() != nil)
	if o.fail {
		return nil, errors.New("introspection unavailable")
	}
	return &ir.Signature{Target: ref, Kind: ir.KindUserDefined, Params: []ir.ParamDescriptor{{Name: "x"}}}, nil
}

func TestMemoizeCachesSignatures(t *testing.T) {
	next := &slowOracle{}
	oracle := Memoize(next)

	for i := 0; i < 3; i++ {
		sig, err := oracle.Describe(context.Background(), ir.FunctionRef("f"))
		require.NoError(t, err)
		assert.Equal(t, ir.FunctionRef("f"), sig.Target)
	}
	_, err := oracle.Describe(context.Background(), ir.FunctionRef("g"))
	require.NoError(t, err)

	assert.Equal(t, int32(2), next.calls.Load())
}

func TestMemoizeCollapsesConcurrentLookups(t *testing.T) {
	next := &slowOracle{release: make(chan struct{})}
	oracle := Memoize(next)

	var wg sync.WaitGroup
	var started sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		started.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			_, err := oracle.Describe(context.Background(), ir.MethodRef("Strings", "upper"))
			assert.NoError(t, err)
		}()
	}
	started.Wait()
	close(next.release)
	wg.Wait()

	// Goroutines arriving after the first flight completes hit the cache.
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestMemoizeDoesNotCacheFailures(t *testing.T) {
	next := &slowOracle{fail: true}
	oracle := Memoize(next)

	_, err := oracle.Describe(context.Background(), ir.FunctionRef("f"))
	require.Error(t, err)
	_, err = oracle.Describe(context.Background(), ir.FunctionRef("f"))
	require.Error(t, err)

	assert.Equal(t, int32(2), next.calls.Load())
}

func TestMemoizeCallerCancelDoesNotAbortLookup(t *testing.T) {
	next := &slowOracle{entered: make(chan struct{}, 1), release: make(chan struct{})}
	oracle := Memoize(next)
	ref := ir.FunctionRef("f")

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := oracle.Describe(ctx, ref)
		errc <- err
	}()

	<-next.entered
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	// The lookup keeps running and serves the next caller.
	close(next.release)
	sig, err := oracle.Describe(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, ref, sig.Target)

	assert.Equal(t, int32(1), next.calls.Load())
	assert.False(t, next.canceled.Load())
}
