package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/callbind/internal/binder"
	"github.com/roach88/callbind/internal/compiler"
	"github.com/roach88/callbind/internal/ir"
	"github.com/roach88/callbind/internal/store"
	"github.com/roach88/callbind/internal/testutil"
)

// Harness runs cases against a stored catalog.
type Harness struct {
	store  *store.Store
	binder *binder.Binder
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Load and validate the scenario's CUE catalog
// 2. Save it to a fresh in-memory store
// 3. Bind each case through the store, via a memoizing oracle
// 4. Compare each outcome against the case's expectation
//
// An error is returned only when the scenario cannot run at all; case
// mismatches are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cat, err := loadCatalog(scenario.Specs)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:",
		store.WithIDGenerator(testutil.NewFixedIDGenerator()),
		store.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if _, err := st.SaveCatalog(ctx, cat, scenario.Specs); err != nil {
		return nil, fmt.Errorf("failed to save catalog: %w", err)
	}

	opts := []binder.Option{binder.WithLogger(logger)}
	if scenario.Platform != "" {
		opts = append(opts, binder.WithPlatform(scenario.Platform))
	}

	h := &Harness{
		store:  st,
		binder: binder.New(compiler.Memoize(st), opts...),
		logger: logger,
	}

	result := NewResult()
	for i, c := range scenario.Cases {
		if err := h.runCase(ctx, c, result); err != nil {
			return nil, fmt.Errorf("cases[%d] %s: %w", i, c.Name, err)
		}
	}
	return result, nil
}

func loadCatalog(dir string) (*ir.Catalog, error) {
	loaded, errs := compiler.LoadSpecs(dir, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load specs: %w", errs[0])
	}
	if verrs := compiler.Validate(loaded.Catalog); len(verrs) > 0 {
		return nil, fmt.Errorf("invalid catalog: %w", verrs[0])
	}
	return loaded.Catalog, nil
}

// runCase binds one case and records the outcome and any mismatch.
func (h *Harness) runCase(ctx context.Context, c Case, result *Result) error {
	args, err := ArgsFromNode(&c.Args)
	if err != nil {
		return err
	}

	cr := CaseResult{
		Name: c.Name,
		Call: ir.CallKey(c.Type, c.Call),
		Args: args.String(),
	}

	values, bindErr := h.binder.Call(ctx, h.store, c.Type, c.Call, args)
	if bindErr != nil {
		cr.Code = string(binder.CodeOf(bindErr))
		cr.Message = bindErr.Error()
	} else {
		cr.Values = values
	}
	result.Cases = append(result.Cases, cr)

	mismatches, err := checkExpectation(c.Expect, cr)
	if err != nil {
		return err
	}
	for _, m := range mismatches {
		result.AddError(fmt.Sprintf("%s: %s", c.Name, m))
	}

	h.logger.Info("case completed",
		"case", c.Name,
		"call", cr.Call,
		"code", cr.Code,
		"mismatches", len(mismatches),
	)
	return nil
}
