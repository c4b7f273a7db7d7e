package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/callbind/internal/binder"
	"github.com/roach88/callbind/internal/compiler"
	"github.com/roach88/callbind/internal/store"
)

// SourceOptions selects where describe and resolve read signatures from.
type SourceOptions struct {
	Specs string // CUE catalog directory
	DB    string // SQLite store written by compile --db
}

func (o *SourceOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Specs, "specs", "", "CUE catalog directory")
	cmd.Flags().StringVar(&o.DB, "db", "", "catalog store written by compile --db")
	cmd.MarkFlagsMutuallyExclusive("specs", "db")
	cmd.MarkFlagsOneRequired("specs", "db")
}

// catalogSource is an oracle and call registry, plus whatever must be
// released when the command finishes.
type catalogSource struct {
	binder.Oracle
	binder.Registry
	close func() error
}

func (s *catalogSource) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// openSource loads the catalog named by opts. Failures are reported through
// f and returned as command errors.
func openSource(ctx context.Context, opts *SourceOptions, root *RootOptions, f *OutputFormatter) (*catalogSource, error) {
	if opts.DB != "" {
		return openStoreSource(ctx, opts.DB, root, f)
	}

	loaded, errs := compiler.LoadSpecs(opts.Specs, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		code, message := parseLoadError(errs[0])
		return nil, f.Fail(ExitCommandError, code, message, nil)
	}
	if verrs := compiler.Validate(loaded.Catalog); len(verrs) > 0 {
		return nil, f.Fail(ExitCommandError, verrs[0].Code, verrs[0].Error(), nil)
	}
	f.VerboseLog("Loaded %d call(s) from %s", len(loaded.Catalog.Calls), opts.Specs)

	reg := compiler.NewRegistry(loaded.Catalog)
	return &catalogSource{Oracle: reg, Registry: reg}, nil
}

func openStoreSource(ctx context.Context, path string, root *RootOptions, f *OutputFormatter) (*catalogSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, f.Fail(ExitCommandError, compiler.ErrCodeNotFound, fmt.Sprintf("database not found: %s", path), nil)
	}

	st, err := store.Open(path, store.WithLogger(root.Logger()))
	if err != nil {
		return nil, f.Fail(ExitCommandError, compiler.ErrCodeLoadFailed, fmt.Sprintf("opening database: %v", err), nil)
	}

	snap, err := st.Latest(ctx)
	if err != nil {
		st.Close()
		if errors.Is(err, store.ErrNoCatalog) {
			return nil, f.Fail(ExitCommandError, compiler.ErrCodeNotFound, fmt.Sprintf("no catalog saved in %s", path), nil)
		}
		return nil, f.Fail(ExitCommandError, compiler.ErrCodeLoadFailed, err.Error(), nil)
	}
	f.VerboseLog("Using snapshot %s (seq %d) from %s", snap.ID, snap.Seq, snap.Source)

	return &catalogSource{
		Oracle:   compiler.Memoize(st),
		Registry: st,
		close:    st.Close,
	}, nil
}

// parseLoadError extracts error code and message from a load error.
func parseLoadError(err error) (string, string) {
	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return compiler.ErrCodeGeneric, err.Error()
}

// lookupFailure reports a call that could not be found or described.
func lookupFailure(f *OutputFormatter, err error) error {
	if errors.Is(err, binder.ErrUnknownCall) || errors.Is(err, binder.ErrCallableNotFound) {
		return f.Fail(ExitCommandError, compiler.ErrCodeNotFound, err.Error(), nil)
	}
	return f.Fail(ExitCommandError, compiler.ErrCodeGeneric, err.Error(), nil)
}
