package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/callbind/internal/compiler"
	"github.com/roach88/callbind/internal/ir"
	"github.com/roach88/callbind/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
	DB     string // store to save the catalog snapshot into
}

// CompilationResult is the JSON payload of a successful compile.
type CompilationResult struct {
	Catalog  *ir.Catalog     `json:"catalog"`
	Snapshot *store.Snapshot `json:"snapshot,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs-dir>",
		Short: "Compile CUE call declarations to a catalog",
		Long: `Compile the function, filter and test declarations of a CUE package
into a catalog of call sites and target signatures.

The catalog is validated before it is written. With -o it is written as
JSON; with --db it is saved as a new snapshot in a SQLite store that
describe and resolve can read without recompiling.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.DB, "db", "", "save the catalog to this store")

	return cmd
}

func runCompile(opts *CompileOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, loadErrors := compiler.LoadSpecs(specsDir, compiler.LoadModeCollectAll)
	if loaded == nil {
		code, message := parseLoadError(loadErrors[0])
		return formatter.Fail(ExitCommandError, code, message, nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, specsDir)
	for _, call := range loaded.Catalog.Calls {
		formatter.VerboseLog("Compiled %s", call.Key())
	}

	errs := make([]CLIError, 0, len(loadErrors))
	for _, err := range loadErrors {
		errs = append(errs, loadCLIError(err))
	}
	if len(errs) == 0 {
		for _, verr := range compiler.Validate(loaded.Catalog) {
			errs = append(errs, CLIError{Code: verr.Code, Message: verr.Field + ": " + verr.Message})
		}
	}
	if len(errs) > 0 {
		_ = formatter.Errors("Compilation failed", errs, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	result := &CompilationResult{Catalog: loaded.Catalog}

	if opts.Output != "" {
		if err := writeCatalogToFile(loaded.Catalog, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, compiler.ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	if opts.DB != "" {
		snap, err := saveCatalog(cmd, opts, loaded.Catalog, specsDir)
		if err != nil {
			return formatter.Fail(ExitCommandError, compiler.ErrCodeWriteFailed, fmt.Sprintf("saving catalog: %v", err), nil)
		}
		result.Snapshot = &snap
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	outputCompileText(formatter, result, opts)
	return nil
}

func saveCatalog(cmd *cobra.Command, opts *CompileOptions, cat *ir.Catalog, source string) (store.Snapshot, error) {
	st, err := store.Open(opts.DB, store.WithLogger(opts.Logger()))
	if err != nil {
		return store.Snapshot{}, err
	}
	defer st.Close()
	return st.SaveCatalog(cmd.Context(), cat, source)
}

// outputCompileText prints one line per call site:
//
//	function date -> date(format, timestamp)
func outputCompileText(f *OutputFormatter, result *CompilationResult, opts *CompileOptions) {
	cat := result.Catalog
	fmt.Fprintf(f.Writer, "%s Compiled %d call(s), %d signature(s)\n\n", markOK, len(cat.Calls), len(cat.Signatures))

	for _, call := range cat.Calls {
		params := ""
		if sig, ok := cat.Signature(call.Target); ok {
			params = strings.Join(sig.ParamNames(), ", ")
		}
		fmt.Fprintf(f.Writer, "  %s %s -> %s(%s)\n", call.CallType, call.CallName, call.Target, params)
	}
	fmt.Fprintln(f.Writer)

	if opts.Output != "" {
		fmt.Fprintf(f.Writer, "Wrote catalog to %s\n", opts.Output)
	}
	if result.Snapshot != nil {
		fmt.Fprintf(f.Writer, "Saved snapshot %s (seq %d) to %s\n", result.Snapshot.ID, result.Snapshot.Seq, opts.DB)
	}
}

// loadCLIError converts a load error, keeping its CUE position as details.
func loadCLIError(err error) CLIError {
	code, message := parseLoadError(err)
	out := CLIError{Code: code, Message: message}
	if loadErr, ok := err.(*compiler.LoadError); ok && loadErr.Pos.IsValid() {
		out.Details = fmt.Sprintf("%s:%d:%d", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
	}
	return out
}

// writeCatalogToFile writes the catalog as indented JSON.
// (canonical JSON without indentation is used only for hashing)
func writeCatalogToFile(cat *ir.Catalog, filename string) error {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}

	if err := os.WriteFile(filename, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
