package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/callbind/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Calls  int                        `json:"calls"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate call declarations without writing a catalog",
		Long: `Validate the CUE call declarations in a directory.

Reports every compile and schema error found, with its code and line,
without writing output. Faster than compile for development feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	errs, calls, err := ValidateSpecsDir(specsDir)
	if err != nil {
		code, message := parseLoadError(err)
		return formatter.Fail(ExitCommandError, code, message, nil)
	}
	formatter.VerboseLog("Validated %d call(s) in %s", calls, specsDir)

	if len(errs) > 0 {
		return outputValidationErrors(formatter, errs, calls)
	}

	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Calls: calls})
	}
	fmt.Fprintf(formatter.Writer, "%s All %d call(s) valid\n", markOK, calls)
	return nil
}

// ValidateSpecsDir compiles every declaration in specsDir and validates the
// resulting catalog. Compile errors and schema errors are returned together;
// the error return is set only when the directory cannot be loaded at all.
func ValidateSpecsDir(specsDir string) ([]compiler.ValidationError, int, error) {
	loaded, loadErrors := compiler.LoadSpecs(specsDir, compiler.LoadModeCollectAll)
	if loaded == nil {
		return nil, 0, loadErrors[0]
	}

	var errs []compiler.ValidationError
	for _, err := range loadErrors {
		code, message := parseLoadError(err)
		verr := compiler.ValidationError{Field: "load", Message: message, Code: code}
		if loadErr, ok := err.(*compiler.LoadError); ok && loadErr.Pos.IsValid() {
			verr.Line = loadErr.Pos.Line()
		}
		errs = append(errs, verr)
	}
	errs = append(errs, compiler.Validate(loaded.Catalog)...)

	return errs, len(loaded.Catalog.Calls), nil
}

// outputValidationErrors outputs every validation error.
// Validation failures exit with code 1.
func outputValidationErrors(f *OutputFormatter, errs []compiler.ValidationError, calls int) error {
	cliErrs := make([]CLIError, len(errs))
	for i, e := range errs {
		cliErrs[i] = CLIError{Code: e.Code, Message: e.Field + ": " + e.Message}
		if e.Line > 0 {
			cliErrs[i].Details = fmt.Sprintf("line %d", e.Line)
		}
	}

	_ = f.Errors("Validation failed", cliErrs, ValidationResult{Valid: false, Calls: calls, Errors: errs})
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
