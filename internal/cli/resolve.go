package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/callbind/internal/binder"
	"github.com/roach88/callbind/internal/compiler"
	"github.com/roach88/callbind/internal/harness"
	"github.com/roach88/callbind/internal/ir"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Source   SourceOptions
	Args     string // YAML argument list
	Platform string // platform named in unresolvable-default messages
}

// Resolution is the JSON payload of a successful resolve.
type Resolution struct {
	Call   string       `json:"call"`
	Target string       `json:"target"`
	Args   string       `json:"args"`
	Values []ir.IRValue `json:"values"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <call-type> <name>",
		Short: "Bind an argument list to a call's target parameters",
		Long: `Bind a template argument list and print the values the target
receives, in parameter order.

Arguments are a YAML sequence. {name: k, value: v} is a named argument,
{value: v} a positional one, and any other item a positional value.

Exit codes:
  0 - Arguments bound
  1 - Binding failed (the error code names the rule that rejected it)
  2 - Command error (unknown call, unreadable catalog, bad --args)

Examples:
  callbind resolve function date --specs ./specs --args '["Y-m-d", {name: timestamp, value: 0}]'
  callbind resolve filter upper --db catalog.db --args '[abc]' --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], args[1], cmd)
		},
	}

	opts.Source.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Args, "args", "[]", "argument list as YAML")
	cmd.Flags().StringVar(&opts.Platform, "platform", binder.DefaultPlatform, "platform named in unresolvable-default errors")

	return cmd
}

func runResolve(opts *ResolveOptions, callType, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	args, err := harness.ParseArgs([]byte(opts.Args))
	if err != nil {
		return formatter.Fail(ExitCommandError, compiler.ErrCodeGeneric, err.Error(), nil)
	}

	src, err := openSource(ctx, &opts.Source, opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	defer src.Close()

	entry, err := src.LookupCall(ctx, callType, name)
	if err != nil {
		return lookupFailure(formatter, err)
	}

	b := binder.New(src, binder.WithPlatform(opts.Platform), binder.WithLogger(opts.Logger()))
	values, err := b.Bind(ctx, binder.CallSiteFor(entry), entry.Target, args)
	if err != nil {
		var bindErr *binder.BindError
		if errors.As(err, &bindErr) {
			var details any
			if formatter.JSON() {
				details = bindErr
			}
			_ = formatter.Error(string(bindErr.Code), bindErr.Message, details)
			return WrapExitError(ExitFailure, "binding failed", err)
		}
		return lookupFailure(formatter, err)
	}

	res := Resolution{
		Call:   entry.Key(),
		Target: entry.Target.QualifiedName(),
		Args:   args.String(),
		Values: values,
	}
	formatter.VerboseLog("Bound %s%s to %s", res.Call, res.Args, res.Target)

	if formatter.JSON() {
		return formatter.Success(res)
	}
	fmt.Fprintf(formatter.Writer, "%s(%s)\n", res.Target, joinValues(values))
	return nil
}

func joinValues(values []ir.IRValue) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += ir.String(v)
	}
	return out
}
