package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/callbind/internal/ir"
)

// DescribeOptions holds flags for the describe command.
type DescribeOptions struct {
	*RootOptions
	Source SourceOptions
}

// Description is the JSON payload of describe.
type Description struct {
	Call      ir.CallEntry  `json:"call"`
	Signature *ir.Signature `json:"signature"`

	// Callable lists the parameters a template may pass, after implicit ones.
	Callable []string `json:"callable"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DescribeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "describe <call-type> <name>",
		Short: "Show the target and parameters behind a call",
		Long: `Show the target a template call reaches and the parameters the
oracle reports for it.

Examples:
  callbind describe function date --specs ./specs
  callbind describe filter upper --db catalog.db --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(opts, args[0], args[1], cmd)
		},
	}

	opts.Source.addFlags(cmd)
	return cmd
}

func runDescribe(opts *DescribeOptions, callType, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	src, err := openSource(ctx, &opts.Source, opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	defer src.Close()

	entry, err := src.LookupCall(ctx, callType, name)
	if err != nil {
		return lookupFailure(formatter, err)
	}
	sig, err := src.Describe(ctx, entry.Target)
	if err != nil {
		return lookupFailure(formatter, err)
	}

	desc := Description{
		Call:      entry,
		Signature: sig,
		Callable:  sig.ParamNames()[min(entry.Implicit, len(sig.Params)):],
	}

	if formatter.JSON() {
		return formatter.Success(desc)
	}
	outputDescribeText(formatter, desc)
	return nil
}

// outputDescribeText prints the call, its target and one line per parameter:
//
//	function "date" -> date (native)
//	  format      required
//	  timestamp   default null
func outputDescribeText(f *OutputFormatter, d Description) {
	flags := []string{string(d.Signature.Kind)}
	if d.Call.Variadic {
		flags = append(flags, "variadic")
	}
	if d.Call.Implicit > 0 {
		flags = append(flags, fmt.Sprintf("%d implicit", d.Call.Implicit))
	}
	fmt.Fprintf(f.Writer, "%s -> %s (%s)\n", d.Call.Key(), d.Call.Target, strings.Join(flags, ", "))

	width := 0
	for _, p := range d.Signature.Params {
		width = max(width, len(p.Name))
	}
	for i, p := range d.Signature.Params {
		note := paramNote(p)
		if i < d.Call.Implicit {
			note = "implicit"
		}
		fmt.Fprintf(f.Writer, "  %-*s  %s\n", width, p.Name, note)
	}
}

func paramNote(p ir.ParamDescriptor) string {
	switch {
	case p.Variadic && p.HasDefault:
		return "variadic, default " + ir.String(p.Default)
	case p.Variadic:
		return "variadic"
	case p.HasDefault:
		return "default " + ir.String(p.Default)
	case p.Optional:
		return "optional, default unknown"
	default:
		return "required"
	}
}
