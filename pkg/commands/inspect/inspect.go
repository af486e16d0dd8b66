package inspect

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-drivergen/internal/cli"
	"github.com/goliatone/go-drivergen/pkg/commands/flags"
	"github.com/goliatone/go-drivergen/pkg/schema"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the merged template context",
		Long: `Print the context the wrapper templates receive: the validated driver
descriptions in manifest order under the context key.

Examples:
  drivergen inspect
  drivergen inspect -o yaml`,
		Args: cobra.NoArgs,
		RunE: run,
	}

	cmd.Flags().StringP("output", "o", cli.FormatJSON, "output format (json|yaml)")

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	opts, err := flags.Load(cmd)
	if err != nil {
		return err
	}

	diag := schema.Diagnostics{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
	seq, err := opts.Orchestrator(diag).Merge(cmd.Context(), opts.Request())
	if err != nil {
		return err
	}

	data := map[string]any{opts.ContextKey: seq}
	switch format {
	case cli.FormatJSON:
		return cli.WriteJSON(cmd.OutOrStdout(), data)
	case cli.FormatYAML:
		return cli.WriteYAML(cmd.OutOrStdout(), data)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
