package validate

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-drivergen/internal/cli"
	"github.com/goliatone/go-drivergen/pkg/commands/flags"
	"github.com/goliatone/go-drivergen/pkg/config"
	"github.com/goliatone/go-drivergen/pkg/driver"
	"github.com/goliatone/go-drivergen/pkg/schema"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the driver descriptions without rendering",
		Long: `Validate every driver description listed in the manifest against its class
schema and report the merged order. No template is rendered and no file is
written.

Examples:
  # Validate the descriptions of the discovered root
  drivergen validate

  # Output as JSON for CI/tooling
  drivergen validate -o json`,
		Args: cobra.NoArgs,
		RunE: run,
	}

	cmd.Flags().StringP("output", "o", cli.FormatText, "output format (text|json)")

	return cmd
}

// Entry describes one validated driver.
type Entry struct {
	Source string `json:"source"`
	Type   string `json:"type"`
	Prefix string `json:"prefix"`
}

// Summary is the result of a successful validation.
type Summary struct {
	Root    string  `json:"root"`
	Schemas string  `json:"schemas"`
	Drivers []Entry `json:"drivers"`
}

func run(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if format != cli.FormatText && format != cli.FormatJSON {
		return fmt.Errorf("unsupported output format %q", format)
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

	summary := summarize(opts, seq)
	if format == cli.FormatJSON {
		return cli.WriteJSON(cmd.OutOrStdout(), summary)
	}
	return writeText(cmd.OutOrStdout(), summary)
}

func summarize(opts config.Options, seq driver.Sequence) Summary {
	entries := make([]Entry, 0, len(seq))
	for _, desc := range seq {
		entries = append(entries, Entry{
			Source: desc.Source(),
			Type:   desc.Kind().String(),
			Prefix: desc.Prefix(),
		})
	}
	return Summary{Root: opts.Root, Schemas: opts.Schemas, Drivers: entries}
}

func writeText(w io.Writer, summary Summary) error {
	if _, err := fmt.Fprintln(w, "Validation Results:"); err != nil {
		return err
	}
	for i, entry := range summary.Drivers {
		if _, err := fmt.Fprintf(w, "  %d. %s (%s) %s\n", i+1, entry.Prefix, entry.Type, entry.Source); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nSummary: %d valid driver(s)\n", len(summary.Drivers))
	return err
}
