package root

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"
	"golang.org/x/term"

	"github.com/goliatone/go-drivergen/pkg/commands/flags"
	"github.com/goliatone/go-drivergen/pkg/commands/inspect"
	"github.com/goliatone/go-drivergen/pkg/commands/validate"
	"github.com/goliatone/go-drivergen/pkg/config"
	"github.com/goliatone/go-drivergen/pkg/schema"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drivergen [output_directory]",
		Short: "Generate the PSA crypto driver wrappers",
		Long: `drivergen validates the driver descriptions listed in the manifest against
the transparent and opaque driver schemas, merges them in manifest order and
renders the driver wrapper templates with the merged list.

Examples:
  # Generate into <root>/library, discovering the root from the working directory
  drivergen

  # Generate into a custom directory from an explicit root
  drivergen --root ../mbedtls out/

  # Validate against the schemas compiled into the binary
  drivergen --schemas builtin validate`,
		Args:              cobra.MaximumNArgs(1),
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE:              run,
	}

	cmd.SetGlobalNormalizationFunc(flags.Normalize)

	pflags := cmd.PersistentFlags()
	flags.RegisterRun(pflags)
	flags.RegisterLogging(pflags)

	cmd.AddCommand(validate.New())
	cmd.AddCommand(inspect.New())

	return cmd
}

func setup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	v := config.NewViper()
	flags.BindFlags(cmd, v)

	log := newLogger(cmd.ErrOrStderr(), v.GetInt("log-level"), v.GetBool("debug"), v.GetString("log-format"))
	ctx = config.ContextWithViper(ctx, v)
	cmd.SetContext(slogctx.NewCtx(ctx, log))
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	opts, err := flags.Load(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		opts.OutputDir = args[0]
	}

	diag := schema.Diagnostics{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
	result, err := opts.Orchestrator(diag).Generate(cmd.Context(), opts.Request())
	if err != nil {
		return err
	}

	slogctx.FromCtx(cmd.Context()).Info("driver wrappers generated",
		slog.Any("outputs", result.Outputs),
		slog.String("drivers", strings.Join(result.Prefixes, ",")))
	return nil
}

func newLogger(w io.Writer, verbosity int, debugMode bool, logFormat string) *slog.Logger {
	level := new(slog.LevelVar)
	level.Set(slog.LevelError - slog.Level(verbosity*4))

	handlerOpts := &slog.HandlerOptions{
		AddSource: debugMode,
		Level:     level,
	}

	// auto picks text on a terminal and JSON otherwise
	useJSON := logFormat == "json" || (logFormat == "auto" && !isTerminal(w))

	var handler slog.Handler
	if useJSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
