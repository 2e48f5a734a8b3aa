package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions are the persistent flags shared by every subcommand.
type RootOptions struct {
	Verbose bool
	Format  string
}

// ValidFormats lists the values accepted by --format.
var ValidFormats = []string{"text", "json"}

// NewRootCommand assembles the xacc command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	cmd := &cobra.Command{
		Use:   "xacc",
		Short: "xacc - quantum program IR toolkit",
		Long: `Compile quantum circuits and annealing programs written in CUE,
factor shared state preparation out of measurement circuits, and
minor-embed annealing problems onto hardware graphs.`,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if isValidFormat(opts.Format) {
				return nil
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")

	for _, sub := range []func(*RootOptions) *cobra.Command{
		NewCompileCommand,
		NewValidateCommand,
		NewDecomposeCommand,
		NewGraphCommand,
		NewEmbedCommand,
		NewRunCommand,
		NewTestCommand,
	} {
		cmd.AddCommand(sub(opts))
	}
	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newLogger returns a text logger on w at debug level under --verbose.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newFormatter builds the formatter every command writes through.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
