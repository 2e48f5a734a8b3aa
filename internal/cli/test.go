package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/xacc/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // scenario filter (glob pattern)
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run every YAML scenario in a directory through the conformance
harness. Each scenario names its own specs directory, relative to the
scenario file.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  xacc test ./testdata/scenarios
  xacc test ./testdata/scenarios --filter "maxcut_*"
  xacc test ./testdata/scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if info, err := os.Stat(scenariosDir); err != nil || !info.IsDir() {
		return outputCompileError(formatter, ErrCodeNotFound,
			fmt.Sprintf("scenarios directory not found: %s", scenariosDir), nil)
	}

	result, err := harness.RunSuite(cmd.Context(), scenariosDir, opts.Filter)
	if err != nil {
		return outputCompileError(formatter, ErrCodeUsage, err.Error(), nil)
	}
	formatter.VerboseLog("Ran %d scenario(s)", result.TotalScenarios)

	if !result.OK() {
		if formatter.Format == "json" {
			_ = formatter.Error(ErrCodeScenario, fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.TotalScenarios), result)
		} else {
			writeSuite(formatter, result)
		}
		return NewExitError(ExitFailure, "scenarios failed")
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	writeSuite(formatter, result)
	return nil
}

func writeSuite(formatter *OutputFormatter, result *harness.SuiteResult) {
	w := formatter.Writer
	if result.TotalScenarios == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}
	for _, f := range result.Failures {
		fmt.Fprintf(w, "✗ %s: %s\n", f.ScenarioPath, f.Error)
		for _, a := range f.Assertions {
			fmt.Fprintf(w, "%s\n", indent(a))
		}
	}
	fmt.Fprintf(w, "%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.TotalScenarios)
}
