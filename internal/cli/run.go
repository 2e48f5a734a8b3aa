package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/xacc/internal/exec"
	"github.com/roach88/xacc/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Circuits []string
	Database string
	Workers  int

	// JobIDs allows overriding the job id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	JobIDs exec.JobIDGenerator

	// Accelerator allows overriding the backend (for testing).
	// If nil, defaults to a TraceAccelerator.
	Accelerator exec.Accelerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

// newRunCommand builds the run command around caller-supplied options so
// tests can inject a job id generator or accelerator.
func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <specs-dir>",
		Short: "Decompose and execute circuits on an accelerator",
		Long: `Decompose the selected circuits, run the shared base once and every
observed remainder on a bounded worker pool, and print each result.

The built-in trace accelerator echoes the instructions it receives.
With --db, results are recorded under the job id.

Example:
  xacc run ./specs --circuits z_basis,x_basis,y_basis
  xacc run ./specs --db ./xacc.db --workers 8 --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCircuits(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Circuits, "circuits", nil, "circuits to run (default: all)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record job results in this SQLite database")
	cmd.Flags().IntVar(&opts.Workers, "workers", exec.DefaultMaxWorkers, "concurrent sub-circuit executions")

	return cmd
}

func runCircuits(opts *RunOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	unit, err := loadUnit(formatter, specsDir)
	if err != nil {
		return err
	}
	circuits, err := selectCircuits(unit, opts.Circuits)
	if err != nil {
		return outputCompileError(formatter, ErrCodeNotFound, err.Error(), nil)
	}
	if len(circuits) == 0 {
		return outputCompileError(formatter, ErrCodeUsage, "no circuits to run", nil)
	}
	if opts.Workers < 1 {
		return outputCompileError(formatter, ErrCodeUsage, fmt.Sprintf("--workers must be at least 1, got %d", opts.Workers), nil)
	}

	acc := opts.Accelerator
	if acc == nil {
		acc = &exec.TraceAccelerator{}
	}
	runnerOpts := []exec.RunnerOption{
		exec.WithLogger(logger),
		exec.WithMaxWorkers(opts.Workers),
	}
	if opts.JobIDs != nil {
		runnerOpts = append(runnerOpts, exec.WithJobIDGenerator(opts.JobIDs))
	}
	runner := exec.NewRunner(acc, runnerOpts...)

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, cancelling job", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	job, err := runner.RunCircuits(ctx, circuits)
	if err != nil {
		return outputRunError(formatter, err)
	}

	if opts.Database != "" {
		if err := recordJob(ctx, opts.Database, job); err != nil {
			return outputCompileError(formatter, ErrCodeDatabase, err.Error(), nil)
		}
		logger.Debug("job recorded", "job", job.ID, "db", opts.Database)
	}

	if formatter.Format == "json" {
		return formatter.SuccessJob(job.ID, job)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Job %s on %s\n\n", job.ID, job.Accelerator)
	if job.Base != nil {
		fmt.Fprintf(w, "Base %s:\n%s\n\n", job.Base.Circuit, indent(job.Base.Output))
	}
	for _, r := range job.Subs {
		fmt.Fprintf(w, "%s:\n%s\n\n", r.Circuit, indent(r.Output))
	}
	return nil
}

// outputRunError maps runner failures to codes and exit statuses.
func outputRunError(formatter *OutputFormatter, err error) error {
	var runErr *exec.RunError
	if !errors.As(err, &runErr) {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil)
	}
	code := ErrCodeExecution
	if runErr.Code == exec.ErrCodeDecomposition {
		code = ErrCodeDecomposition
	}
	_ = formatter.Error(code, runErr.Error(), nil)
	return WrapExitError(ExitFailure, "run failed", err)
}

func recordJob(ctx context.Context, path string, job *exec.Job) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.WriteJobResults(ctx, job.Records())
}

func indent(s string) string {
	if s == "" {
		return "  (empty)"
	}
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
