package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/xacc/internal/compiler"
)

// ValidationResult is the data payload of validate's JSON output.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand returns `validate <specs-dir>`.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate programs without writing output",
		Long: `Compile CUE programs and run consistency checks on the result:
duplicate or undeclared variables, empty circuits, unresolved calls and
anneal programs without terms.

All problems are reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	problems, err := ValidateSpecsDir(specsDir)
	switch {
	case err != nil:
		code, message := ErrCodeGeneric, err.Error()
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			code, message = loadErr.Code, loadErr.Message
		}
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, code+": "+message)
	case len(problems) > 0:
		return outputValidationErrors(formatter, problems)
	case formatter.Format == "json":
		return formatter.Success(ValidationResult{Valid: true})
	default:
		fmt.Fprintln(formatter.Writer, "✓ All programs valid")
		return nil
	}
}

// ValidateSpecsDir compiles and validates all specs in a directory.
// Compile errors are returned as validation errors; the error return is
// reserved for directories that cannot be loaded at all.
func ValidateSpecsDir(specsDir string) ([]compiler.ValidationError, error) {
	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)
	if loadResult == nil {
		return nil, loadErrors[0]
	}

	var all []compiler.ValidationError
	for _, err := range loadErrors {
		code, message := parseCompileError(err)
		line := 0
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			line = loadErr.Pos.Line()
		}
		all = append(all, compiler.ValidationError{
			Field:   "compile",
			Message: message,
			Code:    code,
			Line:    line,
		})
	}
	all = append(all, compiler.Validate(loadResult.Unit)...)
	return all, nil
}

// outputValidationErrors reports every problem. Failing validation is a
// check failure, so the exit status is 1 even though loading succeeded.
func outputValidationErrors(formatter *OutputFormatter, problems []compiler.ValidationError) error {
	exit := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(problems)))

	if formatter.Format == "json" {
		first := CLIError{Code: problems[0].Code, Message: problems[0].Message}
		if err := formatter.Errors(first, ValidationResult{Errors: problems}); err != nil {
			return err
		}
		return exit
	}

	w := formatter.Writer
	fmt.Fprint(w, "✗ Validation failed\n\n")
	for _, p := range problems {
		if p.Line > 0 {
			fmt.Fprintf(w, "line %d\n", p.Line)
		}
		fmt.Fprintf(w, "  %s: %s: %s\n\n", p.Code, p.Field, p.Message)
	}
	return exit
}
