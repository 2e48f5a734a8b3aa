package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/xacc/internal/compiler"
	"github.com/roach88/xacc/internal/ir"
	"github.com/roach88/xacc/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output    string // output file path
	Database  string // optional store path
	AnnealDir string // directory for <program>.anneal text files
}

// CompiledComposite summarizes one compiled circuit or program.
type CompiledComposite struct {
	Name         string          `json:"name"`
	Hash         string          `json:"hash"`
	Tag          string          `json:"tag"`
	Variables    []string        `json:"variables"`
	Qubits       int             `json:"qubits"`
	Instructions int             `json:"instructions"`
	Depth        int             `json:"depth,omitempty"`
	Body         json.RawMessage `json:"body"`
}

// CompilationResult holds the compiled circuits and anneal programs.
type CompilationResult struct {
	Circuits []CompiledComposite `json:"circuits"`
	Programs []CompiledComposite `json:"anneal"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs-dir>",
		Short: "Compile CUE programs to canonical IR",
		Long: `Compile the circuit and anneal blocks of every CUE file in a directory
to canonical IR.

Circuit calls are linked, every composite is content-hashed, and the
canonical JSON can be written to a file or cached in a SQLite store.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.Database, "db", "", "store compiled composites in this SQLite database")
	cmd.Flags().StringVar(&opts.AnnealDir, "anneal-dir", "", "write each anneal program to <dir>/<name>.anneal in text form")

	return cmd
}

func runCompile(opts *CompileOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputLoadFailure(formatter, loadErrors[0])
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)
	for _, c := range loadResult.Unit.Circuits {
		formatter.VerboseLog("Compiled circuit: %s", c.Name())
	}
	for _, p := range loadResult.Unit.Programs {
		formatter.VerboseLog("Compiled anneal program: %s", p.Name())
	}

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result, err := buildCompilationResult(loadResult.Unit)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil)
	}

	if opts.Output != "" {
		if err := writeIRToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	if opts.AnnealDir != "" {
		if err := writeAnnealText(opts.AnnealDir, loadResult.Unit); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, err.Error(), nil)
		}
		formatter.VerboseLog("Wrote %d anneal program(s) to %s", len(loadResult.Unit.Programs), opts.AnnealDir)
	}

	if opts.Database != "" {
		if err := storeUnit(cmd.Context(), opts.Database, loadResult.Unit); err != nil {
			return outputCompileError(formatter, ErrCodeDatabase, err.Error(), nil)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func buildCompilationResult(u *compiler.Unit) (*CompilationResult, error) {
	result := &CompilationResult{
		Circuits: []CompiledComposite{},
		Programs: []CompiledComposite{},
	}
	for _, c := range u.Circuits {
		cc, err := summarize(c)
		if err != nil {
			return nil, err
		}
		cc.Depth = c.Depth()
		result.Circuits = append(result.Circuits, cc)
	}
	for _, p := range u.Programs {
		cc, err := summarize(p.Composite)
		if err != nil {
			return nil, err
		}
		result.Programs = append(result.Programs, cc)
	}
	return result, nil
}

func summarize(c *ir.Composite) (CompiledComposite, error) {
	hash, err := ir.CompositeHash(c)
	if err != nil {
		return CompiledComposite{}, fmt.Errorf("%s: %w", c.Name(), err)
	}
	body, err := ir.MarshalComposite(c)
	if err != nil {
		return CompiledComposite{}, fmt.Errorf("%s: %w", c.Name(), err)
	}
	vars := c.Variables()
	if vars == nil {
		vars = []string{}
	}
	return CompiledComposite{
		Name:         c.Name(),
		Hash:         hash,
		Tag:          c.Tag(),
		Variables:    vars,
		Qubits:       c.NBits(),
		Instructions: c.NInstructions(),
		Body:         body,
	}, nil
}

// storeUnit writes every circuit and program to the store at path.
func storeUnit(ctx context.Context, path string, u *compiler.Unit) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, c := range u.Circuits {
		if _, err := st.WriteComposite(ctx, c); err != nil {
			return err
		}
	}
	for _, p := range u.Programs {
		if _, err := st.WriteComposite(ctx, p.Composite); err != nil {
			return err
		}
	}
	return nil
}

// outputCompileSuccess prints a per-composite summary.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d circuit(s), %d anneal program(s)\n\n",
		len(result.Circuits), len(result.Programs))

	if len(result.Circuits) > 0 {
		fmt.Fprintln(formatter.Writer, "Circuits:")
		for _, c := range result.Circuits {
			fmt.Fprintf(formatter.Writer, "  %s: %d instruction(s), %d qubit(s), depth %d\n",
				c.Name, c.Instructions, c.Qubits, c.Depth)
		}
		fmt.Fprintln(formatter.Writer)
	}

	if len(result.Programs) > 0 {
		fmt.Fprintln(formatter.Writer, "Anneal programs:")
		for _, p := range result.Programs {
			fmt.Fprintf(formatter.Writer, "  %s (%s): %d term(s), %d qubit(s)\n",
				p.Name, p.Tag, p.Instructions, p.Qubits)
		}
		fmt.Fprintln(formatter.Writer)
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote canonical IR to %s\n", outputFile)
	}

	return nil
}

// outputLoadFailure reports an error that prevented loading any specs.
func outputLoadFailure(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return outputCompileError(formatter, loadErr.Code, loadErr.Message, nil)
	}
	return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil)
}

// outputCompileError reports one coded error and exits 2.
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, code+": "+message)
}

// outputCompileErrors reports every block that failed to compile.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	exit := NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		report := make([]CLIError, 0, len(errs))
		for _, err := range errs {
			code, message := parseCompileError(err)
			report = append(report, CLIError{Code: code, Message: message})
		}
		if err := formatter.Errors(report[0], report); err != nil {
			return err
		}
		return exit
	}

	w := formatter.Writer
	fmt.Fprint(w, "✗ Compilation failed\n\n")
	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			pos := loadErr.Pos
			fmt.Fprintf(w, "%s:%d:%d\n", pos.Filename(), pos.Line(), pos.Column())
		}
		fmt.Fprintf(w, "  %s: %s\n\n", code, message)
	}
	return exit
}

// parseCompileError splits err into a code and a message.
func parseCompileError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return MapFieldToErrorCode(compileErr.Field), compileErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// annealExt names the text files written by --anneal-dir and read back by
// the graph command.
const annealExt = ".anneal"

func writeAnnealText(dir string, u *compiler.Unit) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	for _, p := range u.Programs {
		var buf bytes.Buffer
		if err := p.Persist(&buf); err != nil {
			return err
		}
		path := filepath.Join(dir, p.Name()+annealExt)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

// writeIRToFile writes result indented. Bodies inside it stay canonical,
// so the recorded hashes can still be checked against them.
func writeIRToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
