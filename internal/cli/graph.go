package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/xacc/internal/anneal"
	"github.com/roach88/xacc/internal/compiler"
	"github.com/roach88/xacc/internal/graph"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	Values []float64 // values bound to the program's variables, in order
	Merge  string    // "sum" | "overwrite"
}

// GraphResult is the printable form of a problem graph.
type GraphResult struct {
	Program  string         `json:"program"`
	Hash     string         `json:"hash"`
	Order    int            `json:"order"`
	Size     int            `json:"size"`
	Vertices []VertexResult `json:"vertices"`
	Edges    []EdgeResult   `json:"edges"`
}

// VertexResult is one qubit and its bias.
type VertexResult struct {
	ID   int64   `json:"id"`
	Bias float64 `json:"bias"`
}

// EdgeResult is one coupler.
type EdgeResult struct {
	U      int64   `json:"u"`
	V      int64   `json:"v"`
	Weight float64 `json:"weight"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph (<specs-dir> <program> | <file.anneal>)",
		Short: "Print the problem graph of an anneal program",
		Long: `Convert an anneal program into its problem graph: one vertex per qubit
carrying the summed bias, one weighted edge per coupled pair.

Programs with symbolic weights need --values, one per declared variable.
A single argument names a program in text form, as written by
compile --anneal-dir.

Example:
  xacc graph ./specs maxcut
  xacc graph ./specs weighted --values 0.5,-1
  xacc graph ./out/maxcut.anneal`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runGraphFile(opts, args[0], cmd)
			}
			return runGraph(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().Float64SliceVar(&opts.Values, "values", nil, "values for the program variables, in declaration order")
	cmd.Flags().StringVar(&opts.Merge, "merge", "sum", "how repeated terms combine (sum|overwrite)")

	return cmd
}

func runGraph(opts *GraphOptions, specsDir, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	unit, err := loadUnit(formatter, specsDir)
	if err != nil {
		return err
	}
	g, err := problemGraph(unit, name, opts.Values, opts.Merge)
	if err != nil {
		return outputGraphError(formatter, err)
	}
	return outputGraph(formatter, name, g)
}

func runGraphFile(opts *GraphOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	name := strings.TrimSuffix(filepath.Base(path), annealExt)
	f, err := os.Open(path)
	if err != nil {
		return outputCompileError(formatter, ErrCodeNotFound, err.Error(), nil)
	}
	defer f.Close()

	p, err := anneal.Load(f, name)
	if err != nil {
		return outputCompileError(formatter, ErrCodeTerms, fmt.Sprintf("%s: %v", path, err), nil)
	}
	g, err := programGraph(p, opts.Values, opts.Merge)
	if err != nil {
		return outputGraphError(formatter, err)
	}
	return outputGraph(formatter, name, g)
}

func outputGraph(formatter *OutputFormatter, name string, g *graph.Graph) error {
	result, err := graphResult(name, g)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil)
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Problem graph %s: %d vertex(es), %d edge(s)\n", result.Program, result.Order, result.Size)
	fmt.Fprintf(w, "Hash: %s\n\n", result.Hash)
	fmt.Fprintln(w, "Vertices:")
	for _, v := range result.Vertices {
		fmt.Fprintf(w, "  %d: bias %g\n", v.ID, v.Bias)
	}
	if len(result.Edges) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Edges:")
		for _, e := range result.Edges {
			fmt.Fprintf(w, "  %d-%d: %g\n", e.U, e.V, e.Weight)
		}
	}
	return nil
}

// errUsage marks problemGraph failures caused by flag values.
var errUsage = errors.New("usage")

// problemGraph looks up the named program and converts it with
// programGraph.
func problemGraph(unit *compiler.Unit, name string, values []float64, merge string) (*graph.Graph, error) {
	p, ok := unit.Program(name)
	if !ok {
		return nil, fmt.Errorf("anneal program not found: %s", name)
	}
	return programGraph(p, values, merge)
}

// programGraph binds values when given and converts p to a graph.
func programGraph(p *anneal.Program, values []float64, merge string) (*graph.Graph, error) {
	var policy anneal.MergePolicy
	switch merge {
	case "", "sum":
		policy = anneal.MergeSum
	case "overwrite":
		policy = anneal.MergeOverwrite
	default:
		return nil, fmt.Errorf("%w: invalid merge policy %q: must be sum or overwrite", errUsage, merge)
	}

	if len(values) > 0 {
		bound, err := p.Bind(values)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errUsage, err)
		}
		p = bound
	}
	g, err := p.ToGraph(anneal.WithMergePolicy(policy))
	if errors.Is(err, anneal.ErrUnboundWeight) {
		return nil, fmt.Errorf("%w: %v (pass --values for %v)", errUsage, err, p.Variables())
	}
	return g, err
}

func graphResult(name string, g *graph.Graph) (GraphResult, error) {
	hash, err := g.Hash()
	if err != nil {
		return GraphResult{}, err
	}
	result := GraphResult{
		Program:  name,
		Hash:     hash,
		Order:    g.Order(),
		Size:     g.Size(),
		Vertices: make([]VertexResult, 0, g.Order()),
		Edges:    make([]EdgeResult, 0, g.Size()),
	}
	for _, id := range g.Vertices() {
		result.Vertices = append(result.Vertices, VertexResult{ID: id, Bias: g.Bias(id)})
	}
	for _, e := range g.Edges() {
		result.Edges = append(result.Edges, EdgeResult{U: e.U, V: e.V, Weight: e.Weight})
	}
	return result, nil
}

// outputGraphError reports a problemGraph failure with the matching code.
func outputGraphError(formatter *OutputFormatter, err error) error {
	if errors.Is(err, errUsage) {
		return outputCompileError(formatter, ErrCodeUsage, err.Error(), nil)
	}
	return outputCompileError(formatter, ErrCodeNotFound, err.Error(), nil)
}
