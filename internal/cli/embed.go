package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/xacc/internal/embedding"
	"github.com/roach88/xacc/internal/graph"
	"github.com/roach88/xacc/internal/store"
)

// DefaultChainStrength is the ferromagnetic coupling applied inside chains.
const DefaultChainStrength = 1.0

// EmbedOptions holds flags for the embed command.
type EmbedOptions struct {
	*RootOptions
	Hardware      string // topology notation or a YAML hardware file
	Algorithm     string
	Tries         int
	Seed          uint64
	ChainStrength float64
	Values        []float64
	Database      string // optional embedding cache
}

// EmbedResult is the printable form of an embedding.
type EmbedResult struct {
	Program        string        `json:"program"`
	Algorithm      string        `json:"algorithm"`
	Cached         bool          `json:"cached"`
	Qubits         int           `json:"qubits"`
	MaxChainLength int           `json:"max_chain_length"`
	Chains         []ChainResult `json:"chains"`
	Terms          []string      `json:"terms"`
}

// ChainResult maps one logical vertex to its hardware qubits.
type ChainResult struct {
	Logical  int64   `json:"logical"`
	Physical []int64 `json:"physical"`
}

// NewEmbedCommand creates the embed command.
func NewEmbedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EmbedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "embed <specs-dir> <program>",
		Short: "Minor-embed an anneal program onto a hardware graph",
		Long: `Find chains of hardware qubits for every logical qubit of an anneal
program and print the embedded program.

Hardware is either a topology (chimera:M,N,L, complete:N, grid:R,C) or a
YAML hardware file. With --db, embeddings are cached by problem graph,
hardware graph and algorithm.

Example:
  xacc embed ./specs maxcut --hardware chimera:1,1,4
  xacc embed ./specs maxcut --hardware ./hardware/broken.yaml --seed 7 --db ./xacc.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmbed(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Hardware, "hardware", "", "hardware topology or YAML file (required)")
	cmd.Flags().StringVar(&opts.Algorithm, "algorithm", "heuristic", "embedding algorithm")
	cmd.Flags().IntVar(&opts.Tries, "tries", embedding.DefaultTries, "randomised restarts")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "search seed")
	cmd.Flags().Float64Var(&opts.ChainStrength, "chain-strength", DefaultChainStrength, "coupling inside chains")
	cmd.Flags().Float64SliceVar(&opts.Values, "values", nil, "values for the program variables, in declaration order")
	cmd.Flags().StringVar(&opts.Database, "db", "", "cache embeddings in this SQLite database")
	_ = cmd.MarkFlagRequired("hardware")

	return cmd
}

func runEmbed(opts *EmbedOptions, specsDir, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	unit, err := loadUnit(formatter, specsDir)
	if err != nil {
		return err
	}
	problem, err := problemGraph(unit, name, opts.Values, "sum")
	if err != nil {
		return outputGraphError(formatter, err)
	}
	hardware, err := loadHardware(opts.Hardware)
	if err != nil {
		return outputCompileError(formatter, ErrCodeUsage, err.Error(), nil)
	}
	algo, err := embedding.Lookup(opts.Algorithm)
	if err != nil {
		return outputCompileError(formatter, ErrCodeUsage, err.Error(), nil)
	}
	formatter.VerboseLog("Embedding %s (%d vertices) onto %d qubits with %s",
		name, problem.Order(), hardware.Order(), algo.Name())

	params := embedding.Params{Tries: opts.Tries, Seed: opts.Seed}
	emb, cached, err := findEmbedding(ctx, opts.Database, algo, problem, hardware, params)
	if err != nil {
		if embedding.IsNotFound(err) {
			_ = formatter.Error(ErrCodeEmbedding, err.Error(), nil)
			return WrapExitError(ExitFailure, "no embedding found", err)
		}
		code := ErrCodeGeneric
		if opts.Database != "" {
			code = ErrCodeDatabase
		}
		return outputCompileError(formatter, code, err.Error(), nil)
	}

	embedded, err := embedding.Apply(problem, hardware, emb, opts.ChainStrength)
	if err != nil {
		return outputCompileError(formatter, ErrCodeEmbedding, err.Error(), nil)
	}

	result := EmbedResult{
		Program:        name,
		Algorithm:      algo.Name(),
		Cached:         cached,
		Qubits:         emb.Qubits(),
		MaxChainLength: emb.MaxChainLength(),
		Chains:         make([]ChainResult, 0, len(emb)),
		Terms:          instructionLines(embedded.Composite),
	}
	for _, v := range emb.Logical() {
		result.Chains = append(result.Chains, ChainResult{Logical: v, Physical: emb[v]})
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	writeEmbedding(formatter, result)
	return nil
}

// loadHardware reads a YAML hardware file or parses topology notation.
func loadHardware(spec string) (*graph.Graph, error) {
	switch strings.ToLower(filepath.Ext(spec)) {
	case ".yaml", ".yml":
		g, _, err := graph.LoadFile(spec)
		return g, err
	}
	return graph.ParseTopology(spec)
}

// cacheKey names an algorithm run for the embedding cache. The seed is
// part of the key because it selects which of many valid embeddings is
// returned.
func cacheKey(algo embedding.Algorithm, params embedding.Params) string {
	return fmt.Sprintf("%s:%d", algo.Name(), params.Seed)
}

// findEmbedding consults the cache at dbPath, if any, before running algo
// and stores what it finds.
func findEmbedding(ctx context.Context, dbPath string, algo embedding.Algorithm, problem, hardware *graph.Graph, params embedding.Params) (embedding.Embedding, bool, error) {
	if dbPath == "" {
		emb, err := algo.Embed(ctx, problem, hardware, params)
		return emb, false, err
	}

	problemHash, err := problem.Hash()
	if err != nil {
		return nil, false, err
	}
	hardwareHash, err := hardware.Hash()
	if err != nil {
		return nil, false, err
	}
	key := cacheKey(algo, params)

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, false, err
	}
	defer st.Close()

	emb, err := st.ReadEmbedding(ctx, problemHash, hardwareHash, key)
	switch {
	case err == nil:
		if emb.Validate(problem, hardware) == nil {
			return emb, true, nil
		}
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, err
	}

	emb, err = algo.Embed(ctx, problem, hardware, params)
	if err != nil {
		return nil, false, err
	}
	if err := st.WriteEmbedding(ctx, problemHash, hardwareHash, key, emb); err != nil {
		return nil, false, err
	}
	return emb, false, nil
}

func writeEmbedding(formatter *OutputFormatter, result EmbedResult) {
	w := formatter.Writer
	source := "found"
	if result.Cached {
		source = "cached"
	}
	fmt.Fprintf(w, "✓ Embedding %s (%s, %s): %d qubit(s), max chain %d\n\n",
		result.Program, result.Algorithm, source, result.Qubits, result.MaxChainLength)

	fmt.Fprintln(w, "Chains:")
	for _, c := range result.Chains {
		fmt.Fprintf(w, "  %d -> %v\n", c.Logical, c.Physical)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Embedded program (%d term(s)):\n", len(result.Terms))
	for _, t := range result.Terms {
		fmt.Fprintf(w, "  %s\n", t)
	}
}
