package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xacc/internal/ir"
	"github.com/roach88/xacc/internal/store"
)

func TestCompileValidSpecs(t *testing.T) {
	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), repoSpecs(t))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 4 circuit(s), 3 anneal program(s)")
	assert.Contains(t, out, "z_basis:")
	assert.Contains(t, out, "maxcut (ising): 3 term(s), 3 qubit(s)")
}

func TestCompileValidSpecsJSON(t *testing.T) {
	out, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), repoSpecs(t))
	require.NoError(t, err)

	var result CompilationResult
	decodeData(t, out, &result)

	require.Len(t, result.Circuits, 4)
	require.Len(t, result.Programs, 3)

	names := make([]string, len(result.Circuits))
	for i, c := range result.Circuits {
		names[i] = c.Name
		assert.Len(t, c.Hash, 64)
		assert.Equal(t, []string{"theta"}, c.Variables)
	}
	assert.Equal(t, []string{"prep", "z_basis", "x_basis", "y_basis"}, names)

	// The body round-trips to a composite with the same hash.
	body, err := ir.UnmarshalComposite(result.Circuits[1].Body)
	require.NoError(t, err)
	assert.Equal(t, result.Circuits[1].Hash, ir.MustCompositeHash(body))
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "compiled.json")

	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), repoSpecs(t), "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote canonical IR to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Len(t, result.Circuits, 4)
	assert.Len(t, result.Programs, 3)
}

func TestCompileToDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "xacc.db")

	_, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), repoSpecs(t), "--db", dbPath)
	require.NoError(t, err)

	// Compiling twice stores each composite once.
	_, err = execute(NewCompileCommand(&RootOptions{Format: "text"}), repoSpecs(t), "--db", dbPath)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	records, err := st.ListComposites(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 7)
}

func TestCompileNonExistentDirectory(t *testing.T) {
	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E005") // ErrCodeNotFound
	assert.Contains(t, out, "not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCompileEmptyDirectory(t *testing.T) {
	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E003")
	assert.Contains(t, out, "no CUE files found")
}

func TestCompileNothingToCompile(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"other.cue": "package specs\n\nsettings: shots: 1024\n"})

	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "no circuits or anneal programs")
}

func TestCompileInvalidSpec(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"bad.cue": `
package specs

circuit: bad: instructions: [{gate: "H"}]
`})

	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compilation failed")
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, "E203: bits are required")
	assert.Contains(t, out, "bad.cue:")
}

func TestCompileInvalidSpecJSON(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"bad.cue": `
package specs

anneal: p: {type: "spin", terms: [[0, 1, 1.0]]}
`})

	out, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)

	cliErr := decodeError(t, out)
	assert.Equal(t, ErrCodeType, cliErr.Code)
	assert.Contains(t, cliErr.Message, "spin")
}

func TestCompileCollectsAllErrors(t *testing.T) {
	dir := writeSpecs(t, map[string]string{"bad.cue": `
package specs

circuit: a: instructions: [{gate: "Nope", bits: [0]}]
circuit: b: instructions: [{gate: "H", bits: [-1]}]
anneal: c: terms: [[0, 1, 2, 3]]
`})

	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 error(s)")
	assert.Contains(t, out, "E202")
	assert.Contains(t, out, "E203")
	assert.Contains(t, out, "E210")
}

func TestCompileCallErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{
			name: "cycle",
			src: `
circuit: a: instructions: [{call: "b"}]
circuit: b: instructions: [{call: "a"}]
`,
			code: ErrCodeCallCycle,
		},
		{
			name: "unknown",
			src:  `circuit: a: instructions: [{call: "missing"}]`,
			code: ErrCodeUnknownCall,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeSpecs(t, map[string]string{"calls.cue": "package specs\n" + tt.src})

			out, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), dir)
			require.Error(t, err)
			assert.Equal(t, tt.code, decodeError(t, out).Code)
		})
	}
}

func TestCompileVerboseOutput(t *testing.T) {
	cmd := NewCompileCommand(&RootOptions{Format: "text", Verbose: true})
	stderr := &bytes.Buffer{}
	cmd.SetErr(stderr)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{repoSpecs(t)})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, stderr.String(), "Compiled circuit: y_basis")
	assert.Contains(t, stderr.String(), "Compiled anneal program: layer")
}

func TestFindCUEFiles(t *testing.T) {
	tmpDir := t.TempDir()

	subDir := filepath.Join(tmpDir, "subdir")
	require.NoError(t, os.MkdirAll(subDir, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "root.cue"), []byte("package specs"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "notcue.txt"), []byte("not a cue file"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "nested.cue"), []byte("package specs"), 0644))

	files, err := FindCUEFiles(tmpDir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field    string
		expected string
	}{
		{"instructions", ErrCodeInstructions}, // E201
		{"composite", ErrCodeInstructions},    // E201
		{"gate", ErrCodeGate},                 // E202
		{"bits", ErrCodeBits},                 // E203
		{"params", ErrCodeParams},             // E204
		{"variables", ErrCodeVariables},       // E205
		{"terms", ErrCodeTerms},               // E210
		{"type", ErrCodeType},                 // E211
		{"rbm", ErrCodeRBM},                   // E212
		{"rbm.nv", ErrCodeRBM},                // E212
		{"unknown", ErrCodeGeneric},           // E001
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapFieldToErrorCode(tt.field))
		})
	}
}
