package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSuite_RepoScenarios(t *testing.T) {
	result, err := RunSuite(context.Background(), filepath.Join(projectRoot(), "testdata", "scenarios"), "")
	require.NoError(t, err)

	assert.True(t, result.OK(), "failures: %+v", result.Failures)
	assert.Equal(t, 4, result.TotalScenarios)
	assert.Equal(t, 4, result.Passed)
}

func TestRunSuite_CollectsFailures(t *testing.T) {
	dir := t.TempDir()
	specs := filepath.Join(dir, "specs")
	require.NoError(t, os.MkdirAll(specs, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(specs, "specs.cue"), []byte(pairSrc), 0644))

	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	write("a_pass.yaml", `
name: pass
description: "two circuits share nothing"
specs: specs
circuits: [a, b]
assertions:
  - type: base_length
    count: 0
`)
	write("b_fail.yml", `
name: fail
description: "wrong sub-circuit count"
specs: specs
circuits: [a, b]
assertions:
  - type: sub_count
    count: 5
`)
	write("c_broken.yaml", `
name: broken
description: "unknown circuit"
specs: specs
circuits: [missing]
assertions:
  - type: validates
`)
	write("d_invalid.yaml", "name: invalid\n")
	write("notes.txt", "not a scenario")

	result, err := RunSuite(context.Background(), dir, "")
	require.NoError(t, err)

	assert.False(t, result.OK())
	assert.Equal(t, 4, result.TotalScenarios)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 3, result.Failed)
	require.Len(t, result.Failures, 3)

	assert.Equal(t, filepath.Join(dir, "b_fail.yml"), result.Failures[0].ScenarioPath)
	assert.Equal(t, "scenario assertions failed", result.Failures[0].Error)
	require.Len(t, result.Failures[0].Assertions, 1)
	assert.Contains(t, result.Failures[0].Error+result.Failures[0].Assertions[0], "sub_count")

	assert.Contains(t, result.Failures[1].Error, "scenario execution failed")
	assert.Contains(t, result.Failures[1].Error, "circuit not found: missing")

	assert.Contains(t, result.Failures[2].Error, "failed to load scenario")
}

func TestRunSuite_MissingDir(t *testing.T) {
	_, err := RunSuite(context.Background(), "/nonexistent/scenarios", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario directory")
}

func TestRunSuite_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := RunSuite(ctx, filepath.Join(projectRoot(), "testdata", "scenarios"), "")
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.TotalScenarios)
}

func TestFindScenarios_Filter(t *testing.T) {
	dir := filepath.Join(projectRoot(), "testdata", "scenarios")

	paths, err := FindScenarios(dir, "maxcut_*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "maxcut_embedding.yaml")}, paths)

	_, err = FindScenarios(dir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}
