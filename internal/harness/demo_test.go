package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// projectRoot returns the project root directory.
// Tests run from the package directory, but the shared scenarios and
// specs live under the repository's testdata.
func projectRoot() string {
	root, _ := filepath.Abs("../..")
	return root
}

// TestDemoScenarios runs every scenario shipped in testdata/scenarios.
// They double as usage examples for the scenario format.
func TestDemoScenarios(t *testing.T) {
	paths, err := FindScenarios(filepath.Join(projectRoot(), "testdata", "scenarios"), "")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenarioWithBasePath(path, filepath.Dir(path))
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario %s failed: %v", scenario.Name, result.Errors)
		})
	}
}
