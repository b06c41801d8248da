package cli

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetImportCmd() {
	importDataFile = ""
	importConfigFile = ""
	importCmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	rootCmd.SetArgs(nil)
}

func TestImportCmd_Use(t *testing.T) {
	assert.Equal(t, "import", importCmd.Use)
	assert.Equal(t, "Load a game-data export into the catalog", importCmd.Short)
}

func TestImportCmd_RequiresData(t *testing.T) {
	t.Cleanup(resetImportCmd)

	_, err := executeCommand(t, "import")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s)")
	assert.Contains(t, err.Error(), `"data"`)
}

func TestImportCmd_MissingDataFile(t *testing.T) {
	t.Cleanup(resetImportCmd)

	_, err := executeCommand(t, "import", "--data", "/nonexistent/export.json")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read data file")
}

// A bad document is rejected before any backing service is dialed, so this
// runs without a database.
func TestImportCmd_InvalidDataFile(t *testing.T) {
	t.Cleanup(resetImportCmd)
	path := writeBrokenExportFile(t)

	_, err := executeCommand(t, "import", "--data", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse data file")
}
