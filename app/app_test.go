package app

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtracker/medtracker/internal/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		dumpJSON = false
		materializeDate = ""
	})

	err := rootCmd.Execute()

	return out.String(), err
}

func TestConfigDump(t *testing.T) {
	out, err := run(t, "config", "dump", "--config", "../etc/")
	require.NoError(t, err)
	assert.Contains(t, out, `Title = "medtracker"`)

	out, err = run(t, "config", "dump", "--json", "--config", "../etc/")
	require.NoError(t, err)
	assert.Contains(t, out, `"Title": "medtracker"`)

	_, err = run(t, "config", "dump", "--config", t.TempDir())
	require.Error(t, err)
}

func TestConfigDumpHidesSecrets(t *testing.T) {
	t.Setenv("MEDTRACKER_DB_PASSWORD", "s3cret-db")
	t.Setenv("MEDTRACKER_CONFIG_JSON", `{"Log":{"DataDog":{"APIKey":"dd-key-123"}}}`)

	for _, args := range [][]string{
		{"config", "dump", "--config", "../etc/"},
		{"config", "dump", "--json", "--config", "../etc/"},
	} {
		out, err := run(t, args...)
		require.NoError(t, err)
		assert.NotContains(t, out, "s3cret-db")
		assert.NotContains(t, out, "dd-key-123")
		assert.Contains(t, out, config.RedactedValue)
	}
}

func TestMaterialize(t *testing.T) {
	t.Setenv("MEDTRACKER_DB_NAME", filepath.Join(t.TempDir(), "medtracker.db"))
	t.Setenv("MEDTRACKER_LOG_CONSOLE_ENABLED", "false")

	out, err := run(t, "materialize", "--date", "2026-10-19", "--config", "../etc/")
	require.NoError(t, err)
	assert.Contains(t, out, "created 0 log entries")

	_, err = run(t, "materialize", "--date", "tomorrow", "--config", "../etc/")
	require.Error(t, err)
}
