package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd_RegistersExpectedSubcommandsAndFlags(t *testing.T) {
	root := NewRootCmd()

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["version"])

	for _, flag := range []string{"config", "root-dir", "verbose", "automock"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "expected persistent flag %q", flag)
	}
}

func TestInitializeGlobals_ResolvesConfigFromFlags(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "sandboxtest.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("automock: true\n"), 0o644))

	root := NewRootCmd()
	root.SetArgs([]string{
		"--config", configPath,
		"--root-dir", dir,
		"version",
	})
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))

	require.NoError(t, root.Execute())

	cfg := GetResolvedConfig()
	require.NotNil(t, cfg)
	assert.True(t, cfg.Automock)
	assert.Equal(t, dir, cfg.RootDir)
}

func TestInitializeGlobals_AutomockFlagOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "sandboxtest.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("automock: true\n"), 0o644))

	root := NewRootCmd()
	root.SetArgs([]string{"--config", configPath, "--automock=false", "version"})
	root.SetOut(new(nopWriter))
	root.SetErr(new(nopWriter))

	require.NoError(t, root.Execute())

	cfg := GetResolvedConfig()
	require.NotNil(t, cfg)
	assert.False(t, cfg.Automock, "the explicit --automock=false flag must win over the file's automock: true")
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
