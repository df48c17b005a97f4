package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"research", "discover", "extract", "list", "show", "export", "import", "migrate", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "vendor-research", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestExtractCommand_Flags(t *testing.T) {
	flag := extractCmd.Flags().Lookup("vendor-id")
	require.NotNil(t, flag, "extract command should have --vendor-id flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestShowCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"version", "versions"} {
		flag := showCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "show should have --%s flag", flagName)
	}
}

func TestExportCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"output", "include-raw"} {
		flag := exportCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "export should have --%s flag", flagName)
	}
}

func TestImportCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"sheet", "column", "skip-rows", "skip-extraction"} {
		flag := importCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "import should have --%s flag", flagName)
	}

	skip := importCmd.Flags().Lookup("skip-rows")
	require.NotNil(t, skip)
	assert.Equal(t, "1", skip.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}
