package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "workflow", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"validate", "analyze", "dump", "marking", "can", "enabled", "apply", "history", "subject", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"db", "env-file"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestWorkflowCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"dump", "marking", "can", "enabled", "apply"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)

			def := sub.Flags().Lookup("definition")
			require.NotNil(t, def)
			assert.Equal(t, "d", def.Shorthand)
			assert.NotNil(t, sub.Flags().Lookup("workflow"))
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	isolate(t)
	_, err := execute(t, "--format", "xml", "subject", "new")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestMissingDefinitionFlag(t *testing.T) {
	isolate(t)
	_, err := execute(t, "enabled", "order-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "definition" not set`)
}
