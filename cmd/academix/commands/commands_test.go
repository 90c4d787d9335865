package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoot(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	for _, sub := range []string{"serve", "vectorstore", "discord", "ask", "document"} {
		assert.Contains(t, out, sub)
	}

	out, err = execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)

	_, err = execute(t, "--log-level", "LOUD", "document", "--list")
	assert.EqualError(t, err, "invalid log level: LOUD")
}

func TestArgs(t *testing.T) {
	_, err := execute(t, "ask")
	assert.EqualError(t, err, "requires at least 1 arg(s), only received 0")

	_, err = execute(t, "ask", "--trace", "-v")
	assert.EqualError(t, err, "requires at least 1 arg(s), only received 0")

	_, err = execute(t, "document", "Exercise")
	assert.EqualError(t, err, "requires at least 2 arg(s), only received 1")

	_, err = execute(t, "vectorstore", "insert")
	assert.EqualError(t, err, "requires at least 1 arg(s), only received 0")

	_, err = execute(t, "serve", "extra")
	assert.Error(t, err)
}

func TestDocumentList(t *testing.T) {
	out, err := execute(t, "document", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "Exercise: Problem with a step-by-step solution.")

	file := filepath.Join(t.TempDir(), "structures.yaml")
	require.NoError(t, os.WriteFile(file, []byte("- name: Note\n  description: Short note.\n"), 0o600))
	out, err = execute(t, "--structures", file, "document", "--list")
	require.NoError(t, err)
	assert.Equal(t, "Note: Short note.\n", out)

	_, err = execute(t, "--structures", "missing.yaml", "document", "--list")
	assert.Error(t, err)
}

func TestConfigErrors(t *testing.T) {
	_, err := execute(t, "--config", "missing.yaml", "serve")
	assert.Error(t, err)

	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("GUILD_ID", "")
	dir := t.TempDir()
	file := filepath.Join(dir, "academix.yaml")
	require.NoError(t, os.WriteFile(file, []byte("discord:\n  token: \"\"\n"), 0o600))
	env := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(env, []byte("GUILD_ID=1\n"), 0o600))
	_, err = execute(t, "--config", file, "--env", env, "discord", "chat")
	assert.ErrorContains(t, err, "invalid chat config")
}
