package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmd := getRootCmd()

	names := make(map[string]bool)
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "create-admin", "init"} {
		assert.True(t, names[want], "%s subcommand should exist", want)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	cmd := getRootCmd()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "string", configFlag.Value.Type())
}

func TestCreateAdmin_RequiresEmailAndPassword(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "")
	cmd := getRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"create-admin", "--email", "admin@x.mz"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--password")
}

func TestMigrateThenCreateAdmin(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_URL", "file:"+filepath.Join(dir, "cli.db"))
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "config.yaml"))

	cmd := getRootCmd()
	cmd.SetArgs([]string{"migrate"})
	require.NoError(t, cmd.Execute())

	out := new(bytes.Buffer)
	cmd = getRootCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"create-admin", "--email", "admin@x.mz", "--password", "secret"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "administrator admin@x.mz created")

	out.Reset()
	cmd = getRootCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"create-admin", "--email", "admin@x.mz", "--password", "secret"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "already registered")
}
