package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdFlags(t *testing.T) {
	cmd := RootCmd()

	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"unexpected"})
	assert.Error(t, cmd.Execute())
}

func TestRootCmdMissingConfigFile(t *testing.T) {
	cmd := RootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "failed to read config")
}

func TestRunStopsWhenContextEnds(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CELERIX_STORAGE_DRIVER", "memory")
	t.Setenv("CELERIX_SERVER_HOST", "127.0.0.1")
	t.Setenv("CELERIX_SERVER_PORT", "17982")
	t.Setenv("CELERIX_LOG_LEVEL", "error")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, run(ctx, ""))
}
