package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{"config.hcl"}, &out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "config.hcl", cfg.ConfigPath)
	assert.False(t, cfg.PlanOnly)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 0, cfg.OpsPort)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParseAllFlags(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{
		"-plan-only",
		"-workers", "8",
		"-ops-port", "8080",
		"-log-format", "text",
		"-log-level", "debug",
		"runs.hcl",
	}, &out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "runs.hcl", cfg.ConfigPath)
	assert.True(t, cfg.PlanOnly)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 8080, cfg.OpsPort)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseConfigPathSources(t *testing.T) {
	t.Run("config flag wins over positional", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"-config", "from-flag.hcl", "positional.hcl"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "from-flag.hcl", cfg.ConfigPath)
	})

	t.Run("shorthand flag", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"-c", "short.hcl"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "short.hcl", cfg.ConfigPath)
	})
}

func TestParseNoPathPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "CONFIG_PATH")
}

func TestParseHelpExitsCleanly(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{"-h"}, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
}

func TestParseRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-nope", "config.hcl"}},
		{"bad log format", []string{"-log-format", "yaml", "config.hcl"}},
		{"bad log level", []string{"-log-level", "loud", "config.hcl"}},
		{"negative workers", []string{"-workers", "-3", "config.hcl"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			_, _, err := Parse(tc.args, &out)
			require.Error(t, err)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}
