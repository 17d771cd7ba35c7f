package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/choreo/internal/app"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		expected *app.Config
	}{
		{
			name: "positional path with defaults",
			args: []string{"wf.yaml"},
			expected: &app.Config{
				WorkflowPath: "wf.yaml",
				LogFormat:    "text",
				LogLevel:     "info",
			},
		},
		{
			name: "all flags",
			args: []string{
				"-w", "wf.json", "-config", "a.hcl", "-config", "conf.d",
				"-input-json", `{"n":1}`, "-output", "out.json", "-execution-id", "auto",
				"-log-format", "JSON", "-log-level", "debug", "-max-branches", "8", "-healthcheck-port", "8080",
			},
			expected: &app.Config{
				WorkflowPath:    "wf.json",
				ConfigPaths:     []string{"a.hcl", "conf.d"},
				InputJSON:       `{"n":1}`,
				OutputPath:      "out.json",
				ExecutionID:     "auto",
				LogFormat:       "json",
				LogLevel:        "debug",
				HealthcheckPort: 8080,
				MaxBranches:     8,
			},
		},
		{
			name: "long flag wins over positional",
			args: []string{"-workflow", "a.yaml", "b.yaml"},
			expected: &app.Config{
				WorkflowPath: "a.yaml",
				LogFormat:    "text",
				LogLevel:     "info",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, exit, err := Parse(tc.args, &bytes.Buffer{})
			require.NoError(t, err)
			assert.False(t, exit)
			assert.Equal(t, tc.expected, cfg)
		})
	}
}

func TestParse_Usage(t *testing.T) {
	for _, args := range [][]string{{"-h"}, {}} {
		out := &bytes.Buffer{}
		cfg, exit, err := Parse(args, out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"-nope"}},
		{name: "bad log format", args: []string{"-log-format", "xml", "wf.yaml"}},
		{name: "bad log level", args: []string{"-log-level", "trace", "wf.yaml"}},
		{name: "two input sources", args: []string{"-input", "in.json", "-input-json", "{}", "wf.yaml"}},
		{name: "negative branches", args: []string{"-max-branches", "-1", "wf.yaml"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, ExitUsage, exitErr.Code)
		})
	}
}
