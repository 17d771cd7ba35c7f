package system

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/choreo/internal/app"
	"github.com/vk/choreo/internal/testutil"
)

// runWorkflow writes doc and engine (when non-empty) to a temp dir, runs the
// app once with the given options and returns the result output and error.
func runWorkflow(t *testing.T, doc, engine, input string, opts ...app.Option) (string, error) {
	t.Helper()
	dir := t.TempDir()
	wfPath := filepath.Join(dir, "workflow.yaml")
	require.NoError(t, os.WriteFile(wfPath, []byte(doc), 0600))

	cfg := &app.Config{WorkflowPath: wfPath, InputJSON: input, LogLevel: "debug"}
	if engine != "" {
		enginePath := filepath.Join(dir, "engine.hcl")
		require.NoError(t, os.WriteFile(enginePath, []byte(engine), 0600))
		cfg.ConfigPaths = []string{enginePath}
	}

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	a, err := app.NewApp(out, logs, cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if os.Getenv("CHOREO_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	runErr := a.Run(context.Background())
	require.NoError(t, a.Close())
	return out.String(), runErr
}
