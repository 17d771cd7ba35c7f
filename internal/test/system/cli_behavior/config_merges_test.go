package system

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/choreo/internal/app"
	"github.com/vk/choreo/internal/testutil"
)

// Test for: every HCL file of a config directory is merged, so resources,
// retry and headers declared in separate files all take effect over HTTP.
func TestCLIBehavior_ConfigDirectoryMerges(t *testing.T) {
	// --- Arrange ---
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "cold start", http.StatusServiceUnavailable)
			return
		}
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"out": "%v-%s"}`, in["x"], r.Header.Get("X-Tenant"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	confDir := filepath.Join(dir, "conf")
	require.NoError(t, os.MkdirAll(confDir, 0755))
	files := map[string]string{
		"resources.hcl": fmt.Sprintf(`
resource "wrap.f" {
  id = %q
}
`, srv.URL),
		"retry.hcl": `
retry {
  max_retries = 2
  base_delay  = "1ms"
  max_delay   = "5ms"
}
`,
		"http.hcl": `
invoker "http" {
  headers = { "X-Tenant" = env.CHOREO_TEST_TENANT }
}
`,
		"ignored.txt": `not hcl`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(confDir, name), []byte(body), 0600))
	}
	t.Setenv("CHOREO_TEST_TENANT", "acme")

	wfPath := filepath.Join(dir, "wf.yaml")
	require.NoError(t, os.WriteFile(wfPath, []byte(`
name: remote
dataIns:
  - { name: x, type: string, source: x }
dataOuts:
  - { name: r, type: string, source: wrap/r }
workflowBody:
  - parallel:
      name: wrap
      dataIns: [{ name: x, type: string, source: remote/x }]
      parallelBody:
        - section:
            - function:
                name: f
                dataIns: [{ name: x, type: string, source: wrap/x }]
                dataOuts: [{ name: out, type: string }]
      dataOuts:
        - { name: r, type: string, source: f/out }
`), 0600))

	out := &bytes.Buffer{}
	a, err := app.NewApp(out, &testutil.SafeBuffer{}, &app.Config{
		WorkflowPath: wfPath,
		ConfigPaths:  []string{confDir},
		InputJSON:    `{"x": "v"}`,
	})
	require.NoError(t, err)
	defer a.Close()

	// --- Act ---
	err = a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.JSONEq(t, `{"r": "v-acme"}`, out.String())
	assert.Equal(t, int32(2), hits.Load(), "expected one retried 503 and one success")
}

// Test for: a malformed config file aborts startup with the file name.
func TestCLIBehavior_BadConfigFile(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`engine {`), 0600))

	// --- Act ---
	_, err := app.NewApp(&bytes.Buffer{}, &testutil.SafeBuffer{}, &app.Config{
		WorkflowPath: filepath.Join(dir, "unused.yaml"),
		ConfigPaths:  []string{path},
	})

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.hcl")
}
