package integration

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writePackages lays out a minimal three-workspace monorepo. The build
// commands in the manifest are plain shell so the suite runs without any
// JavaScript toolchain installed.
func writePackages(t *testing.T, root string) {
	t.Helper()
	for _, ws := range []string{"shared", "server", "client"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "packages", ws, "src"), 0o755))
	}
}

func writeManifest(t *testing.T, root string) string {
	t.Helper()

	manifest := fmt.Sprintf(`
state_dir: %s
workspaces:
  - name: shared
    path: %s
    build: 'mkdir -p dist && echo "export const version = 1" > dist/lib.js'
  - name: server
    path: %s
    build: 'mkdir -p dist && echo "server bundle" > dist/server.js'
    depends_on: [shared]
  - name: client
    path: %s
    build: 'mkdir -p dist/assets && echo "<html>monoserve client</html>" > dist/index.html && echo "console.log(1)" > dist/assets/app.js'
    depends_on: [shared]
publish:
  producer: client
  consumer: server
  dir: public
serve:
  addr: "127.0.0.1:0"
  admin_addr: "127.0.0.1:0"
  api:
    prefixes: ["/api"]
history:
  limit: 20
`,
		filepath.Join(root, "state"),
		filepath.Join(root, "packages", "shared"),
		filepath.Join(root, "packages", "server"),
		filepath.Join(root, "packages", "client"))

	path := filepath.Join(root, "monoserve.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))
	return path
}

func httpGet(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func httpPost(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}
