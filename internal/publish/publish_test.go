package publish

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestPublish_CopiesProducerOutput(t *testing.T) {
	srcDir := t.TempDir()
	writeTree(t, srcDir, map[string]string{
		"index.html":    "<html>v1</html>",
		"assets/app.js": "console.log(1)",
	})
	destDir := filepath.Join(t.TempDir(), "server", "public")

	require.NoError(t, Publish("client", srcDir, destDir))

	got, err := os.ReadFile(filepath.Join(destDir, "index.html"))
	require.NoError(t, err)
	require.Equal(t, "<html>v1</html>", string(got))

	got, err = os.ReadFile(filepath.Join(destDir, "assets", "app.js"))
	require.NoError(t, err)
	require.Equal(t, "console.log(1)", string(got))
}

func TestPublish_ReplacesPriorContents(t *testing.T) {
	destDir := filepath.Join(t.TempDir(), "public")

	v1 := t.TempDir()
	writeTree(t, v1, map[string]string{"index.html": "v1", "stale.js": "old"})
	require.NoError(t, Publish("client", v1, destDir))

	v2 := t.TempDir()
	writeTree(t, v2, map[string]string{"index.html": "v2"})
	require.NoError(t, Publish("client", v2, destDir))

	got, err := os.ReadFile(filepath.Join(destDir, "index.html"))
	require.NoError(t, err)
	require.Equal(t, "v2", string(got))

	_, err = os.Stat(filepath.Join(destDir, "stale.js"))
	require.True(t, os.IsNotExist(err), "stale.js should not survive a republish")
}

func TestPublish_EmptyProducerLeavesDestUntouched(t *testing.T) {
	destDir := filepath.Join(t.TempDir(), "public")

	v1 := t.TempDir()
	writeTree(t, v1, map[string]string{"index.html": "v1"})
	require.NoError(t, Publish("client", v1, destDir))

	var publishErr *PublishError
	err := Publish("client", t.TempDir(), destDir)
	require.ErrorAs(t, err, &publishErr)
	require.Equal(t, "client", publishErr.Producer)

	// The earlier publish must still be fully readable.
	got, readErr := os.ReadFile(filepath.Join(destDir, "index.html"))
	require.NoError(t, readErr)
	require.Equal(t, "v1", string(got))
}

func TestPublish_MissingProducerDir(t *testing.T) {
	destDir := filepath.Join(t.TempDir(), "public")

	var publishErr *PublishError
	err := Publish("client", filepath.Join(t.TempDir(), "does-not-exist"), destDir)
	require.ErrorAs(t, err, &publishErr)

	_, statErr := os.Stat(destDir)
	require.True(t, os.IsNotExist(statErr), "failed publish must not create the destination")
}

func TestSweepStaleStages(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "public.stage-1234")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := filepath.Join(dir, "public.stage-5678")
	require.NoError(t, os.MkdirAll(fresh, 0o755))

	published := filepath.Join(dir, "public")
	require.NoError(t, os.MkdirAll(published, 0o755))

	removed, err := SweepStaleStages(dir, time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = os.Stat(stale)
	require.True(t, os.IsNotExist(err), "stale stage should be removed")
	_, err = os.Stat(fresh)
	require.NoError(t, err, "fresh stage should survive")
	_, err = os.Stat(published)
	require.NoError(t, err, "published directory should survive")
}

func TestSweepStaleStages_MissingDir(t *testing.T) {
	removed, err := SweepStaleStages(filepath.Join(t.TempDir(), "absent"), time.Hour)
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestPublishError_Message(t *testing.T) {
	err := &PublishError{Producer: "client", Dir: "/tmp/x/dist"}
	require.Contains(t, err.Error(), `workspace "client"`)
	require.Contains(t, err.Error(), "/tmp/x/dist")

	var target *PublishError
	require.True(t, errors.As(err, &target))
}
