package publish

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const verifyPage = `<!doctype html>
<html>
<head>
  <link rel="stylesheet" href="/assets/style.css">
  <link rel="icon" href="favicon.ico">
  <script src="/assets/app.js"></script>
  <script src="https://cdn.example.com/lib.js"></script>
</head>
<body>
  <img src="logo.svg" alt="logo">
  <img src="data:image/png;base64,AAAA">
  <a href="#section">anchor</a>
</body>
</html>`

func TestVerifyAssets_AllPresent(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"index.html":       verifyPage,
		"assets/style.css": "body{}",
		"assets/app.js":    "console.log(1)",
		"favicon.ico":      "ico",
		"logo.svg":         "<svg/>",
	})

	missing, err := VerifyAssets(dir)
	require.NoError(t, err)
	require.Empty(t, missing)
}

func TestVerifyAssets_ReportsMissingLocalAssets(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"index.html":       verifyPage,
		"assets/style.css": "body{}",
	})

	missing, err := VerifyAssets(dir)
	require.NoError(t, err)

	require.Equal(t, []string{"/assets/app.js", "favicon.ico", "logo.svg"}, missing)
}

func TestVerifyAssets_IgnoresExternalAndInlineRefs(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"index.html": `<html><head>
			<script src="https://cdn.example.com/lib.js"></script>
			<script src="//cdn.example.com/proto-relative.js"></script>
			<img src="data:image/png;base64,AAAA">
		</head></html>`,
	})

	missing, err := VerifyAssets(dir)
	require.NoError(t, err)
	require.Empty(t, missing, "external and data refs are not local assets")
}

func TestVerifyAssets_NoFallbackDocument(t *testing.T) {
	missing, err := VerifyAssets(t.TempDir())
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestVerifyAssets_StripsQueryAndFragment(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"index.html": `<html><script src="/app.js?v=3f2c1aa8"></script></html>`,
		"app.js":     "console.log(1)",
	})

	missing, err := VerifyAssets(dir)
	require.NoError(t, err)
	require.Empty(t, missing, "query strings must not defeat the existence check")
}

func TestLocalAssetPath(t *testing.T) {
	cases := []struct {
		ref    string
		want   string
		wantOK bool
	}{
		{"/assets/app.js", filepath.FromSlash("assets/app.js"), true},
		{"logo.svg", "logo.svg", true},
		{"https://cdn.example.com/lib.js", "", false},
		{"//cdn.example.com/lib.js", "", false},
		{"data:image/png;base64,AAAA", "", false},
		{"#anchor", "", false},
		{"", "", false},
		{"/", "", false},
	}

	for _, tc := range cases {
		got, ok := localAssetPath(tc.ref)
		require.Equal(t, tc.wantOK, ok, "ref %q", tc.ref)
		require.Equal(t, tc.want, got, "ref %q", tc.ref)
	}
}

func TestVerifyAssets_UnreadableDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "index.html"), 0o755))

	_, err := VerifyAssets(dir)
	require.Error(t, err)
}
