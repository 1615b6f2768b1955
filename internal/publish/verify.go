package publish

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// FallbackDocument is the entry document the router serves for client-routed
// paths and the file the post-publish check parses for asset references.
const FallbackDocument = "index.html"

// VerifyAssets parses the published fallback document and returns the local
// asset references that do not resolve to a file under dir. Missing assets
// are advisory: a bundler may emit paths the onward toolchain rewrites, so
// the caller logs them as warnings rather than failing the publish.
//
// A directory without a fallback document yields no findings; serving such a
// root is the router's concern, not the publisher's.
func VerifyAssets(dir string) ([]string, error) {
	file, err := os.Open(filepath.Join(dir, FallbackDocument))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", FallbackDocument, err)
	}
	defer file.Close()

	doc, err := html.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", FallbackDocument, err)
	}

	seen := make(map[string]bool)
	var missing []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if ref := assetRef(n); ref != "" && !seen[ref] {
				seen[ref] = true
				if rel, ok := localAssetPath(ref); ok {
					if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
						missing = append(missing, ref)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	sort.Strings(missing)
	return missing, nil
}

// assetRef returns the asset URL carried by an element, or "" for elements
// that reference none.
func assetRef(n *html.Node) string {
	switch n.Data {
	case "script", "img", "source", "video", "audio":
		return getAttr(n, "src")
	case "link":
		return getAttr(n, "href")
	}
	return ""
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// localAssetPath maps an asset reference to a path relative to the publish
// root. External URLs, data URIs, and anchors are not local assets.
func localAssetPath(ref string) (string, bool) {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "//") {
		return "", false
	}

	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}

	rel := strings.TrimPrefix(u.Path, "/")
	if rel == "" {
		return "", false
	}
	return filepath.FromSlash(rel), true
}
