package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NormalizeResult carries non-fatal adjustments made before defaults apply.
type NormalizeResult struct {
	Warnings []string
}

// normalizeConfig canonicalizes user-supplied values that have more than one
// reasonable spelling: API prefixes gain a leading slash and lose trailing
// ones, duplicates are dropped, and watch paths are cleaned and deduplicated.
func normalizeConfig(cfg *Config) *NormalizeResult {
	res := &NormalizeResult{}

	cfg.Serve.API.Prefixes = normalizeAPIPrefixes(cfg.Serve.API.Prefixes, res)
	cfg.Dev.Watch = normalizeWatchPaths(cfg.Dev.Watch)

	return res
}

func normalizeAPIPrefixes(prefixes []string, res *NormalizeResult) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(prefixes))

	for _, raw := range prefixes {
		prefix := strings.TrimSpace(raw)
		if prefix == "" {
			res.Warnings = append(res.Warnings, "dropping empty api prefix")
			continue
		}
		if !strings.HasPrefix(prefix, "/") {
			prefix = "/" + prefix
		}
		for len(prefix) > 1 && strings.HasSuffix(prefix, "/") {
			prefix = strings.TrimSuffix(prefix, "/")
		}
		if prefix == "/" {
			res.Warnings = append(res.Warnings, "api prefix / matches every request; static and fallback routing would never run")
		}
		if seen[prefix] {
			res.Warnings = append(res.Warnings, fmt.Sprintf("dropping duplicate api prefix %s", prefix))
			continue
		}
		seen[prefix] = true
		out = append(out, prefix)
	}

	return out
}

func normalizeWatchPaths(paths []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(paths))

	for _, raw := range paths {
		p := strings.TrimSpace(raw)
		if p == "" {
			continue
		}
		p = filepath.Clean(p)
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}

	return out
}
