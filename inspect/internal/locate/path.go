package locate

import (
	"strings"

	"github.com/hazyhaar/autoview/inspect/msg"
)

// Bundler/devserver URL schemes that wrap real file paths in debug-source
// metadata and stack frames.
var pathPrefixes = []string{
	"webpack-internal:///",
	"webpack://",
	"file://",
	"vite:///",
	"rsc://",
}

// projectRootMarkers are directory names that conventionally start a web
// project's source tree. A cleaned path is truncated to begin at the first
// marker so locations stay comparable across machines.
var projectRootMarkers = []string{"src", "app", "pages", "components", "lib"}

// CleanPath normalises a raw source path from debug metadata: protocol
// prefix stripped, separators normalised, leading "./" and bundler noise
// removed. The second return value is the project-relative form (truncated
// at a recognised root marker), empty when no marker is present.
func CleanPath(raw string) (cleaned, rel string) {
	p := raw
	for _, prefix := range pathPrefixes {
		if strings.HasPrefix(p, prefix) {
			p = strings.TrimPrefix(p, prefix)
			break
		}
	}
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")

	// Query strings from dev servers ("App.tsx?t=169...").
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}

	parts := strings.Split(p, "/")
	for i, part := range parts {
		for _, marker := range projectRootMarkers {
			if part == marker && i < len(parts)-1 {
				return p, strings.Join(parts[i:], "/")
			}
		}
	}
	return p, ""
}

// CleanLocation returns a copy of loc with its path cleaned and the
// project-relative form filled in.
func CleanLocation(loc msg.SourceLocation) msg.SourceLocation {
	cleaned, rel := CleanPath(loc.FilePath)
	loc.FilePath = cleaned
	if loc.RelPath == "" {
		loc.RelPath = rel
	}
	return loc
}

// InDependencyDir reports whether a path belongs to a framework or
// dependency directory and should be skipped during stack-trace scans.
func InDependencyDir(path string) bool {
	p := strings.ReplaceAll(path, "\\", "/")
	for _, dir := range []string{"node_modules/", "/react-dom/", "/react/", "/.vite/", "/dist/", "/build/"} {
		if strings.Contains(p, dir) {
			return true
		}
	}
	return false
}

// HasSourceExtension reports whether the path ends in a recognised source
// extension for stack-trace and search-result filtering.
func HasSourceExtension(path string) bool {
	for _, ext := range []string{".tsx", ".jsx", ".ts", ".js", ".vue", ".svelte", ".mjs"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
