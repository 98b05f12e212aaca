package sourcemap

import (
	"bufio"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// Search limits. Text search over a dev project must stay cheap enough to
// run on every unresolved click.
const (
	maxMatchesPerPattern = 20
	maxSearchFileSize    = 1 << 20 // skip generated bundles
)

// skipDirs are never descended into during searches and scans.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	".next":        true,
	".cache":       true,
	"coverage":     true,
}

// DirSearcher is the in-process text-search collaborator: a bounded
// regexp walk over a project root. Embedders with a real indexed search
// (ripgrep service, LSP workspace search) supply their own Searcher
// instead.
type DirSearcher struct {
	Root   string
	Logger *slog.Logger
}

// NewDirSearcher creates a searcher over the given project root.
func NewDirSearcher(root string, logger *slog.Logger) *DirSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirSearcher{Root: root, Logger: logger}
}

// Search walks the root for files matching any scope glob and returns
// up to maxMatchesPerPattern line hits for the pattern.
func (d *DirSearcher) Search(ctx context.Context, pattern string, scopeGlobs []string) ([]Match, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	var hits []Match
	err = filepath.WalkDir(d.Root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			if skipDirs[entry.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(d.Root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !matchesAny(rel, scopeGlobs) {
			return nil
		}
		if info, err := entry.Info(); err != nil || info.Size() > maxSearchFileSize {
			return nil
		}

		fileHits, err := grepFile(p, rel, re, maxMatchesPerPattern-len(hits))
		if err != nil {
			d.Logger.Debug("sourcemap: grep file", "file", rel, "error", err)
			return nil
		}
		hits = append(hits, fileHits...)
		if len(hits) >= maxMatchesPerPattern {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return hits, err
	}
	return hits, nil
}

func grepFile(abs, rel string, re *regexp.Regexp, limit int) ([]Match, error) {
	f, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var hits []Match
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxSearchFileSize)
	line := 0
	for scanner.Scan() {
		line++
		if re.MatchString(scanner.Text()) {
			hits = append(hits, Match{File: rel, Line: line})
			if len(hits) >= limit {
				break
			}
		}
	}
	return hits, scanner.Err()
}

// matchesAny reports whether rel matches any glob. Globs may carry a
// leading "**/" meaning "at any depth"; the remainder uses path.Match
// semantics against the base name or the full relative path.
func matchesAny(rel string, globs []string) bool {
	if len(globs) == 0 {
		return true
	}
	for _, glob := range globs {
		if matchGlob(rel, glob) {
			return true
		}
	}
	return false
}

func matchGlob(rel, glob string) bool {
	if rest, ok := strings.CutPrefix(glob, "**/"); ok {
		if ok, _ := path.Match(rest, path.Base(rel)); ok {
			return true
		}
		// Also allow the remainder to anchor a multi-segment suffix.
		if strings.Contains(rest, "/") && strings.HasSuffix(rel, strings.TrimPrefix(rest, "*")) {
			return true
		}
		return false
	}
	ok, _ := path.Match(glob, rel)
	return ok
}
