// Package sourcemap turns a component descriptor into ranked candidate
// source-file locations. Three strategies feed the ranking, in confidence
// order: debug-source metadata already attached to the descriptor (high),
// a declaration-pattern text search for the component name (medium), and
// naming-convention probes over the project tree (low). A miss at every
// rung is not an error — the result simply carries an empty candidate
// list at low confidence.
package sourcemap

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hazyhaar/autoview/inspect/msg"
)

// Searcher is the external text-search collaborator.
type Searcher interface {
	// Search returns file/line hits for a regular-expression pattern
	// within files matching the scope globs.
	Search(ctx context.Context, pattern string, scopeGlobs []string) ([]Match, error)
}

// Match is one text-search hit.
type Match struct {
	File string
	Line int
}

// FileFinder is the external file-existence collaborator.
type FileFinder interface {
	FindFiles(ctx context.Context, glob string) ([]string, error)
}

// Editor is the external editor collaborator for "open file" actions.
type Editor interface {
	OpenFile(ctx context.Context, path string, line, column int) error
}

// sourceGlobs scope name searches to web source files.
var sourceGlobs = []string{
	"**/*.tsx", "**/*.jsx", "**/*.ts", "**/*.js", "**/*.vue", "**/*.svelte",
}

// probeDirs and probeExts parameterise the low-confidence convention scan.
var (
	probeDirs = []string{"src/components", "src", "app", "components", "pages", "lib"}
	probeExts = []string{".tsx", ".jsx", ".ts", ".js", ".vue", ".svelte"}
)

const cacheSize = 256

// Config assembles a Mapper.
type Config struct {
	Searcher Searcher
	Finder   FileFinder
	Logger   *slog.Logger
}

// Mapper resolves descriptors to ComponentSourceInfo. Results are
// memoised per (component name, attached source) since repeated clicks on
// the same widget are the common case.
type Mapper struct {
	searcher Searcher
	finder   FileFinder
	logger   *slog.Logger
	cache    *lru.Cache[string, msg.ComponentSourceInfo]
}

// NewMapper creates a Mapper. Searcher and Finder may each be nil, which
// disables the corresponding strategy.
func NewMapper(cfg Config) *Mapper {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cache, _ := lru.New[string, msg.ComponentSourceInfo](cacheSize)
	return &Mapper{
		searcher: cfg.Searcher,
		finder:   cfg.Finder,
		logger:   cfg.Logger,
		cache:    cache,
	}
}

// Resolve maps a descriptor to ranked source candidates. It never fails:
// collaborator errors degrade to fewer candidates.
func (m *Mapper) Resolve(ctx context.Context, desc msg.ComponentDescriptor) *msg.ComponentSourceInfo {
	key := cacheKey(desc)
	if cached, ok := m.cache.Get(key); ok {
		cached.Component = desc
		return &cached
	}

	info := m.resolve(ctx, desc)
	m.cache.Add(key, *info)
	return info
}

func (m *Mapper) resolve(ctx context.Context, desc msg.ComponentDescriptor) *msg.ComponentSourceInfo {
	info := &msg.ComponentSourceInfo{
		Component:       desc,
		PossibleSources: []msg.SourceLocation{},
		Confidence:      msg.ConfidenceLow,
	}

	seen := make(map[string]bool)
	add := func(loc msg.SourceLocation) bool {
		k := loc.Key()
		if seen[k] {
			return false
		}
		seen[k] = true
		info.PossibleSources = append(info.PossibleSources, loc)
		return true
	}

	// 1. Debug-source metadata from the locator: the high-confidence
	// primary, always first in the candidate list.
	if desc.Source != nil && desc.Source.FilePath != "" {
		loc := *desc.Source
		info.Primary = &loc
		info.Confidence = msg.ConfidenceHigh
		add(loc)
	}

	// 2. Declaration-pattern search on the component name.
	if m.searcher != nil && desc.ComponentName != "" {
		for _, hit := range m.searchDeclarations(ctx, desc.ComponentName) {
			loc := msg.SourceLocation{FilePath: hit.File, Line: hit.Line}
			if !add(loc) {
				continue
			}
			if info.Primary == nil {
				primary := loc
				info.Primary = &primary
				info.Confidence = msg.ConfidenceMedium
			}
		}
	}

	// 3. Naming-convention probe, only when everything else came up dry.
	if len(info.PossibleSources) == 0 && m.finder != nil && desc.ComponentName != "" {
		for _, file := range m.probeConventions(ctx, desc.ComponentName) {
			loc := msg.SourceLocation{FilePath: file}
			if !add(loc) {
				continue
			}
			if info.Primary == nil {
				primary := loc
				info.Primary = &primary
				info.Confidence = msg.ConfidenceLow
			}
		}
	}

	return info
}

// declarationPatterns are the regexp forms a component declaration
// usually takes in JS/TS source.
func declarationPatterns(name string) []string {
	q := regexp.QuoteMeta(name)
	return []string{
		`export\s+default\s+function\s+` + q + `\b`,
		`export\s+function\s+` + q + `\b`,
		`export\s+const\s+` + q + `\b`,
		`export\s+class\s+` + q + `\b`,
		`function\s+` + q + `\s*\(`,
		`const\s+` + q + `\s*=`,
		`class\s+` + q + `\b`,
	}
}

func (m *Mapper) searchDeclarations(ctx context.Context, name string) []Match {
	var hits []Match
	for _, pattern := range declarationPatterns(name) {
		found, err := m.searcher.Search(ctx, pattern, sourceGlobs)
		if err != nil {
			m.logger.Debug("sourcemap: search failed",
				"component", name, "pattern", pattern, "error", err)
			continue
		}
		hits = append(hits, found...)
	}
	return hits
}

func (m *Mapper) probeConventions(ctx context.Context, name string) []string {
	var files []string
	for _, variant := range NameVariants(name) {
		for _, dir := range probeDirs {
			for _, ext := range probeExts {
				glob := dir + "/" + variant + ext
				found, err := m.finder.FindFiles(ctx, glob)
				if err != nil {
					m.logger.Debug("sourcemap: find failed", "glob", glob, "error", err)
					continue
				}
				files = append(files, found...)
			}
		}
	}
	return files
}

// NameVariants derives the naming-convention forms of a component name:
// the name itself, kebab-case, and snake_case.
func NameVariants(name string) []string {
	if name == "" {
		return nil
	}
	variants := []string{name}
	kebab := caseSplit(name, "-")
	if kebab != name && kebab != "" {
		variants = append(variants, kebab)
	}
	if snake := caseSplit(name, "_"); snake != name && snake != kebab && snake != "" {
		variants = append(variants, snake)
	}
	return variants
}

// caseSplit lowers a PascalCase/camelCase name, joining the humps with sep.
func caseSplit(name, sep string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteString(sep)
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func cacheKey(desc msg.ComponentDescriptor) string {
	if desc.Source != nil {
		return fmt.Sprintf("%s|%s", desc.ComponentName, desc.Source.Key())
	}
	return desc.ComponentName
}
