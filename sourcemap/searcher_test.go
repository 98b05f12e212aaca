package sourcemap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
}

func TestDirSearcher_FindsDeclaration(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/components/ProductCard.tsx": "import React from 'react'\n\nexport function ProductCard() {\n  return null\n}\n",
		"src/App.tsx":                    "export default function App() {}\n",
	})

	s := NewDirSearcher(root, nil)
	hits, err := s.Search(context.Background(), `export\s+function\s+ProductCard\b`, sourceGlobs)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "src/components/ProductCard.tsx", hits[0].File)
	assert.Equal(t, 3, hits[0].Line)
}

func TestDirSearcher_SkipsDependencyDirs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"node_modules/lib/Card.tsx": "export function Card() {}\n",
		"dist/Card.tsx":             "export function Card() {}\n",
		"src/Card.tsx":              "export function Card() {}\n",
	})

	s := NewDirSearcher(root, nil)
	hits, err := s.Search(context.Background(), `export\s+function\s+Card\b`, sourceGlobs)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "src/Card.tsx", hits[0].File)
}

func TestDirSearcher_ScopeGlobs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/Card.tsx": "const Card = () => null\n",
		"src/Card.css": "const Card = nonsense\n",
	})

	s := NewDirSearcher(root, nil)
	hits, err := s.Search(context.Background(), `const\s+Card`, []string{"**/*.tsx"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "src/Card.tsx", hits[0].File)
}

func TestDirSearcher_BadPattern(t *testing.T) {
	s := NewDirSearcher(t.TempDir(), nil)
	_, err := s.Search(context.Background(), `(`, nil)
	assert.Error(t, err)
}

func TestDirSearcher_MatchLimit(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	line := "export const Thing = 1\n"
	content := ""
	for i := 0; i < maxMatchesPerPattern+10; i++ {
		content += line
	}
	files["src/big.ts"] = content
	writeTree(t, root, files)

	s := NewDirSearcher(root, nil)
	hits, err := s.Search(context.Background(), `export\s+const\s+Thing`, sourceGlobs)
	require.NoError(t, err)
	assert.Len(t, hits, maxMatchesPerPattern)
}

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		rel  string
		glob string
		want bool
	}{
		{"src/components/Card.tsx", "**/*.tsx", true},
		{"Card.tsx", "**/*.tsx", true},
		{"src/Card.css", "**/*.tsx", false},
		{"src/Card.tsx", "src/Card.tsx", true},
		{"src/Card.tsx", "src/*.tsx", true},
		{"src/deep/Card.tsx", "src/*.tsx", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchGlob(tt.rel, tt.glob), "%s vs %s", tt.rel, tt.glob)
	}
}
