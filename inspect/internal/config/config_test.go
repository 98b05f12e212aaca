package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autoview.yaml")
	data := `
browser:
  remote: ws://127.0.0.1:9222
  stealth: true
  frame_selector: "#preview"
project:
  root: /work/app
  editor: cursor
inspect:
  ready_timeout: 3s
http:
  addr: ":9000"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Browser.Remote != "ws://127.0.0.1:9222" {
		t.Fatalf("remote: got %q", cfg.Browser.Remote)
	}
	if !cfg.Browser.Stealth {
		t.Fatal("stealth: got false")
	}
	if cfg.Browser.FrameSelector != "#preview" {
		t.Fatalf("frame_selector: got %q", cfg.Browser.FrameSelector)
	}
	if cfg.Project.Root != "/work/app" {
		t.Fatalf("root: got %q", cfg.Project.Root)
	}
	if cfg.Project.Editor != "cursor" {
		t.Fatalf("editor: got %q", cfg.Project.Editor)
	}
	if cfg.Inspect.ReadyTimeout != 3*time.Second {
		t.Fatalf("ready_timeout: got %v", cfg.Inspect.ReadyTimeout)
	}
	if cfg.HTTP.Addr != ":9000" {
		t.Fatalf("addr: got %q", cfg.HTTP.Addr)
	}
}

func TestLoadFile_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autoview.yaml")
	if err := os.WriteFile(path, []byte("project:\n  root: /work/app\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Browser.FrameSelector != "iframe" {
		t.Fatalf("frame_selector default: got %q", cfg.Browser.FrameSelector)
	}
	if cfg.Project.Editor != "code" {
		t.Fatalf("editor default: got %q", cfg.Project.Editor)
	}
	if cfg.Project.IndexPath != filepath.Join("/work/app", ".autoview", "index.db") {
		t.Fatalf("index_path default: got %q", cfg.Project.IndexPath)
	}
	if cfg.Inspect.ReadyTimeout != 2*time.Second {
		t.Fatalf("ready_timeout default: got %v", cfg.Inspect.ReadyTimeout)
	}
	if cfg.Inspect.SettleDelay != 500*time.Millisecond {
		t.Fatalf("settle_delay default: got %v", cfg.Inspect.SettleDelay)
	}
	if cfg.HTTP.Addr != ":8093" {
		t.Fatalf("addr default: got %q", cfg.HTTP.Addr)
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("AUTOVIEW_PROJECT_ROOT", "/env/app")
	t.Setenv("AUTOVIEW_HTTP_ADDR", ":7070")

	dir := t.TempDir()
	path := filepath.Join(dir, "autoview.yaml")
	if err := os.WriteFile(path, []byte("project:\n  root: /file/app\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Project.Root != "/env/app" {
		t.Fatalf("env override root: got %q", cfg.Project.Root)
	}
	if cfg.HTTP.Addr != ":7070" {
		t.Fatalf("env override addr: got %q", cfg.HTTP.Addr)
	}
}

func TestLoadFile_BadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autoview.yaml")
	if err := os.WriteFile(path, []byte("browser: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}
