// Package config handles inspector configuration from YAML files and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level inspector configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Project ProjectConfig `yaml:"project"`
	Inspect InspectConfig `yaml:"inspect"`
	HTTP    HTTPConfig    `yaml:"http"`
}

// BrowserConfig controls the preview browser lifecycle.
type BrowserConfig struct {
	// Remote is the DevTools URL of an already-running browser. Empty
	// launches a headless one.
	Remote  string `yaml:"remote"`
	Stealth bool   `yaml:"stealth"`
	// HostURL is the hosting page that embeds the preview iframe. Empty
	// means the surface synthesizes a minimal host document itself.
	HostURL       string `yaml:"host_url"`
	FrameSelector string `yaml:"frame_selector"`
}

// ProjectConfig locates the source tree clicks resolve into.
type ProjectConfig struct {
	Root           string        `yaml:"root"`
	Editor         string        `yaml:"editor"`
	IndexPath      string        `yaml:"index_path"`
	RescanInterval time.Duration `yaml:"rescan_interval"`
}

// InspectConfig tunes the probe handshake.
type InspectConfig struct {
	ReadyTimeout time.Duration `yaml:"ready_timeout"`
	SettleDelay  time.Duration `yaml:"settle_delay"`
}

// HTTPConfig controls the bridge listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LoadFile reads a YAML configuration file, then layers environment
// overrides and defaults on top.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// Load builds a configuration from the environment alone. A .env file in
// the working directory is honoured when present.
func Load() *Config {
	_ = godotenv.Load()

	var cfg Config
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("AUTOVIEW_BROWSER_REMOTE"); v != "" {
		c.Browser.Remote = v
	}
	if v := os.Getenv("AUTOVIEW_HOST_URL"); v != "" {
		c.Browser.HostURL = v
	}
	if v := os.Getenv("AUTOVIEW_PROJECT_ROOT"); v != "" {
		c.Project.Root = v
	}
	if v := os.Getenv("AUTOVIEW_EDITOR"); v != "" {
		c.Project.Editor = v
	}
	if v := os.Getenv("AUTOVIEW_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
}

func (c *Config) applyDefaults() {
	if c.Browser.FrameSelector == "" {
		c.Browser.FrameSelector = "iframe"
	}
	if c.Project.Root == "" {
		c.Project.Root = "."
	}
	if c.Project.Editor == "" {
		c.Project.Editor = "code"
	}
	if c.Project.IndexPath == "" {
		c.Project.IndexPath = filepath.Join(c.Project.Root, ".autoview", "index.db")
	}
	if c.Project.RescanInterval <= 0 {
		c.Project.RescanInterval = 5 * time.Second
	}
	if c.Inspect.ReadyTimeout <= 0 {
		c.Inspect.ReadyTimeout = 2 * time.Second
	}
	if c.Inspect.SettleDelay <= 0 {
		c.Inspect.SettleDelay = 500 * time.Millisecond
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8093"
	}
}
