// Package surface binds the inspector to a real preview surface: a
// Chromium page, reached over the DevTools protocol via Rod, whose first
// iframe (or a configured one) embeds the application under inspection.
package surface

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// ManagerConfig configures the browser lifecycle.
type ManagerConfig struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local headless Chrome via launcher.
	RemoteURL string

	// Stealth applies the stealth evasions when opening pages. Preview
	// targets rarely fingerprint automation, but dev servers embedding
	// third-party widgets sometimes do.
	Stealth bool

	Logger *slog.Logger
}

func (c *ManagerConfig) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager owns the browser connection shared by all surfaces.
type Manager struct {
	cfg     ManagerConfig
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewManager creates a Manager. Call Start before opening surfaces.
func NewManager(cfg ManagerConfig) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Start launches Chrome or connects to a remote instance.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("surface: manager is closed")
	}
	if m.browser != nil {
		return nil
	}

	var wsURL string
	if m.cfg.RemoteURL != "" {
		wsURL = m.cfg.RemoteURL
	} else {
		m.lnch = launcher.New().Headless(true)
		u, err := m.lnch.Launch()
		if err != nil {
			return fmt.Errorf("surface: launch chrome: %w", err)
		}
		wsURL = u
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("surface: connect: %w", err)
	}
	m.browser = b
	m.cfg.Logger.Info("surface: browser connected", "remote", m.cfg.RemoteURL != "")
	return nil
}

// page opens a new page, honouring the stealth setting.
func (m *Manager) page() (*rod.Page, error) {
	m.mu.Lock()
	b := m.browser
	st := m.cfg.Stealth
	m.mu.Unlock()

	if b == nil {
		return nil, fmt.Errorf("surface: manager not started")
	}
	if st {
		return stealth.Page(b)
	}
	return b.Page(targetBlank)
}

// Close shuts the browser down.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			m.cfg.Logger.Warn("surface: browser close", "error", err)
		}
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
	}
}
