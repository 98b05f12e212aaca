package inspect

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/hazyhaar/autoview/inspect/internal/framework"
	"github.com/hazyhaar/autoview/inspect/msg"
)

// fallbackTagName marks results synthesized without any access to the
// target's DOM: the whole surface is treated as one opaque node.
const fallbackTagName = "iframe-fallback"

const (
	fallbackFetchTimeout = 3 * time.Second
	fallbackFetchLimit   = 2 << 20 // static HTML beyond 2MB is cut off
)

// enterFallback switches a session to degraded whole-surface inspection
// after every injection strategy failed. The click catcher is armed only
// here: stacked over the frame it would swallow the pointer events the
// probe needs, so the direct path must never see it.
func (c *Controller) enterFallback(ctx context.Context, s *Session) {
	s.enterFallback()

	c.surface.ArmFallbackClick(func() { c.handleFallbackClick() })
	if err := c.surface.SetPointerCursor(ctx, true); err != nil {
		c.logger.Debug("inspect: fallback cursor", "error", err)
	}

	fw := msg.FrameworkInfo{
		Type:    msg.FrameworkUnknown,
		Version: "direct inspection unavailable (cross-origin)",
	}
	if html := c.fetchStaticHTML(ctx); html != "" {
		if detected := framework.DetectStatic(html); detected.Type != msg.FrameworkUnknown {
			fw.Type = detected.Type
			fw.Version = "detected from static HTML; " + fw.Version
		}
	}
	s.setFramework(fw)

	c.logger.Info("inspect: fallback inspector active",
		"session", s.ID, "framework", fw.Type)
}

// handleFallbackClick synthesizes a result describing the surface itself.
// A click always yields a DOMNodeInfo, even here.
func (c *Controller) handleFallbackClick() {
	c.mu.Lock()
	s := c.session
	onResult := c.onResult
	c.mu.Unlock()
	if s == nil || !s.IsInspecting() || !s.Fallback() {
		return
	}

	var rect msg.Rect
	if x, y, w, h, err := c.surface.Bounds(c.ctx); err == nil {
		rect = msg.Rect{X: x, Y: y, Width: w, Height: h,
			Top: y, Left: x, Right: x + w, Bottom: y + h}
	}

	result := Result{
		SessionID: s.ID,
		SurfaceID: s.SurfaceID,
		DOMNode: msg.DOMNodeInfo{
			TagName:     fallbackTagName,
			CSSSelector: fallbackTagName,
			XPath:       "/" + fallbackTagName,
			Rect:        rect,
		},
		Framework: s.Framework(),
		Fallback:  true,
		At:        time.Now(),
	}
	s.setLastResult(&result)

	if onResult != nil {
		onResult(result)
	}
}

// fetchStaticHTML pulls the target URL over plain HTTP. Cross-origin
// script restrictions do not apply to the host process, so this often
// works even when injection cannot. Any failure yields "".
func (c *Controller) fetchStaticHTML(ctx context.Context) string {
	url := c.surface.URL()
	if url == "" {
		return ""
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fallbackFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.logger.Debug("inspect: fallback fetch", "url", url, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, fallbackFetchLimit))
	if err != nil {
		return ""
	}
	return string(data)
}
