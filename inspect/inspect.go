// Package inspect implements the host side of cross-frame element
// inspection: it owns the session, gets the probe injected into the
// preview, speaks the wire protocol, renders the host-side highlight
// overlay, and hands clicked components to the source mapper.
//
// The host and the preview run in separate execution contexts with no
// shared memory. Everything crossing the boundary is an asynchronous,
// structured-clone message; ordering across the two contexts is not
// guaranteed. The probe's ready acknowledgement is the primary
// synchronisation point, with the probe-initiated state request kept as a
// secondary resync for the case where the probe attached late.
package inspect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/autoview/idgen"
	"github.com/hazyhaar/autoview/inspect/internal/framework"
	"github.com/hazyhaar/autoview/inspect/internal/inject"
	"github.com/hazyhaar/autoview/inspect/msg"
	"github.com/hazyhaar/autoview/sourcemap"
)

// PreviewSurface is the controller's view of one embedded preview. The
// production implementation drives a browser page over CDP; tests use
// fakes.
type PreviewSurface interface {
	ID() string
	URL() string

	// Messages yields raw probe payloads. Closed surfaces close the
	// channel.
	Messages() <-chan []byte
	// PostToTarget delivers an encoded wire message into the target
	// context. Dropped silently by targets with no probe listening.
	PostToTarget(ctx context.Context, data []byte) error
	// OnNavigate registers the (re)load listener.
	OnNavigate(fn func(url string))

	// Bounds reports the preview element's box in host coordinates.
	Bounds(ctx context.Context) (x, y, w, h float64, err error)
	SetOverlay(ctx context.Context, x, y, w, h float64) error
	HideOverlay(ctx context.Context) error

	ArmFallbackClick(fn func())
	DisarmFallbackClick()
	SetPointerCursor(ctx context.Context, on bool) error

	Close() error
}

// Injector gets the probe running inside the surface's target context.
type Injector interface {
	Inject(ctx context.Context) (strategy string, err error)
	// Forget invalidates injection state after the target navigates.
	Forget()
}

// Result is the payload of one completed click-to-result cycle. DOMNode is
// always populated, even for degraded fallback results; Component and
// Source are nil on introspection misses.
type Result struct {
	SessionID string                   `json:"sessionId"`
	SurfaceID string                   `json:"surfaceId"`
	DOMNode   msg.DOMNodeInfo          `json:"domNode"`
	Framework msg.FrameworkInfo        `json:"framework"`
	Component *msg.ComponentDescriptor `json:"component,omitempty"`
	Source    *msg.ComponentSourceInfo `json:"source,omitempty"`
	Fallback  bool                     `json:"fallback,omitempty"`
	At        time.Time                `json:"at"`
}

// Config assembles a Controller.
type Config struct {
	Surface  PreviewSurface
	Injector Injector
	// Mapper resolves component descriptors to source candidates. Nil
	// disables source mapping; clicks still yield DOM and framework
	// facts.
	Mapper *sourcemap.Mapper
	// ReadyTimeout bounds the wait for the probe's ready ack before the
	// controller falls back to the optimistic settle delay.
	ReadyTimeout time.Duration
	// SettleDelay is the legacy fixed delay used only when no ack
	// arrived in time.
	SettleDelay time.Duration
	Logger      *slog.Logger
}

func (c *Config) defaults() {
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = 2 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 500 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

var newSessionID = idgen.Prefixed("ins_", idgen.Default)

// Controller mediates one preview surface. At most one active session.
type Controller struct {
	surface  PreviewSurface
	injector Injector
	mapper   *sourcemap.Mapper
	logger   *slog.Logger

	readyTimeout time.Duration
	settleDelay  time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	session  *Session
	onResult func(Result)
	readyCh  chan msg.FrameworkInfo

	attached bool
}

// NewController creates a controller bound to one surface. Call Attach
// before Start.
func NewController(cfg Config) *Controller {
	cfg.defaults()
	return &Controller{
		surface:      cfg.Surface,
		injector:     cfg.Injector,
		mapper:       cfg.Mapper,
		logger:       cfg.Logger,
		readyTimeout: cfg.ReadyTimeout,
		settleDelay:  cfg.SettleDelay,
	}
}

// Attach starts the message pump and registers the navigation listener.
// On (re)load with an active session, injection re-runs idempotently and
// the session is re-armed.
func (c *Controller) Attach(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attached {
		return
	}
	c.attached = true
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.surface.OnNavigate(c.handleNavigate)
	go c.pump()
}

// Detach stops the message pump. Any active session is stopped first.
func (c *Controller) Detach() {
	c.Stop(context.Background())
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.attached = false
}

// Start begins an inspection session. If one is already active it is
// returned unchanged — one session per surface. The returned session is
// live immediately in the optimistic sense; the probe handshake completes
// asynchronously.
func (c *Controller) Start(ctx context.Context, onResult func(Result)) (*Session, error) {
	c.mu.Lock()
	if !c.attached {
		c.mu.Unlock()
		return nil, fmt.Errorf("inspect: controller not attached")
	}
	if c.session != nil {
		s := c.session
		c.mu.Unlock()
		return s, nil
	}

	s := newSession(newSessionID(), c.surface.ID())
	c.session = s
	c.onResult = onResult
	c.readyCh = make(chan msg.FrameworkInfo, 1)
	c.mu.Unlock()

	go c.arm(ctx, s)

	c.logger.Info("inspect: session started",
		"session", s.ID, "surface", c.surface.ID())
	return s, nil
}

// arm runs injection and the readiness handshake for a session.
func (c *Controller) arm(ctx context.Context, s *Session) {
	strategy, err := c.injector.Inject(ctx)
	if err != nil {
		if errors.Is(err, inject.ErrNoStrategy) {
			// Every strategy failed: degrade to whole-surface inspection.
			c.logger.Warn("inspect: injection exhausted, entering fallback",
				"session", s.ID, "error", err)
			c.enterFallback(ctx, s)
		} else {
			// Transient failure (surface closing, context cancelled): the
			// session stays optimistic and re-arms on the next navigation.
			c.logger.Warn("inspect: injection failed",
				"session", s.ID, "error", err)
		}
		return
	}
	c.logger.Debug("inspect: probe injected", "session", s.ID, "strategy", strategy)

	// A session that had degraded can recover after a navigation lands on
	// an injectable document.
	if s.Fallback() {
		s.exitFallback()
		c.surface.DisarmFallbackClick()
		if err := c.surface.SetPointerCursor(ctx, false); err != nil {
			c.logger.Debug("inspect: reset cursor", "error", err)
		}
	}

	// Primary synchronisation: wait for the probe's ready ack. The fixed
	// settle delay survives only as the degraded path for probes injected
	// via fire-and-forget strategies (self-inject) that may never ack.
	select {
	case fw := <-c.readyCh:
		s.setFramework(framework.Normalize(fw))
	case <-time.After(c.readyTimeout):
		c.logger.Warn("inspect: no ready ack, proceeding after settle delay",
			"session", s.ID)
		select {
		case <-time.After(c.settleDelay):
		case <-ctx.Done():
			return
		}
	case <-ctx.Done():
		return
	}

	c.sendStart(ctx, s)
}

func (c *Controller) sendStart(ctx context.Context, s *Session) {
	if !s.IsInspecting() {
		return
	}
	data, err := msg.Encode(msg.StartInspection{})
	if err != nil {
		c.logger.Error("inspect: encode start", "error", err)
		return
	}
	if err := c.surface.PostToTarget(ctx, data); err != nil {
		c.logger.Warn("inspect: post start", "session", s.ID, "error", err)
	}
}

// Stop ends the active session. Safe and idempotent with no session: no
// message is sent and no error occurs.
func (c *Controller) Stop(ctx context.Context) {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.onResult = nil
	c.readyCh = nil
	c.mu.Unlock()

	if s == nil {
		return
	}

	s.stop()

	if data, err := msg.Encode(msg.StopInspection{}); err == nil {
		// Dropped silently when no probe is listening.
		if err := c.surface.PostToTarget(ctx, data); err != nil {
			c.logger.Debug("inspect: post stop", "session", s.ID, "error", err)
		}
	}

	c.surface.DisarmFallbackClick()
	if err := c.surface.SetPointerCursor(ctx, false); err != nil {
		c.logger.Debug("inspect: reset cursor", "error", err)
	}
	if err := c.surface.HideOverlay(ctx); err != nil {
		c.logger.Debug("inspect: hide overlay", "error", err)
	}

	c.logger.Info("inspect: session stopped", "session", s.ID)
}

// Session returns the active session, or nil.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// handleNavigate re-arms an active session after the target (re)loads.
// The previous execution context — probe included — is gone.
func (c *Controller) handleNavigate(url string) {
	c.injector.Forget()

	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil || !s.IsInspecting() {
		return
	}

	c.logger.Info("inspect: target navigated, re-injecting",
		"session", s.ID, "url", url)
	go c.arm(c.ctx, s)
}

// pump consumes probe payloads for the lifetime of the attachment.
func (c *Controller) pump() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case data, ok := <-c.surface.Messages():
			if !ok {
				return
			}
			c.handleMessage(data)
		}
	}
}

func (c *Controller) handleMessage(data []byte) {
	m, err := msg.Decode(data)
	if err != nil {
		// Foreign postMessage traffic or garbage: drop.
		c.logger.Debug("inspect: dropping message", "error", err)
		return
	}

	c.mu.Lock()
	s := c.session
	onResult := c.onResult
	readyCh := c.readyCh
	c.mu.Unlock()

	switch v := m.(type) {
	case msg.InspectorReady:
		fw := framework.Normalize(v.Framework)
		if s != nil {
			s.setFramework(fw)
		}
		if readyCh != nil {
			select {
			case readyCh <- fw:
			default:
			}
		}

	case msg.RequestState:
		// The probe attached after our original start message; resync.
		if s != nil && s.IsInspecting() {
			c.sendStart(c.ctx, s)
		}

	case msg.InspectHover:
		if s != nil && s.IsInspecting() {
			c.renderOverlay(s, v.Rect)
		}

	case msg.InspectLeave:
		if err := c.surface.HideOverlay(c.ctx); err != nil {
			c.logger.Debug("inspect: hide overlay", "error", err)
		}
		if s != nil {
			s.setHighlight(nil)
		}

	case msg.InspectClick:
		if s != nil && s.IsInspecting() {
			c.handleClick(s, v, onResult)
		}
	}
}

// renderOverlay translates a target-local rect into host coordinates and
// draws the overlay. Geometry failures only hide the overlay; they never
// abort the session.
func (c *Controller) renderOverlay(s *Session, rect msg.Rect) {
	bx, by, _, _, err := c.surface.Bounds(c.ctx)
	if err != nil {
		c.logger.Debug("inspect: overlay geometry", "error", err)
		_ = c.surface.HideOverlay(c.ctx)
		return
	}
	host := rect.Translate(bx, by)
	if err := c.surface.SetOverlay(c.ctx, host.X, host.Y, host.Width, host.Height); err != nil {
		c.logger.Debug("inspect: overlay render", "error", err)
		_ = c.surface.HideOverlay(c.ctx)
		return
	}
	s.setHighlight(&host)
}

func (c *Controller) handleClick(s *Session, click msg.InspectClick, onResult func(Result)) {
	fw := framework.Normalize(click.Framework)
	s.setFramework(fw)

	adapter := framework.ForType(fw.Type)
	desc := adapter.Describe(click)

	var source *msg.ComponentSourceInfo
	if desc != nil && c.mapper != nil {
		source = c.mapper.Resolve(c.ctx, *desc)
	}

	result := Result{
		SessionID: s.ID,
		SurfaceID: s.SurfaceID,
		DOMNode:   click.DOMNode,
		Framework: fw,
		Component: desc,
		Source:    source,
		At:        time.Now(),
	}
	s.setLastResult(&result)

	if onResult != nil {
		onResult(result)
	}
}
