package surface

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

var targetBlank = proto.TargetCreateTarget{URL: ""}

// Binding names registered in the hosting document. The probe prefers the
// host binding and falls back to parent.postMessage; a relay listener in
// the hosting document forwards those into the same binding.
const (
	hostBinding     = "__autoview_host"
	fallbackBinding = "__autoview_fallback_click"
)

const navTimeout = 30 * time.Second

// Surface is one preview page: a hosting document with the application
// under inspection embedded in an iframe. It implements both the
// controller's PreviewSurface and the injector's Target.
type Surface struct {
	id        string
	targetURL string
	frameSel  string
	page      *rod.Page
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	msgCh chan []byte

	mu         sync.Mutex
	onNavigate func(url string)
	onFallback func()
}

// Options for opening a surface.
type Options struct {
	// ID identifies the surface in the injection registry and logs.
	ID string
	// HostURL is the hosting document to open. Empty opens about:blank
	// and synthesizes a host document around the target iframe.
	HostURL string
	// TargetURL is the application under inspection, loaded into the
	// preview iframe when HostURL is empty.
	TargetURL string
	// FrameSelector locates the preview iframe in the hosting document.
	// Default: "iframe".
	FrameSelector string
}

// Open creates a surface page and wires up the host bindings.
func Open(ctx context.Context, mgr *Manager, opts Options) (*Surface, error) {
	if opts.FrameSelector == "" {
		opts.FrameSelector = "iframe"
	}

	page, err := mgr.page()
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &Surface{
		id:        opts.ID,
		targetURL: opts.TargetURL,
		frameSel:  opts.FrameSelector,
		page:      page,
		logger:    mgr.cfg.Logger,
		ctx:       sctx,
		cancel:    cancel,
		msgCh:     make(chan []byte, 256),
	}

	if err := s.open(opts); err != nil {
		cancel()
		page.Close()
		return nil, err
	}
	return s, nil
}

func (s *Surface) open(opts Options) error {
	// Bindings must exist before any page script runs.
	for _, name := range []string{hostBinding, fallbackBinding} {
		if err := (proto.RuntimeAddBinding{Name: name}).Call(s.page); err != nil {
			s.logger.Warn("surface: add binding", "name", name, "error", err)
		}
	}
	go s.listenBindings()
	go s.listenNavigation()

	navCtx, cancelNav := context.WithTimeout(s.ctx, navTimeout)
	defer cancelNav()

	if opts.HostURL != "" {
		if err := s.page.Context(navCtx).Navigate(opts.HostURL); err != nil {
			return fmt.Errorf("surface: navigate host %s: %w", opts.HostURL, err)
		}
	} else {
		// Synthesize a minimal hosting document around the target.
		if err := s.page.Context(navCtx).Navigate("about:blank"); err != nil {
			return fmt.Errorf("surface: navigate blank: %w", err)
		}
		srcJSON, _ := json.Marshal(opts.TargetURL)
		host := fmt.Sprintf(`() => {
			document.body.style.margin = "0";
			const frame = document.createElement("iframe");
			frame.src = %s;
			frame.style.cssText = "border:0;width:100vw;height:100vh;";
			document.body.appendChild(frame);
		}`, srcJSON)
		if _, err := s.page.Context(navCtx).Eval(host); err != nil {
			return fmt.Errorf("surface: build host document: %w", err)
		}
	}

	if err := s.page.Context(navCtx).WaitLoad(); err != nil {
		s.logger.Warn("surface: wait load timeout", "url", opts.TargetURL, "error", err)
	}

	// Relay the probe's parent.postMessage fallback into the host binding.
	relay := fmt.Sprintf(`() => {
		if (window.__autoviewRelay) return;
		window.__autoviewRelay = true;
		window.addEventListener("message", (ev) => {
			const d = ev.data;
			if (d && typeof d.type === "string" && d.type.indexOf("autoview:") === 0) {
				try { window.%s(JSON.stringify(d)); } catch (e) {}
			}
		});
	}`, hostBinding)
	if _, err := s.page.Eval(relay); err != nil {
		s.logger.Warn("surface: install relay", "error", err)
	}
	return nil
}

func (s *Surface) listenBindings() {
	s.page.Context(s.ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		switch e.Name {
		case hostBinding:
			select {
			case s.msgCh <- []byte(e.Payload):
			default:
				s.logger.Warn("surface: message buffer full, dropping", "surface", s.id)
			}
		case fallbackBinding:
			s.mu.Lock()
			fn := s.onFallback
			s.mu.Unlock()
			if fn != nil {
				fn()
			}
		}
	})()
}

func (s *Surface) listenNavigation() {
	s.page.Context(s.ctx).EachEvent(func(e *proto.PageFrameNavigated) {
		if e.Frame == nil || e.Frame.URL == "" || e.Frame.URL == "about:blank" {
			return
		}
		s.mu.Lock()
		fn := s.onNavigate
		s.mu.Unlock()
		if fn != nil {
			fn(e.Frame.URL)
		}
	})()
}

// ID implements inject.Target.
func (s *Surface) ID() string { return s.id }

// URL returns the target application's URL.
func (s *Surface) URL() string { return s.targetURL }

// FrameExpr implements inject.Target: a JS expression resolving to the
// preview iframe in the hosting document.
func (s *Surface) FrameExpr() string {
	sel, _ := json.Marshal(s.frameSel)
	return fmt.Sprintf("document.querySelector(%s)", sel)
}

// EvalTarget evaluates JS in the embedded frame's own context via CDP.
func (s *Surface) EvalTarget(ctx context.Context, js string) error {
	frame, err := s.targetFrame(ctx)
	if err != nil {
		return err
	}
	if _, err := frame.Context(ctx).Eval(wrapExpr(js)); err != nil {
		return fmt.Errorf("surface: eval target: %w", err)
	}
	return nil
}

// EvalHost evaluates JS in the hosting document.
func (s *Surface) EvalHost(ctx context.Context, js string) error {
	if _, err := s.page.Context(ctx).Eval(wrapExpr(js)); err != nil {
		return fmt.Errorf("surface: eval host: %w", err)
	}
	return nil
}

// wrapExpr turns a bare script into the nullary-function form Rod expects.
func wrapExpr(js string) string {
	return "() => {\n" + js + "\n}"
}

func (s *Surface) targetFrame(ctx context.Context) (*rod.Page, error) {
	el, err := s.page.Context(ctx).Element(s.frameSel)
	if err != nil {
		return nil, fmt.Errorf("surface: find frame %q: %w", s.frameSel, err)
	}
	frame, err := el.Frame()
	if err != nil {
		return nil, fmt.Errorf("surface: resolve frame: %w", err)
	}
	return frame, nil
}

// Messages returns the channel of raw probe payloads.
func (s *Surface) Messages() <-chan []byte { return s.msgCh }

// PostToTarget delivers a wire message into the target via postMessage,
// which crosses origins where direct evaluation cannot.
func (s *Surface) PostToTarget(ctx context.Context, data []byte) error {
	js := fmt.Sprintf(`const frame = %s;
if (!frame || !frame.contentWindow) throw new Error("no preview frame");
frame.contentWindow.postMessage(%s, "*");`, s.FrameExpr(), string(data))
	return s.EvalHost(ctx, js)
}

// OnNavigate registers the navigation callback. One callback per surface;
// the controller owns it.
func (s *Surface) OnNavigate(fn func(url string)) {
	s.mu.Lock()
	s.onNavigate = fn
	s.mu.Unlock()
}

// Bounds returns the preview iframe's bounding box in host coordinates.
func (s *Surface) Bounds(ctx context.Context) (x, y, w, h float64, err error) {
	js := fmt.Sprintf(`() => {
		const frame = %s;
		if (!frame) return null;
		const r = frame.getBoundingClientRect();
		return { x: r.x, y: r.y, w: r.width, h: r.height };
	}`, s.FrameExpr())
	res, err := s.page.Context(ctx).Eval(js)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("surface: bounds: %w", err)
	}
	if res.Value.Nil() {
		return 0, 0, 0, 0, fmt.Errorf("surface: no preview frame %q", s.frameSel)
	}
	v := res.Value
	return v.Get("x").Num(), v.Get("y").Num(), v.Get("w").Num(), v.Get("h").Num(), nil
}

// SetOverlay renders the host-side highlight overlay at the given
// host-local rect. Last write wins; there is exactly one overlay element.
func (s *Surface) SetOverlay(ctx context.Context, x, y, w, h float64) error {
	js := fmt.Sprintf(`let o = document.getElementById("__autoview_host_overlay");
if (!o) {
	o = document.createElement("div");
	o.id = "__autoview_host_overlay";
	o.style.cssText = "position:fixed;pointer-events:none;z-index:2147483647;" +
		"border:2px solid #4f8ef7;background:rgba(79,142,247,0.12);";
	document.documentElement.appendChild(o);
}
o.style.left = "%.2fpx"; o.style.top = "%.2fpx";
o.style.width = "%.2fpx"; o.style.height = "%.2fpx";
o.style.display = "block";`, x, y, w, h)
	return s.EvalHost(ctx, js)
}

// HideOverlay hides the host-side overlay if present.
func (s *Surface) HideOverlay(ctx context.Context) error {
	return s.EvalHost(ctx, `const o = document.getElementById("__autoview_host_overlay");
if (o) o.style.display = "none";`)
}

// ArmFallbackClick covers the preview iframe with a transparent click
// catcher in the hosting document. Needed in fallback mode: clicks over a
// cross-origin iframe never reach host listeners, but they do reach a
// host-document element stacked above the iframe.
func (s *Surface) ArmFallbackClick(fn func()) {
	s.mu.Lock()
	s.onFallback = fn
	s.mu.Unlock()

	js := fmt.Sprintf(`let c = document.getElementById("__autoview_click_catcher");
if (!c) {
	c = document.createElement("div");
	c.id = "__autoview_click_catcher";
	c.style.cssText = "position:fixed;z-index:2147483645;background:transparent;cursor:pointer;";
	c.addEventListener("click", () => { try { window.%s(""); } catch (e) {} });
	document.documentElement.appendChild(c);
}
const frame = %s;
if (frame) {
	const r = frame.getBoundingClientRect();
	c.style.left = r.x + "px"; c.style.top = r.y + "px";
	c.style.width = r.width + "px"; c.style.height = r.height + "px";
}
c.style.display = "block";`, fallbackBinding, s.FrameExpr())
	if err := s.EvalHost(s.ctx, js); err != nil {
		s.logger.Warn("surface: arm fallback catcher", "error", err)
	}
}

// DisarmFallbackClick removes the click catcher.
func (s *Surface) DisarmFallbackClick() {
	s.mu.Lock()
	s.onFallback = nil
	s.mu.Unlock()

	if err := s.EvalHost(s.ctx, `const c = document.getElementById("__autoview_click_catcher");
if (c) c.style.display = "none";`); err != nil {
		s.logger.Warn("surface: disarm fallback catcher", "error", err)
	}
}

// SetPointerCursor toggles pointer-cursor styling on the preview frame.
func (s *Surface) SetPointerCursor(ctx context.Context, on bool) error {
	cursor := "default"
	if on {
		cursor = "pointer"
	}
	return s.EvalHost(ctx, fmt.Sprintf(`const frame = %s;
if (frame) frame.style.cursor = %q;`, s.FrameExpr(), cursor))
}

// Close tears the surface down.
func (s *Surface) Close() error {
	s.cancel()
	return s.page.Close()
}
