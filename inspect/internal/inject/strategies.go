package inject

import (
	"context"
	"encoding/json"
	"fmt"
)

// cdpStrategy evaluates the probe directly in the target frame's execution
// context over the DevTools protocol. The most reliable path: it works
// across origins because CDP sits outside the page's same-origin world.
type cdpStrategy struct{}

func (cdpStrategy) Name() string { return "cdp" }

func (cdpStrategy) Inject(ctx context.Context, t Target, source string) error {
	if err := t.EvalTarget(ctx, source); err != nil {
		return fmt.Errorf("cdp eval: %w", err)
	}
	return nil
}

// scriptTagStrategy creates a <script> element inside the target document
// from the hosting document. Same-origin only: touching contentDocument of
// a cross-origin frame throws.
type scriptTagStrategy struct{}

func (scriptTagStrategy) Name() string { return "script-tag" }

func (scriptTagStrategy) Inject(ctx context.Context, t Target, source string) error {
	quoted, err := json.Marshal(source)
	if err != nil {
		return fmt.Errorf("quote source: %w", err)
	}
	js := fmt.Sprintf(`(() => {
		const frame = %s;
		if (!frame) throw new Error("no preview frame");
		const doc = frame.contentDocument;
		if (!doc) throw new Error("contentDocument inaccessible");
		const script = doc.createElement("script");
		script.textContent = %s;
		(doc.head || doc.documentElement).appendChild(script);
		return true;
	})()`, t.FrameExpr(), quoted)
	if err := t.EvalHost(ctx, js); err != nil {
		return fmt.Errorf("script tag: %w", err)
	}
	return nil
}

// globalEvalStrategy evaluates the probe against the target's global scope
// through contentWindow. A narrower same-origin fallback for documents
// that reject script-element insertion (e.g. CSP without unsafe-inline
// still often allows eval from the parent realm, and some sandboxed
// frames expose window but not document mutation).
type globalEvalStrategy struct{}

func (globalEvalStrategy) Name() string { return "global-eval" }

func (globalEvalStrategy) Inject(ctx context.Context, t Target, source string) error {
	quoted, err := json.Marshal(source)
	if err != nil {
		return fmt.Errorf("quote source: %w", err)
	}
	js := fmt.Sprintf(`(() => {
		const frame = %s;
		if (!frame) throw new Error("no preview frame");
		const win = frame.contentWindow;
		if (!win) throw new Error("contentWindow inaccessible");
		win.eval(%s);
		return true;
	})()`, t.FrameExpr(), quoted)
	if err := t.EvalHost(ctx, js); err != nil {
		return fmt.Errorf("global eval: %w", err)
	}
	return nil
}

// postMessageStrategy asks the target to inject its own probe. Only works
// when the embedded app ships the opt-in listener; everyone else ignores
// the message, which this strategy cannot observe — it reports success
// whenever the postMessage itself went through, so it must stay last in
// the ladder.
type postMessageStrategy struct{}

func (postMessageStrategy) Name() string { return "post-message" }

func (postMessageStrategy) Inject(ctx context.Context, t Target, _ string) error {
	js := fmt.Sprintf(`(() => {
		const frame = %s;
		if (!frame || !frame.contentWindow) throw new Error("no preview frame");
		frame.contentWindow.postMessage({ type: "autoview:self-inject" }, "*");
		return true;
	})()`, t.FrameExpr())
	if err := t.EvalHost(ctx, js); err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	return nil
}
