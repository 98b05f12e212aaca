package inspect

import (
	"context"

	"github.com/hazyhaar/autoview/inspect/internal/inject"
)

// boundInjector pairs the shared strategy selector with one target so the
// controller never handles injection targets directly.
type boundInjector struct {
	sel    *inject.Selector
	target inject.Target
}

// BindInjector binds a strategy selector to a concrete injection target.
// The production target is the Rod-backed surface; tests bind fakes.
func BindInjector(sel *inject.Selector, target inject.Target) Injector {
	return &boundInjector{sel: sel, target: target}
}

func (b *boundInjector) Inject(ctx context.Context) (string, error) {
	return b.sel.Inject(ctx, b.target)
}

func (b *boundInjector) Forget() {
	b.sel.Forget(b.target.ID())
}
