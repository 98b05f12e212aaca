// Package inject gets the inspection probe running inside the preview's
// target context. Cross-origin restrictions make this inherently
// best-effort: an ordered ladder of strategies is attempted until one
// succeeds, and every failure is caught and logged, never surfaced to the
// caller mid-ladder.
package inject

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
)

//go:embed probe.js
var probeJS string

// ProbeJS returns the probe source. Exposed for the self-inject handshake
// and for tests.
func ProbeJS() string { return probeJS }

// ErrNoStrategy is returned when every injection strategy has failed. The
// controller reacts by activating the fallback inspector.
var ErrNoStrategy = errors.New("inject: all strategies failed")

// Target is the minimal capability surface a strategy needs. EvalTarget
// evaluates in the embedded page's own context (the privileged CDP path);
// EvalHost evaluates in the hosting document, where FrameExpr() is a JS
// expression resolving to the preview iframe element.
type Target interface {
	ID() string
	EvalTarget(ctx context.Context, js string) error
	EvalHost(ctx context.Context, js string) error
	FrameExpr() string
}

// Strategy is one way of getting the probe into the target context.
type Strategy interface {
	Name() string
	Inject(ctx context.Context, t Target, source string) error
}

// Selector attempts strategies in order until one succeeds. It owns the
// per-target registry, so repeated injection of the same target (e.g.
// after the controller re-arms on navigation) is a no-op at this layer;
// the probe's own in-page marker is the second line of defence.
type Selector struct {
	strategies []Strategy
	registry   *Registry
	logger     *slog.Logger
}

// NewSelector builds a selector with the default strategy ladder.
func NewSelector(logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		strategies: []Strategy{
			cdpStrategy{},
			scriptTagStrategy{},
			globalEvalStrategy{},
			postMessageStrategy{},
		},
		registry: NewRegistry(),
		logger:   logger,
	}
}

// NewSelectorWith builds a selector over an explicit strategy list. Used by
// tests and by embedders that need a restricted ladder.
func NewSelectorWith(logger *slog.Logger, strategies ...Strategy) *Selector {
	s := NewSelector(logger)
	s.strategies = strategies
	return s
}

// Registry exposes the selector's injection registry.
func (s *Selector) Registry() *Registry { return s.registry }

// Inject runs the ladder. Returns the name of the winning strategy, or
// ErrNoStrategy once the ladder is exhausted. A target already recorded in
// the registry short-circuits with its original strategy name.
func (s *Selector) Inject(ctx context.Context, t Target) (string, error) {
	if name, ok := s.registry.Injected(t.ID()); ok {
		s.logger.Debug("inject: already injected", "target", t.ID(), "strategy", name)
		return name, nil
	}

	for _, strat := range s.strategies {
		err := strat.Inject(ctx, t, probeJS)
		if err == nil {
			s.registry.Mark(t.ID(), strat.Name())
			s.logger.Info("inject: probe injected",
				"target", t.ID(), "strategy", strat.Name())
			return strat.Name(), nil
		}
		s.logger.Warn("inject: strategy failed",
			"target", t.ID(), "strategy", strat.Name(), "error", err)
	}

	return "", fmt.Errorf("%w: target %s", ErrNoStrategy, t.ID())
}

// Forget drops a target from the registry, forcing a fresh ladder run on
// the next Inject. Called when the target navigates.
func (s *Selector) Forget(targetID string) {
	s.registry.Forget(targetID)
}
