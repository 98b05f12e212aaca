package inject

import "sync"

// Registry records which targets already carry a probe and via which
// strategy. It replaces the older pattern of mutating a marker flag on the
// foreign global object as the primary idempotence mechanism: the host
// cannot always read the foreign global back (cross-origin), but it can
// always consult its own registry.
type Registry struct {
	mu       sync.Mutex
	injected map[string]string // target ID → strategy name
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{injected: make(map[string]string)}
}

// Injected reports whether the target has a recorded probe, and via which
// strategy.
func (r *Registry) Injected(targetID string) (strategy string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.injected[targetID]
	return s, ok
}

// Mark records a successful injection.
func (r *Registry) Mark(targetID, strategy string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.injected[targetID] = strategy
}

// Forget removes a target, typically after it navigates and its context
// (probe included) is gone.
func (r *Registry) Forget(targetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.injected, targetID)
}
