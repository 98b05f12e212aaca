package inspect

import (
	"sync"
	"time"

	"github.com/hazyhaar/autoview/inspect/msg"
)

// Session is the state of one inspection run. Owned exclusively by the
// controller; external readers get snapshots through the accessors.
type Session struct {
	ID        string
	SurfaceID string
	StartedAt time.Time

	mu         sync.Mutex
	inspecting bool
	fallback   bool
	framework  msg.FrameworkInfo
	highlight  *msg.Rect
	lastResult *Result
}

func newSession(id, surfaceID string) *Session {
	return &Session{
		ID:        id,
		SurfaceID: surfaceID,
		StartedAt: time.Now(),
		// Optimistically inspecting before the probe handshake resolves;
		// the probe resyncs via the state request if it comes up late.
		inspecting: true,
		framework:  msg.FrameworkInfo{Type: msg.FrameworkUnknown},
	}
}

// IsInspecting reports whether the session is live.
func (s *Session) IsInspecting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inspecting
}

// Fallback reports whether the session degraded to whole-surface
// inspection.
func (s *Session) Fallback() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallback
}

// Framework returns the most recent framework snapshot.
func (s *Session) Framework() msg.FrameworkInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.framework
}

// Highlight returns the currently highlighted host-local rect, nil when
// nothing is highlighted.
func (s *Session) Highlight() *msg.Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highlight
}

// LastResult returns the most recent completed result, nil before the
// first click.
func (s *Session) LastResult() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

func (s *Session) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inspecting = false
	s.highlight = nil
}

func (s *Session) enterFallback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = true
}

func (s *Session) exitFallback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = false
}

func (s *Session) setFramework(fw msg.FrameworkInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.framework = fw
}

func (s *Session) setHighlight(r *msg.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlight = r
}

func (s *Session) setLastResult(r *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastResult = r
}
