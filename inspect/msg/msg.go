// Package msg defines the wire protocol between the host-side inspection
// controller and the probe running inside the preview surface. Every message
// crosses an execution-context boundary as structured-clone JSON, so nothing
// here may carry a live DOM node or framework-internal reference.
//
// Type tags are namespaced with "autoview:" to avoid colliding with the
// embedded application's own postMessage traffic.
package msg

// Message type tags. Host→target and target→host messages share one
// namespace; the direction is fixed by the type.
const (
	TypeStartInspection = "autoview:start-inspection"
	TypeStopInspection  = "autoview:stop-inspection"
	TypeSelfInject      = "autoview:self-inject"

	TypeInspectorReady = "autoview:inspector-ready"
	TypeRequestState   = "autoview:request-inspection-state"
	TypeInspectHover   = "autoview:inspect-hover"
	TypeInspectLeave   = "autoview:inspect-leave"
	TypeInspectClick   = "autoview:inspect-click"
)

// Message is implemented by every wire message.
type Message interface {
	MessageType() string
}

// StartInspection arms the probe's event listeners. Host→target.
type StartInspection struct{}

// StopInspection disarms the probe. Safe to send when no probe is
// listening — the message is simply dropped. Host→target.
type StopInspection struct{}

// SelfInject asks a cooperating target to inject its own probe. Targets
// that do not opt in ignore it silently. Host→target.
type SelfInject struct{}

// InspectorReady is the probe's acknowledgement that it is installed and
// listening. The controller treats this as the session-live signal.
type InspectorReady struct {
	Framework FrameworkInfo `json:"framework"`
}

// RequestState asks the host to resend the current inspection state. The
// probe sends it when it comes up without having seen a StartInspection,
// which happens when the probe attached its listeners after the host's
// original start message.
type RequestState struct{}

// InspectHover reports the bounding box of the hovered element in
// target-local coordinates.
type InspectHover struct {
	Rect Rect `json:"rect"`
}

// InspectLeave reports that the pointer left the hovered element.
type InspectLeave struct{}

// InspectClick is the full inspection payload for one clicked element.
// Component is the probe's own best guess; Candidates carries the raw
// ownership-walk records so the host can apply its own selection policy.
type InspectClick struct {
	DOMNode    DOMNodeInfo          `json:"domNode"`
	Framework  FrameworkInfo        `json:"framework"`
	Component  *ComponentDescriptor `json:"component,omitempty"`
	Candidates []Candidate          `json:"candidates,omitempty"`
}

func (StartInspection) MessageType() string { return TypeStartInspection }
func (StopInspection) MessageType() string  { return TypeStopInspection }
func (SelfInject) MessageType() string      { return TypeSelfInject }
func (InspectorReady) MessageType() string  { return TypeInspectorReady }
func (RequestState) MessageType() string    { return TypeRequestState }
func (InspectHover) MessageType() string    { return TypeInspectHover }
func (InspectLeave) MessageType() string    { return TypeInspectLeave }
func (InspectClick) MessageType() string    { return TypeInspectClick }
