package msg

import "fmt"

// Rect is an element bounding box. Coordinates are in whatever space the
// producer reports (target-local from the probe, host-local after the
// controller translates by the surface offset).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Area returns the rect's area in square pixels.
func (r Rect) Area() float64 { return r.Width * r.Height }

// Translate returns the rect offset by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	r.Top += dy
	r.Bottom += dy
	r.Left += dx
	r.Right += dx
	return r
}

// DOMNodeInfo is the structural description of one DOM element. It is
// present in every inspection result, including degraded fallback results.
type DOMNodeInfo struct {
	TagName     string            `json:"tagName"`
	ClassList   []string          `json:"classList,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	XPath       string            `json:"xpath"`
	CSSSelector string            `json:"cssSelector"`
	Rect        Rect              `json:"rect"`
}

// FrameworkType classifies the embedded page's UI framework.
type FrameworkType string

const (
	FrameworkReact   FrameworkType = "react"
	FrameworkVue     FrameworkType = "vue"
	FrameworkAngular FrameworkType = "angular"
	FrameworkSvelte  FrameworkType = "svelte"
	FrameworkUnknown FrameworkType = "unknown"
)

// Valid reports whether t is one of the known framework types.
func (t FrameworkType) Valid() bool {
	switch t {
	case FrameworkReact, FrameworkVue, FrameworkAngular, FrameworkSvelte, FrameworkUnknown:
		return true
	}
	return false
}

// FrameworkInfo is a snapshot of the detected framework. Recomputed per
// inspection session, never cached across navigations.
type FrameworkInfo struct {
	Type     FrameworkType `json:"type"`
	Version  string        `json:"version,omitempty"`
	Devtools bool          `json:"devtools,omitempty"`
}

// SourceLocation points at a position in the original project's source.
type SourceLocation struct {
	FilePath string `json:"filePath"`
	Line     int    `json:"lineNumber,omitempty"`
	Column   int    `json:"columnNumber,omitempty"`
	RelPath  string `json:"relativePath,omitempty"`
}

// Key returns the deduplication identity (filePath, line, column).
func (l SourceLocation) Key() string {
	return fmt.Sprintf("%s\x00%d\x00%d", l.FilePath, l.Line, l.Column)
}

// ComponentDescriptor describes the UI component that rendered a clicked
// element. Props and state hold primitives verbatim; any non-primitive is
// replaced by an opaque placeholder ("[Array]", "[Object]", "[Function]")
// so the descriptor never owns foreign runtime memory and always survives
// structured cloning.
type ComponentDescriptor struct {
	ComponentName string          `json:"componentName"`
	DisplayName   string          `json:"displayName,omitempty"`
	Props         map[string]any  `json:"props,omitempty"`
	State         map[string]any  `json:"state,omitempty"`
	Source        *SourceLocation `json:"sourceLocation,omitempty"`
}

// Candidate is one step of the probe's ownership-chain walk: a component
// (never a raw host tag) that might own the clicked element. The probe
// reports raw facts; the host computes the derived flags and applies the
// selection policy.
type Candidate struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"displayName,omitempty"`
	Depth       int             `json:"depth"`
	Box         Rect            `json:"box"`
	DirectMatch bool            `json:"directMatch"`
	Source      *SourceLocation `json:"source,omitempty"`
	Props       map[string]any  `json:"props,omitempty"`
	State       map[string]any  `json:"state,omitempty"`
}

// Confidence ranks how trustworthy a source-location guess is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ComponentSourceInfo is the Source Mapper's output: the descriptor, a
// nullable primary location, and the deduplicated ranked candidate list.
// When a high-confidence primary exists it is always PossibleSources[0].
type ComponentSourceInfo struct {
	Component       ComponentDescriptor `json:"component"`
	Primary         *SourceLocation     `json:"primarySource,omitempty"`
	PossibleSources []SourceLocation    `json:"possibleSources"`
	Confidence      Confidence          `json:"confidence"`
}
