// Package framework classifies the embedded page's UI framework and selects
// the capability adapter used to interpret probe payloads.
//
// Active detection runs inside the page (the probe scans globals, root
// markers and devtools hooks); this package validates what the probe
// reports. Passive detection over static HTML exists for the fallback path
// where no probe can run.
package framework

import (
	"github.com/hazyhaar/autoview/inspect/internal/locate"
	"github.com/hazyhaar/autoview/inspect/msg"
)

// Normalize validates a probe-reported framework snapshot. An unrecognised
// type collapses to unknown rather than propagating foreign strings into
// results.
func Normalize(info msg.FrameworkInfo) msg.FrameworkInfo {
	if !info.Type.Valid() {
		info.Type = msg.FrameworkUnknown
		info.Version = ""
	}
	return info
}

// Adapter interprets framework-specific probe payloads. One concrete
// variant exists per supported framework; detection selects which one a
// session uses.
type Adapter interface {
	Type() msg.FrameworkType
	// Describe turns a click payload into a component descriptor, or nil
	// when the framework offers no introspection (an introspection miss,
	// never an error).
	Describe(click msg.InspectClick) *msg.ComponentDescriptor
}

// ForType returns the adapter for a framework type. Unrecognised types get
// the unknown adapter.
func ForType(t msg.FrameworkType) Adapter {
	switch t {
	case msg.FrameworkReact:
		return reactAdapter{}
	case msg.FrameworkVue:
		return passiveAdapter{t: msg.FrameworkVue}
	case msg.FrameworkAngular:
		return passiveAdapter{t: msg.FrameworkAngular}
	case msg.FrameworkSvelte:
		return passiveAdapter{t: msg.FrameworkSvelte}
	default:
		return passiveAdapter{t: msg.FrameworkUnknown}
	}
}

// reactAdapter applies the full candidate selection policy over the fiber
// ownership walk the probe reports.
type reactAdapter struct{}

func (reactAdapter) Type() msg.FrameworkType { return msg.FrameworkReact }

func (reactAdapter) Describe(click msg.InspectClick) *msg.ComponentDescriptor {
	chosen := locate.Select(click.Candidates, click.DOMNode.Rect)
	if chosen == nil {
		// The probe may still have shipped its own in-page pick.
		if click.Component != nil {
			c := *click.Component
			c.Props = locate.SanitizeValues(c.Props)
			c.State = locate.SanitizeValues(c.State)
			if c.Source != nil {
				loc := locate.CleanLocation(*c.Source)
				c.Source = &loc
			}
			return &c
		}
		return nil
	}
	return locate.Describe(chosen)
}

// passiveAdapter covers frameworks that are detected but not deeply
// introspected (vue/angular/svelte) plus unknown. Clicks still yield DOM
// facts; the component descriptor is absent.
type passiveAdapter struct {
	t msg.FrameworkType
}

func (a passiveAdapter) Type() msg.FrameworkType { return a.t }

func (passiveAdapter) Describe(msg.InspectClick) *msg.ComponentDescriptor { return nil }
