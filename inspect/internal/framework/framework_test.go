package framework

import (
	"testing"

	"github.com/hazyhaar/autoview/inspect/msg"
)

func TestNormalize(t *testing.T) {
	got := Normalize(msg.FrameworkInfo{Type: "ember", Version: "5.0"})
	if got.Type != msg.FrameworkUnknown || got.Version != "" {
		t.Errorf("Normalize foreign type: got %+v", got)
	}

	keep := msg.FrameworkInfo{Type: msg.FrameworkReact, Version: "18.3.1", Devtools: true}
	if got := Normalize(keep); got != keep {
		t.Errorf("Normalize valid: got %+v", got)
	}
}

func TestForType(t *testing.T) {
	for _, ft := range []msg.FrameworkType{
		msg.FrameworkReact, msg.FrameworkVue, msg.FrameworkAngular,
		msg.FrameworkSvelte, msg.FrameworkUnknown,
	} {
		if got := ForType(ft).Type(); got != ft {
			t.Errorf("ForType(%s).Type() = %s", ft, got)
		}
	}
	if got := ForType("ember").Type(); got != msg.FrameworkUnknown {
		t.Errorf("ForType(foreign) = %s, want unknown", got)
	}
}

func TestReactAdapterDescribe(t *testing.T) {
	click := msg.InspectClick{
		DOMNode: msg.DOMNodeInfo{
			TagName: "div",
			Rect:    msg.Rect{Width: 100, Height: 40},
		},
		Framework: msg.FrameworkInfo{Type: msg.FrameworkReact},
		Candidates: []msg.Candidate{
			{Name: "GenericLayout", Box: msg.Rect{Width: 120, Height: 50}},
			{Name: "SpecificButton", Box: msg.Rect{Width: 110, Height: 45},
				Source: &msg.SourceLocation{FilePath: "src/SpecificButton.tsx", Line: 3}},
		},
	}
	desc := ForType(msg.FrameworkReact).Describe(click)
	if desc == nil || desc.ComponentName != "SpecificButton" {
		t.Fatalf("Describe: got %+v, want SpecificButton", desc)
	}
	if desc.Source == nil || desc.Source.Line != 3 {
		t.Errorf("Describe source: %+v", desc.Source)
	}
}

func TestReactAdapterIntrospectionMiss(t *testing.T) {
	desc := ForType(msg.FrameworkReact).Describe(msg.InspectClick{
		DOMNode: msg.DOMNodeInfo{TagName: "canvas"},
	})
	if desc != nil {
		t.Errorf("empty candidates: got %+v, want nil (miss, not error)", desc)
	}
}

func TestReactAdapterUsesProbePickWhenNoCandidates(t *testing.T) {
	desc := ForType(msg.FrameworkReact).Describe(msg.InspectClick{
		Component: &msg.ComponentDescriptor{
			ComponentName: "Widget",
			Props:         map[string]any{"items": []any{"a"}},
		},
	})
	if desc == nil || desc.ComponentName != "Widget" {
		t.Fatalf("probe pick: got %+v", desc)
	}
	if desc.Props["items"] != "[Array]" {
		t.Errorf("probe pick props not re-sanitised: %+v", desc.Props)
	}
}

func TestPassiveAdapterDescribe(t *testing.T) {
	click := msg.InspectClick{
		Candidates: []msg.Candidate{{Name: "Whatever"}},
	}
	if got := ForType(msg.FrameworkVue).Describe(click); got != nil {
		t.Errorf("vue adapter must not introspect: got %+v", got)
	}
}

func TestDetectStatic(t *testing.T) {
	tests := []struct {
		name string
		html string
		want msg.FrameworkType
	}{
		{"react root marker",
			`<html><body><div id="root" data-reactroot=""></div></body></html>`,
			msg.FrameworkReact},
		{"next shell",
			`<html><body><div id="__next"></div></body></html>`,
			msg.FrameworkReact},
		{"vue scoped attr",
			`<html><body><div data-v-7ba5bd90 class="app"></div></body></html>`,
			msg.FrameworkVue},
		{"angular version attr",
			`<html><body><app-root ng-version="17.1.0"></app-root></body></html>`,
			msg.FrameworkAngular},
		{"svelte hydration",
			`<html><body><div data-svelte-h="svelte-1abc"></div></body></html>`,
			msg.FrameworkSvelte},
		{"plain page",
			`<html><body><h1>hello</h1></body></html>`,
			msg.FrameworkUnknown},
		{"empty spa shell",
			`<html><body><div id="app-shell"></div></body></html>`,
			msg.FrameworkUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectStatic(tt.html)
			if got.Type != tt.want {
				t.Errorf("DetectStatic = %s, want %s", got.Type, tt.want)
			}
		})
	}
}

func TestDetectStaticAngularVersion(t *testing.T) {
	got := DetectStatic(`<html><body><app-root ng-version="17.1.0"></app-root></body></html>`)
	if got.Version != "17.1.0" {
		t.Errorf("angular version: got %q", got.Version)
	}
}
