package framework

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/autoview/inspect/msg"
)

// DetectStatic classifies a framework from static HTML alone. Used by the
// fallback inspector, which can sometimes fetch the target's HTML over
// plain HTTP even when script access is blocked. Signals are checked in
// the same priority order as the in-page detector: react, vue, angular,
// svelte. SPA shells that hide everything behind a script bundle come back
// unknown — that is expected, not a failure.
func DetectStatic(rawHTML string) msg.FrameworkInfo {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return msg.FrameworkInfo{Type: msg.FrameworkUnknown}
	}

	var s staticSignals
	walk(doc, &s)

	switch {
	case s.react:
		return msg.FrameworkInfo{Type: msg.FrameworkReact}
	case s.vue:
		return msg.FrameworkInfo{Type: msg.FrameworkVue}
	case s.angular:
		return msg.FrameworkInfo{Type: msg.FrameworkAngular, Version: s.angularVersion}
	case s.svelte:
		return msg.FrameworkInfo{Type: msg.FrameworkSvelte}
	default:
		return msg.FrameworkInfo{Type: msg.FrameworkUnknown}
	}
}

type staticSignals struct {
	react          bool
	vue            bool
	angular        bool
	angularVersion string
	svelte         bool
}

func walk(n *html.Node, s *staticSignals) {
	if n.Type == html.ElementNode {
		inspectElement(n, s)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, s)
	}
}

func inspectElement(n *html.Node, s *staticSignals) {
	var id string
	for _, a := range n.Attr {
		switch {
		case a.Key == "id":
			id = a.Val
		case a.Key == "data-reactroot":
			s.react = true
		case a.Key == "data-reactid":
			s.react = true
		case a.Key == "data-v-app" || strings.HasPrefix(a.Key, "data-v-"):
			s.vue = true
		case a.Key == "ng-version":
			s.angular = true
			s.angularVersion = a.Val
		case strings.HasPrefix(a.Key, "ng-") || strings.HasPrefix(a.Key, "_nghost-") || strings.HasPrefix(a.Key, "_ngcontent-"):
			s.angular = true
		case a.Key == "data-svelte-h":
			s.svelte = true
		case a.Key == "class" && strings.Contains(a.Val, "svelte-"):
			s.svelte = true
		}
	}

	// Known root-container ids used by CRA / Next / Vite templates. An id
	// alone is a weak react signal; only count the unambiguous ones.
	if n.Data == "div" && (id == "__next" || id == "react-root") {
		s.react = true
	}

	// Script bundles give away the toolchain even in an empty shell.
	if n.Data == "script" {
		for _, a := range n.Attr {
			if a.Key != "src" {
				continue
			}
			src := a.Val
			switch {
			case strings.Contains(src, "react"):
				s.react = true
			case strings.Contains(src, "vue"):
				s.vue = true
			case strings.Contains(src, "polyfills") && strings.Contains(src, "main"):
				// angular CLI emits polyfills+main pairs; too weak alone.
			case strings.Contains(src, "svelte"):
				s.svelte = true
			}
		}
	}
}
