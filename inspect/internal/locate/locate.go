// Package locate implements the host side of component location: given the
// raw ownership-walk candidates reported by the probe, pick the component
// the user most plausibly meant to click.
//
// The naive answer — first function-typed ancestor of the clicked element —
// is usually wrong: it lands on Layout, Router, Provider and friends. The
// selection policy here prefers candidates whose own rendered node is the
// clicked element, then candidates with source metadata, and demotes
// generic wrappers and containers much larger than the click target.
package locate

import (
	"strings"

	"github.com/hazyhaar/autoview/inspect/msg"
)

// Walk bounds. These cap the probe's tree searches and the host's candidate
// processing so worst-case cost stays auditable.
const (
	// MaxAncestorHops bounds the upward DOM walk when the clicked element
	// itself carries no internal-instance reference.
	MaxAncestorHops = 15
	// MaxDescendantScan bounds the last-resort downward scan for any
	// element with an instance reference.
	MaxDescendantScan = 60
	// MaxOwnerDepth bounds the ownership-chain walk from the entry node.
	MaxOwnerDepth = 30
	// OversizeRatio marks a candidate as an oversized container when its
	// rendered box area exceeds this multiple of the clicked element's.
	OversizeRatio = 10.0
)

// genericWrapperNames are component names that almost never identify the
// widget the user clicked. Matched case-insensitively, by exact name or
// suffix (AppLayout, PageRouter, ...).
var genericWrapperNames = []string{
	"layout", "router", "provider", "app", "boundary", "suspense",
	"anonymous", "fragment", "context", "wrapper", "container", "root",
}

// IsGenericWrapper reports whether name matches the wrapper denylist.
func IsGenericWrapper(name string) bool {
	if name == "" {
		return true
	}
	lower := strings.ToLower(name)
	for _, g := range genericWrapperNames {
		if lower == g || strings.HasSuffix(lower, g) {
			return true
		}
	}
	return false
}

// IsOversized reports whether a candidate's box dwarfs the clicked
// element's box. A zero clicked area never marks anything oversized.
func IsOversized(candidate, clicked msg.Rect) bool {
	ca := clicked.Area()
	if ca <= 0 {
		return false
	}
	return candidate.Area() > ca*OversizeRatio
}

type flags struct {
	generic   bool
	oversized bool
	hasSource bool
	direct    bool
}

func classify(c msg.Candidate, clicked msg.Rect) flags {
	return flags{
		generic:   IsGenericWrapper(c.Name),
		oversized: IsOversized(c.Box, clicked),
		hasSource: c.Source != nil && c.Source.FilePath != "",
		direct:    c.DirectMatch,
	}
}

// Select applies the selection policy over the probe's candidate list.
// Buckets, first non-empty wins:
//
//  1. direct matches with source and a non-generic name
//  2. any direct match
//  3. non-generic, non-oversized candidates with source
//  4. any non-generic, non-oversized candidate
//  5. any non-oversized candidate
//  6. the first candidate found during the walk
//
// Within a bucket, walk order (shallowest owner first) decides. Returns
// nil only for an empty candidate list — an introspection miss, not an
// error.
func Select(candidates []msg.Candidate, clicked msg.Rect) *msg.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	buckets := [6]func(flags) bool{
		func(f flags) bool { return f.direct && f.hasSource && !f.generic },
		func(f flags) bool { return f.direct },
		func(f flags) bool { return !f.generic && !f.oversized && f.hasSource },
		func(f flags) bool { return !f.generic && !f.oversized },
		func(f flags) bool { return !f.oversized },
		func(flags) bool { return true },
	}

	for _, match := range buckets {
		for i := range candidates {
			if match(classify(candidates[i], clicked)) {
				return &candidates[i]
			}
		}
	}
	return &candidates[0] // unreachable, bucket 6 accepts everything
}

// Describe assembles a safe component descriptor from the chosen candidate.
// Props and state are re-sanitised host-side: the probe already applies the
// placeholder rule, but its JSON is foreign input and is never trusted.
func Describe(c *msg.Candidate) *msg.ComponentDescriptor {
	if c == nil {
		return nil
	}
	desc := &msg.ComponentDescriptor{
		ComponentName: c.Name,
		DisplayName:   c.DisplayName,
		Props:         SanitizeValues(c.Props),
		State:         SanitizeValues(c.State),
	}
	if c.Source != nil && c.Source.FilePath != "" {
		loc := CleanLocation(*c.Source)
		desc.Source = &loc
	}
	return desc
}
