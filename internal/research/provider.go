// Package research provides the pluggable lookup capability the correction
// strategist may consult before falling back to a comment-out patch. The
// engine treats every provider as possibly unavailable: lookups are bounded
// by a timeout and a failed lookup never blocks the healing loop.
package research

import "context"

// Depth bounds for a lookup. Higher depth means a broader query.
const (
	DepthQuick    = 1
	DepthStandard = 2
	DepthDeep     = 3
)

// Result is one ranked lookup hit.
type Result struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Snippet   string `json:"snippet"`
	Relevance int    `json:"relevance"` // 0-100
}

// Report is the structured output of one lookup.
type Report struct {
	Summary string   `json:"summary"`
	Results []Result `json:"results"`
}

// Provider answers research queries. Implementations must respect the
// context deadline and may fail; callers treat failure as "no answer".
type Provider interface {
	// Name identifies the provider in logs.
	Name() string

	// Lookup answers a query at the given depth (1..3).
	Lookup(ctx context.Context, query string, depth int) (*Report, error)
}

// clampDepth normalizes out-of-range depth values.
func clampDepth(depth int) int {
	if depth < DepthQuick {
		return DepthQuick
	}
	if depth > DepthDeep {
		return DepthDeep
	}
	return depth
}
