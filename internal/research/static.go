package research

import (
	"context"
	"fmt"
	"strings"
)

// StaticProvider answers from a small built-in knowledge table. It is the
// default provider so the healing loop works offline and in tests.
type StaticProvider struct {
	entries []staticEntry
}

type staticEntry struct {
	keywords []string
	summary  string
	results  []Result
}

// NewStaticProvider builds the canned provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{entries: defaultStaticEntries()}
}

func (s *StaticProvider) Name() string { return "static" }

// Lookup matches the query against keyword sets and returns the first entry
// that shares a keyword. Queries with no match get a generic report rather
// than an error, so callers never need a special empty-answer path.
func (s *StaticProvider) Lookup(ctx context.Context, query string, depth int) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	depth = clampDepth(depth)
	lower := strings.ToLower(query)
	for _, entry := range s.entries {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				results := entry.results
				if depth == DepthQuick && len(results) > 1 {
					results = results[:1]
				}
				return &Report{Summary: entry.summary, Results: results}, nil
			}
		}
	}
	return &Report{
		Summary: fmt.Sprintf("No canned guidance for %q; inspect the error text and retry with a corrected command.", query),
		Results: nil,
	}, nil
}

func defaultStaticEntries() []staticEntry {
	return []staticEntry{
		{
			keywords: []string{"command not found", "not recognized"},
			summary:  "The binary is not on PATH. Install the tool or invoke it through its package runner.",
			results: []Result{
				{Title: "Installing missing CLI tools", URL: "https://command-not-found.com/", Snippet: "Lookup table mapping commands to the packages that provide them.", Relevance: 90},
				{Title: "PATH troubleshooting", URL: "https://wiki.archlinux.org/title/Environment_variables", Snippet: "How PATH resolution works and where to add tool directories.", Relevance: 60},
			},
		},
		{
			keywords: []string{"cannot find module", "module not found", "no module named"},
			summary:  "A dependency is missing from the project environment. Run the ecosystem's install step before retrying.",
			results: []Result{
				{Title: "npm install", URL: "https://docs.npmjs.com/cli/commands/npm-install", Snippet: "Installs project dependencies declared in package.json.", Relevance: 85},
				{Title: "pip install", URL: "https://pip.pypa.io/en/stable/cli/pip_install/", Snippet: "Installs Python packages into the active environment.", Relevance: 70},
			},
		},
		{
			keywords: []string{"syntaxerror", "syntax error", "unexpected token"},
			summary:  "The source file has a structural defect. Balance delimiters and terminate the offending statement.",
			results: []Result{
				{Title: "Reading syntax errors", URL: "https://developer.mozilla.org/en-US/docs/Web/JavaScript/Reference/Errors/Unexpected_token", Snippet: "Unexpected token errors usually point just past the real defect.", Relevance: 80},
			},
		},
		{
			keywords: []string{"econnrefused", "connection refused", "timed out", "etimedout"},
			summary:  "A network endpoint is unreachable. Verify the target service is running and the address is correct.",
			results: []Result{
				{Title: "Diagnosing connection refused", URL: "https://www.baeldung.com/linux/curl-connection-refused", Snippet: "Connection refused means nothing is listening on the target port.", Relevance: 75},
			},
		},
		{
			keywords: []string{"eaddrinuse", "address already in use"},
			summary:  "The port is held by another process. Stop the conflicting process or bind a different port.",
			results: []Result{
				{Title: "Finding the process on a port", URL: "https://man7.org/linux/man-pages/man8/lsof.8.html", Snippet: "lsof -i :PORT shows the holder of a bound port.", Relevance: 80},
			},
		},
	}
}
