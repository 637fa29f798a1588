package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"remedy/internal/logging"
)

// DuckDuckGoProvider answers queries through DuckDuckGo's HTML interface,
// which needs no API key. Depth controls how many results are returned.
type DuckDuckGoProvider struct {
	client  *http.Client
	baseURL string
}

// NewDuckDuckGoProvider builds a live web provider. A nil client uses
// http.DefaultClient; the caller bounds lookups via the context.
func NewDuckDuckGoProvider(client *http.Client) *DuckDuckGoProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &DuckDuckGoProvider{client: client, baseURL: "https://html.duckduckgo.com/html/"}
}

func (p *DuckDuckGoProvider) Name() string { return "duckduckgo" }

// resultsForDepth maps lookup depth to a result cap.
func resultsForDepth(depth int) int {
	switch clampDepth(depth) {
	case DepthQuick:
		return 3
	case DepthStandard:
		return 6
	default:
		return 10
	}
}

// Lookup fetches and parses the DuckDuckGo result page.
func (p *DuckDuckGoProvider) Lookup(ctx context.Context, query string, depth int) (*Report, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	maxResults := resultsForDepth(depth)

	logging.ResearchDebug("web lookup: query=%q, max_results=%d", query, maxResults)

	searchURL := fmt.Sprintf("%s?q=%s", p.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Plain clients get an empty result page; look like a browser.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1MB limit
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	results, err := parseResultPage(string(body), maxResults)
	if err != nil {
		return nil, err
	}

	logging.Research("web lookup completed: %d results for %q", len(results), query)
	return buildReport(query, results), nil
}

// buildReport ranks results by position and synthesizes a one-line summary.
func buildReport(query string, results []Result) *Report {
	for i := range results {
		// Linear rank decay; the top hit is most relevant.
		rel := 100 - i*15
		if rel < 10 {
			rel = 10
		}
		results[i].Relevance = rel
	}
	summary := fmt.Sprintf("No results found for %q.", query)
	if len(results) > 0 {
		summary = fmt.Sprintf("Top result for %q: %s", query, results[0].Title)
	}
	return &Report{Summary: summary, Results: results}
}

// parseResultPage extracts results from the DuckDuckGo HTML page, which
// marks each hit with class="result results_links ...".
func parseResultPage(htmlContent string, maxResults int) ([]Result, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var results []Result

	var findResults func(*html.Node)
	findResults = func(n *html.Node) {
		if len(results) >= maxResults {
			return
		}

		if n.Type == html.ElementNode && n.Data == "div" {
			for _, attr := range n.Attr {
				if attr.Key == "class" && strings.Contains(attr.Val, "result") && strings.Contains(attr.Val, "results_links") {
					result := extractResult(n)
					if result.URL != "" && result.Title != "" {
						results = append(results, result)
					}
					return
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findResults(c)
		}
	}

	findResults(doc)
	return results, nil
}

// extractResult pulls title, URL, and snippet out of one result div.
func extractResult(n *html.Node) Result {
	var result Result

	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "class" {
					if strings.Contains(attr.Val, "result__a") {
						result.URL = attrValue(n, "href")
						result.Title = textContent(n)
					} else if strings.Contains(attr.Val, "result__snippet") {
						result.Snippet = textContent(n)
					}
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}

	extract(n)

	// DuckDuckGo wraps target URLs in a redirect; unwrap it.
	if strings.HasPrefix(result.URL, "//duckduckgo.com/l/?uddg=") {
		if decoded, err := url.QueryUnescape(strings.TrimPrefix(result.URL, "//duckduckgo.com/l/?uddg=")); err == nil {
			if idx := strings.Index(decoded, "&"); idx > 0 {
				decoded = decoded[:idx]
			}
			result.URL = decoded
		}
	}

	return result
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var getText func(*html.Node)
	getText = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			getText(c)
		}
	}
	getText(n)
	return strings.TrimSpace(sb.String())
}
