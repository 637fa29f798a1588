package research

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"remedy/internal/config"
	"remedy/internal/logging"
)

// Client fronts one or more providers with caching and a per-lookup
// timeout. Providers are queried concurrently and the richest answer wins.
type Client struct {
	mu        sync.RWMutex
	providers []Provider
	cache     *Cache
	timeout   time.Duration
}

// NewClient builds a client from configuration. An unknown provider name
// falls back to the static provider rather than failing startup.
func NewClient(cfg *config.ResearchConfig) *Client {
	if cfg == nil {
		def := config.DefaultConfig().Research
		cfg = &def
	}

	var providers []Provider
	switch cfg.Provider {
	case "duckduckgo":
		providers = []Provider{NewDuckDuckGoProvider(nil), NewStaticProvider()}
	case "static", "":
		providers = []Provider{NewStaticProvider()}
	default:
		logging.ResearchWarn("unknown research provider %q, using static", cfg.Provider)
		providers = []Provider{NewStaticProvider()}
	}

	return &Client{
		providers: providers,
		cache:     NewCache(cfg.CacheSize, cfg.GetCacheTTL()),
		timeout:   cfg.GetTimeout(),
	}
}

// NewClientWith builds a client over explicit providers, mainly for tests.
func NewClientWith(timeout time.Duration, providers ...Provider) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		providers: providers,
		cache:     NewCache(0, 0),
		timeout:   timeout,
	}
}

// Lookup answers a query, serving from cache when possible. All providers
// run concurrently under the client timeout; the report with the most
// results wins. Every provider failing is an error.
func (c *Client) Lookup(ctx context.Context, query string, depth int) (*Report, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	depth = clampDepth(depth)

	key := cacheKey(query, depth)
	if report, ok := c.cache.Get(key); ok {
		logging.ResearchDebug("cache hit for %q depth=%d", query, depth)
		return report, nil
	}

	c.mu.RLock()
	providers := make([]Provider, len(c.providers))
	copy(providers, c.providers)
	c.mu.RUnlock()

	if len(providers) == 0 {
		return nil, fmt.Errorf("no research providers configured")
	}

	lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	timer := logging.StartTimer(logging.CategoryResearch, fmt.Sprintf("lookup %q", query))

	reports := make([]*Report, len(providers))
	g, gctx := errgroup.WithContext(lookupCtx)
	for i, p := range providers {
		i, p := i, p
		g.Go(func() error {
			report, err := p.Lookup(gctx, query, depth)
			if err != nil {
				// One provider failing must not sink the others.
				logging.ResearchDebug("provider %s failed: %v", p.Name(), err)
				return nil
			}
			reports[i] = report
			return nil
		})
	}
	_ = g.Wait()
	timer.Stop()

	var best *Report
	var source string
	for i, report := range reports {
		if report == nil {
			continue
		}
		if best == nil || len(report.Results) > len(best.Results) {
			best = report
			source = providers[i].Name()
		}
	}
	if best == nil {
		return nil, fmt.Errorf("all research providers failed for %q", query)
	}

	c.cache.Set(key, best, source)
	logging.Research("lookup %q answered by %s with %d results", query, source, len(best.Results))
	return best, nil
}
