package config

import "time"

// ResearchConfig configures the research providers consulted by the
// correction strategist's fallback tier.
type ResearchConfig struct {
	// Provider selects the backend: "static" or "duckduckgo".
	Provider string `yaml:"provider"`

	// Timeout bounds one research lookup.
	Timeout string `yaml:"timeout"`

	// CacheSize is the maximum number of cached lookups.
	CacheSize int `yaml:"cache_size"`

	// CacheTTL is how long a cached lookup stays valid.
	CacheTTL string `yaml:"cache_ttl"`
}

// DefaultResearchConfig returns the default research settings.
// The static provider is the always-available default; it never touches
// the network.
func DefaultResearchConfig() ResearchConfig {
	return ResearchConfig{
		Provider:  "static",
		Timeout:   "3s",
		CacheSize: 1000,
		CacheTTL:  "30m",
	}
}

// GetTimeout returns the research timeout as a duration.
func (c ResearchConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 3*time.Second)
}

// GetCacheTTL returns the cache TTL as a duration.
func (c ResearchConfig) GetCacheTTL() time.Duration {
	return parseDuration(c.CacheTTL, 30*time.Minute)
}
