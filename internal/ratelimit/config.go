package ratelimit

import "strings"

// holds rate limiting configuration
type Config struct {
	Enabled bool

	// limiter format: "<limit>-<period>", e.g. "60-M" or "1000-H"
	Rate string

	// prefix for keys in a shared store
	Prefix string

	// paths that bypass the limiter (health checks, etc.)
	ExemptPaths []string

	// path suffixes that bypass the limiter
	ExemptSuffixes []string
}

// returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Rate:    "60-M",
		Prefix:  "tutoria:ratelimit",
		ExemptPaths: []string{
			"/health",
			"/swagger",
		},
		// relay connections are long-lived, not burst requests
		ExemptSuffixes: []string{"/ws"},
	}
}

// checks if a path bypasses the limiter
func (c *Config) IsExemptPath(path string) bool {
	for _, ep := range c.ExemptPaths {
		if path == ep || strings.HasPrefix(path, ep+"/") {
			return true
		}
	}

	for _, suffix := range c.ExemptSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}

	return false
}
