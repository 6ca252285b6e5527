// internal/workers/matching/match-buyer-to-listings/config.go
package matchbuyertolistings

import "time"

type Config struct {
	Timeout time.Duration
	// DefaultLimit caps returned matches when the job sets no limit.
	DefaultLimit int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		DefaultLimit: 20,
	}
}
