// internal/workers/matching/match-listing-to-buyers/config.go
package matchlistingtobuyers

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		DefaultLimit: 20,
	}
}
