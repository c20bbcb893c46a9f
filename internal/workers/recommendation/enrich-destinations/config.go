// internal/workers/recommendation/enrich-destinations/config.go
package enrichdestinations

import "time"

type Config struct {
	Timeout            time.Duration
	DestinationTimeout time.Duration
	Concurrency        int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:            60 * time.Second,
		DestinationTimeout: 15 * time.Second,
		Concurrency:        8,
	}
}
