// internal/workers/recommendation/recommend-destinations/config.go
package recommenddestinations

import "time"

type Config struct {
	Timeout time.Duration
	TopN    int
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
		TopN:    3,
	}
}
