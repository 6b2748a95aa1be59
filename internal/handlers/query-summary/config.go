// internal/handlers/query-summary/config.go
package querysummary

import "time"

type Config struct {
	Timeout       time.Duration
	CacheTTL      time.Duration
	MaxCategories int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       5 * time.Second,
		CacheTTL:      time.Minute,
		MaxCategories: 10,
	}
}
