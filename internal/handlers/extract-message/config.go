// internal/handlers/extract-message/config.go
package extractmessage

import "time"

type Config struct {
	Timeout    time.Duration
	MaxRetries int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    30 * time.Second,
		MaxRetries: 2,
	}
}
