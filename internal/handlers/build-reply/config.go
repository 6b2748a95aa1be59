// internal/handlers/build-reply/config.go
package buildreply

type Config struct {
	CurrencySymbol string
}

func LoadConfig() *Config {
	return &Config{
		CurrencySymbol: "$",
	}
}
