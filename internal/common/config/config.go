// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	GenAI    GenAIConfig    `mapstructure:"genai"`
	Database DatabaseConfig `mapstructure:"database"`
	Handlers HandlersConfig `mapstructure:"handlers"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type TelegramConfig struct {
	BotToken     string `mapstructure:"bot_token"`
	PollTimeout  int    `mapstructure:"poll_timeout"`  // seconds
	UpdateBuffer int    `mapstructure:"update_buffer"` // update channel size
}

type GenAIConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// HandlerConfig holds the core settings applicable to every handler.
type HandlerConfig struct {
	Timeout    int `mapstructure:"timeout"` // milliseconds
	MaxRetries int `mapstructure:"max_retries"`
}

// HandlersConfig groups per-handler settings plus session and cache tuning.
type HandlersConfig struct {
	Extract    HandlerConfig `mapstructure:"extract"`
	Record     HandlerConfig `mapstructure:"record"`
	Summary    HandlerConfig `mapstructure:"summary"`
	SessionTTL int           `mapstructure:"session_ttl"` // seconds
	CacheTTL   int           `mapstructure:"cache_ttl"`   // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
