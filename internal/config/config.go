package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Feed      Feed         `mapstructure:"feed"`
	Portfolio Portfolio    `mapstructure:"portfolio"`
	Logger    Logger       `mapstructure:"logger"`
	Server    Server       `mapstructure:"server"`
	Database  Database     `mapstructure:"database"`
	Symbols   []Instrument `mapstructure:"symbols"`
}

// Feed holds the configuration for the daily price feed API.
type Feed struct {
	BaseURL        string  `mapstructure:"base_url"`
	ApiKey         string  `mapstructure:"apiKey"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Server holds the configuration for the HTTP server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Portfolio holds the configuration for the portfolio accounting logic.
type Portfolio struct {
	// FallbackCurrency is used when a traded symbol cannot be resolved
	// to a known instrument.
	FallbackCurrency string `mapstructure:"fallback_currency"`
}

// Instrument describes a tradable instrument seeded into the database.
type Instrument struct {
	Symbol   string `mapstructure:"symbol"`
	Name     string `mapstructure:"name"`
	Currency string `mapstructure:"currency"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("feed.rate_limit", 5)       // requests per second
	viper.SetDefault("feed.rate_limit_burst", 2) // burst size
	viper.SetDefault("portfolio.fallback_currency", "CAD")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
