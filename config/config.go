package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"smc-trading-bot/internal/engine"
)

type Config struct {
	MarketConfig   MarketConfig   `json:"market"`
	EngineConfig   engine.Config  `json:"engine"`
	ServerConfig   ServerConfig   `json:"server"`
	AuthConfig     AuthConfig     `json:"auth"`
	DatabaseConfig DatabaseConfig `json:"database"`
	RedisConfig    RedisConfig    `json:"redis"`
	LoggingConfig  LoggingConfig  `json:"logging"`
}

// MarketConfig holds the bar feed and instrument settings
type MarketConfig struct {
	Symbol    string  `json:"symbol"`
	Interval  string  `json:"interval"` // e.g. "1m", "5m"
	BaseURL   string  `json:"base_url"`
	WSBaseURL string  `json:"ws_base_url"`
	TickSize  float64 `json:"tick_size"`
	History   int     `json:"history"` // bars fetched at startup
}

type ServerConfig struct {
	Enabled         bool   `json:"enabled"`
	Port            int    `json:"port"`
	Host            string `json:"host"`
	AllowedOrigins  string `json:"allowed_origins"`
	ReadTimeout     int    `json:"read_timeout"`     // Seconds
	WriteTimeout    int    `json:"write_timeout"`    // Seconds
	ShutdownTimeout int    `json:"shutdown_timeout"` // Seconds
}

type AuthConfig struct {
	Enabled             bool          `json:"enabled"`
	JWTSecret           string        `json:"jwt_secret"`
	AccessTokenDuration time.Duration `json:"access_token_duration"`
}

// DatabaseConfig holds the Postgres journal settings
type DatabaseConfig struct {
	Enabled  bool   `json:"enabled"`
	URL      string `json:"url"`
	MaxConns int    `json:"max_conns"`
}

// RedisConfig holds the snapshot store settings
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type LoggingConfig struct {
	Level      string `json:"level"`       // DEBUG, INFO, WARN, ERROR
	Output     string `json:"output"`      // stdout, stderr, or file path
	JSONFormat bool   `json:"json_format"` // Output as JSON
}

func Load() (*Config, error) {
	// First try to load base config from file
	cfg, err := loadFromFile("config.json")
	if err != nil {
		cfg = &Config{EngineConfig: engine.DefaultConfig()}
	}

	// Apply environment variable overrides (these take precedence)
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects malformed configuration before any bar is processed
func (c *Config) Validate() error {
	if err := c.EngineConfig.Validate(); err != nil {
		return err
	}
	if c.MarketConfig.TickSize <= 0 {
		return fmt.Errorf("market tick_size must be > 0")
	}
	if c.AuthConfig.Enabled && c.AuthConfig.JWTSecret == "" {
		return fmt.Errorf("auth enabled but AUTH_JWT_SECRET is empty")
	}
	if c.DatabaseConfig.Enabled && c.DatabaseConfig.URL == "" {
		return fmt.Errorf("database enabled but DATABASE_URL is empty")
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	// Market config
	cfg.MarketConfig.Symbol = getEnvOrDefault("MARKET_SYMBOL", defaultStr(cfg.MarketConfig.Symbol, "BTCUSDT"))
	cfg.MarketConfig.Interval = getEnvOrDefault("MARKET_INTERVAL", defaultStr(cfg.MarketConfig.Interval, "1m"))
	cfg.MarketConfig.BaseURL = getEnvOrDefault("MARKET_BASE_URL", defaultStr(cfg.MarketConfig.BaseURL, "https://api.binance.com"))
	cfg.MarketConfig.WSBaseURL = getEnvOrDefault("MARKET_WS_BASE_URL", defaultStr(cfg.MarketConfig.WSBaseURL, "wss://stream.binance.com:9443"))
	cfg.MarketConfig.TickSize = getEnvFloatOrDefault("MARKET_TICK_SIZE", defaultFloat(cfg.MarketConfig.TickSize, 0.01))
	cfg.MarketConfig.History = getEnvIntOrDefault("MARKET_HISTORY", defaultInt(cfg.MarketConfig.History, 500))

	// Engine config
	cfg.EngineConfig.Timezone = getEnvOrDefault("ENGINE_TIMEZONE", defaultStr(cfg.EngineConfig.Timezone, "America/New_York"))
	cfg.EngineConfig.FVGMinGap = getEnvFloatOrDefault("ENGINE_FVG_MIN_GAP", cfg.EngineConfig.FVGMinGap)
	cfg.EngineConfig.Displacement = getEnvFloatOrDefault("ENGINE_DISPLACEMENT", cfg.EngineConfig.Displacement)
	cfg.EngineConfig.Session.MaxTradesPerDay = getEnvIntOrDefault("ENGINE_MAX_TRADES_PER_DAY", cfg.EngineConfig.Session.MaxTradesPerDay)
	cfg.EngineConfig.Trade.Qty = getEnvFloatOrDefault("ENGINE_TRADE_QTY", cfg.EngineConfig.Trade.Qty)
	cfg.EngineConfig.Trade.TargetR = getEnvFloatOrDefault("ENGINE_TARGET_R", cfg.EngineConfig.Trade.TargetR)

	// Server config
	cfg.ServerConfig.Enabled = getEnvOrDefault("WEB_ENABLED", "true") == "true"
	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", 8080)
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", "0.0.0.0")
	cfg.ServerConfig.AllowedOrigins = getEnvOrDefault("SERVER_ALLOWED_ORIGINS", "*")
	cfg.ServerConfig.ReadTimeout = getEnvIntOrDefault("SERVER_READ_TIMEOUT", 30)
	cfg.ServerConfig.WriteTimeout = getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", 30)
	cfg.ServerConfig.ShutdownTimeout = getEnvIntOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10)

	// Auth config - always applied from environment
	cfg.AuthConfig.Enabled = getEnvOrDefault("AUTH_ENABLED", "false") == "true"
	cfg.AuthConfig.JWTSecret = getEnvOrDefault("AUTH_JWT_SECRET", cfg.AuthConfig.JWTSecret)
	cfg.AuthConfig.AccessTokenDuration = getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_DURATION", 15*time.Minute)

	// Database config
	cfg.DatabaseConfig.Enabled = getEnvOrDefault("DATABASE_ENABLED", "false") == "true"
	cfg.DatabaseConfig.URL = getEnvOrDefault("DATABASE_URL", cfg.DatabaseConfig.URL)
	cfg.DatabaseConfig.MaxConns = getEnvIntOrDefault("DATABASE_MAX_CONNS", 5)

	// Redis config
	cfg.RedisConfig.Enabled = getEnvOrDefault("REDIS_ENABLED", "false") == "true"
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", defaultStr(cfg.RedisConfig.Address, "localhost:6379"))
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)

	// Logging config
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", "INFO")
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", "stdout")
	cfg.LoggingConfig.JSONFormat = getEnvOrDefault("LOG_JSON", "true") == "true"
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := Config{EngineConfig: engine.DefaultConfig()}
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

func defaultStr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func defaultInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

func defaultFloat(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GenerateSampleConfig creates a sample configuration file
func GenerateSampleConfig(filename string) error {
	config := Config{
		MarketConfig: MarketConfig{
			Symbol:    "BTCUSDT",
			Interval:  "1m",
			BaseURL:   "https://api.binance.com",
			WSBaseURL: "wss://stream.binance.com:9443",
			TickSize:  0.01,
			History:   500,
		},
		EngineConfig: engine.DefaultConfig(),
		ServerConfig: ServerConfig{
			Enabled:         true,
			Port:            8080,
			Host:            "0.0.0.0",
			AllowedOrigins:  "*",
			ReadTimeout:     30,
			WriteTimeout:    30,
			ShutdownTimeout: 10,
		},
		LoggingConfig: LoggingConfig{
			Level:      "INFO",
			Output:     "stdout",
			JSONFormat: true,
		},
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}
