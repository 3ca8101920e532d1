package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Data     DataConfig     `yaml:"data"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	API      APIConfig      `yaml:"api"`
}

// ServerConfig represents the dashboard server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"` // Empty slice means allow all origins
	MaxBodySize    int64    `yaml:"max_body_size"`   // Maximum request body size in bytes (default: 1MB)
}

// DatabaseConfig represents the audit store configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DataConfig locates the pipeline inputs and output
type DataConfig struct {
	StockPath  string `yaml:"stock_path"`
	NewsPath   string `yaml:"news_path"`
	MergedPath string `yaml:"merged_path"`
}

// PipelineConfig controls which tickers the pipeline keeps
type PipelineConfig struct {
	Tickers []string `yaml:"tickers"`
}

// APIConfig represents the API configuration. No keys disables authentication.
type APIConfig struct {
	Keys []string `yaml:"keys"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	applyEnvVars(cfg)
	setDefaults(cfg)
	return cfg
}

// Load loads the configuration from the given file path.
// An empty path yields the defaults, still subject to environment overrides.
func Load(filePath string) (*Config, error) {
	config := &Config{}

	if filePath != "" {
		data, err := os.ReadFile(filePath) //nolint:gosec // Trusted file path input
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filePath, err)
		}
	}

	applyEnvVars(config)
	setDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvVars applies environment variables to the configuration
func applyEnvVars(config *Config) {
	if port := os.Getenv("STOCKAUDIT_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("STOCKAUDIT_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if path := os.Getenv("STOCKAUDIT_DATABASE_PATH"); path != "" {
		config.Database.Path = path
	}

	if path := os.Getenv("STOCKAUDIT_DATA_STOCK_PATH"); path != "" {
		config.Data.StockPath = path
	}
	if path := os.Getenv("STOCKAUDIT_DATA_NEWS_PATH"); path != "" {
		config.Data.NewsPath = path
	}
	if path := os.Getenv("STOCKAUDIT_DATA_MERGED_PATH"); path != "" {
		config.Data.MergedPath = path
	}

	// Comma separated, e.g. AAPL,MSFT
	if tickers := os.Getenv("STOCKAUDIT_PIPELINE_TICKERS"); tickers != "" {
		config.Pipeline.Tickers = nil
		for _, t := range strings.Split(tickers, ",") {
			config.Pipeline.Tickers = append(config.Pipeline.Tickers, strings.TrimSpace(t))
		}
	}
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 8501
	}
	if config.Server.Host == "" {
		config.Server.Host = "127.0.0.1"
	}
	if config.Server.MaxBodySize == 0 {
		config.Server.MaxBodySize = 1 << 20
	}

	if config.Database.Path == "" {
		config.Database.Path = "database/stock_audit.db"
	}

	if config.Data.StockPath == "" {
		config.Data.StockPath = "data/stock_df.csv"
	}
	if config.Data.NewsPath == "" {
		config.Data.NewsPath = "data/polygon_news_sample.json"
	}
	if config.Data.MergedPath == "" {
		config.Data.MergedPath = "data/merged_dataset.csv"
	}

	if len(config.Pipeline.Tickers) == 0 {
		config.Pipeline.Tickers = []string{"AAPL", "MSFT", "TSLA"}
	}
}

// GetLogLevel returns the log level from the environment
func GetLogLevel() string {
	levelStr := os.Getenv("STOCKAUDIT_LOG_LEVEL")
	if levelStr == "" {
		return "info"
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if _, ok := validLevels[levelStr]; ok {
		return levelStr
	}

	return "info"
}

// Addr returns the host:port the dashboard listens on
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d (must be between 1 and 65535)", cfg.Server.Port)
	}

	if cfg.Server.MaxBodySize < 0 {
		return fmt.Errorf("invalid server.max_body_size: %d (must be non-negative)", cfg.Server.MaxBodySize)
	}
	if cfg.Server.MaxBodySize > 100<<20 {
		return fmt.Errorf("invalid server.max_body_size: %d (must be less than 100MB)", cfg.Server.MaxBodySize)
	}

	for i, origin := range cfg.Server.AllowedOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("invalid server.allowed_origins[%d]: %q (must start with http:// or https://)", i, origin)
		}
	}

	if strings.TrimSpace(cfg.Database.Path) == "" {
		return fmt.Errorf("database.path is required")
	}

	for i, ticker := range cfg.Pipeline.Tickers {
		if ticker == "" {
			return fmt.Errorf("pipeline.tickers[%d] cannot be empty", i)
		}
	}

	for i, key := range cfg.API.Keys {
		if key == "" {
			return fmt.Errorf("api.keys[%d] cannot be empty", i)
		}
	}

	return nil
}
