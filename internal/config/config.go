package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider    string `yaml:"provider"` // "fyers" (default) or "yahoo"
		BaseURL     string `yaml:"base_url"`
		AccessToken string `yaml:"access_token"`
	} `yaml:"data_source"`
	Market struct {
		Timezone string `yaml:"timezone"`
	} `yaml:"market"`
	Watchlist struct {
		File string `yaml:"file"`
	} `yaml:"watchlist"`
	Schedule struct {
		Cron string `yaml:"cron"` // empty means a single run-to-completion
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Logging struct {
		Dir        string `yaml:"dir"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logging"`
	Diagnostics struct {
		SendLog         bool `yaml:"send_log"`
		SendTestMessage bool `yaml:"send_test_message"`
	} `yaml:"diagnostics"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("FYERS_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("FYERS_ACCESS_TOKEN"); v != "" {
		cfg.DataSource.AccessToken = v
	}
	if v := os.Getenv("WATCHLIST_FILE"); v != "" {
		cfg.Watchlist.File = v
	}
	if v := os.Getenv("CRON_SCHEDULE"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SEND_DIAGNOSTIC_LOG"); v == "true" {
		cfg.Diagnostics.SendLog = true
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "fyers"
	}
	if cfg.Market.Timezone == "" {
		cfg.Market.Timezone = "Asia/Kolkata"
	}
	if cfg.Watchlist.File == "" {
		cfg.Watchlist.File = "configs/watchlist.csv"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/crosssentinel.db"
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 50
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 5
	}
	if cfg.Logging.MaxAgeDays == 0 {
		cfg.Logging.MaxAgeDays = 14
	}

	return cfg, nil
}

// Validate checks that all required fields are set. A failure here aborts
// the process before any row is processed.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	switch c.DataSource.Provider {
	case "fyers":
		if c.DataSource.AccessToken == "" {
			return fmt.Errorf("data_source.access_token is required for the fyers provider")
		}
	case "yahoo":
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	if c.Watchlist.File == "" && os.Getenv("TRADE_CONFIGS") == "" {
		return fmt.Errorf("watchlist.file or TRADE_CONFIGS is required")
	}
	return nil
}
