package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort    string `mapstructure:"SERVER_PORT"`
	SettingsFile  string `mapstructure:"SETTINGS_FILE"`
	SearchURL     string `mapstructure:"SEARCH_URL"`
	BaseURL       string `mapstructure:"BASE_URL"`
	FetchTimeout  int    `mapstructure:"FETCH_TIMEOUT"`  // seconds
	NotifyTimeout int    `mapstructure:"NOTIFY_TIMEOUT"` // seconds

	// Defaults for the monitor settings when no settings file exists yet.
	TargetCity     string  `mapstructure:"TARGET_CITY"`
	CheckInterval  float64 `mapstructure:"CHECK_INTERVAL"` // minutes
	TelegramToken  string  `mapstructure:"TELEGRAM_TOKEN"`
	TelegramChatID string  `mapstructure:"TELEGRAM_CHAT_ID"`
	MaxPages       int     `mapstructure:"MAX_PAGES"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present.
	// This allows configuration purely through environment variables.
	_ = viper.ReadInConfig()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SETTINGS_FILE", "crouswatch_settings.json")
	viper.SetDefault("SEARCH_URL", "https://trouverunlogement.lescrous.fr/tools/41/search")
	viper.SetDefault("BASE_URL", "https://trouverunlogement.lescrous.fr")
	viper.SetDefault("FETCH_TIMEOUT", 15)  // in seconds
	viper.SetDefault("NOTIFY_TIMEOUT", 10) // in seconds
	viper.SetDefault("CHECK_INTERVAL", 5.0)
	viper.SetDefault("MAX_PAGES", DefaultMaxPages)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FetchTimeoutDuration is the bounded wait applied to each page request.
func (c *Config) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

// NotifyTimeoutDuration is the bounded wait applied to each notification send.
func (c *Config) NotifyTimeoutDuration() time.Duration {
	return time.Duration(c.NotifyTimeout) * time.Second
}

// DefaultSettings builds the initial monitor settings from the app config.
func (c *Config) DefaultSettings() Settings {
	return Settings{
		City:     c.TargetCity,
		Interval: c.CheckInterval,
		BotToken: c.TelegramToken,
		ChatID:   c.TelegramChatID,
		MaxPages: c.MaxPages,
	}
}
