package config

import (
	"strings"
	"time"

	"crouswatch/internal/domain"
)

// Monitor settings bounds. The interval floor guards against hostile polling
// rates; the page cap guards against unbounded pagination on a misbehaving
// site.
const (
	MinIntervalMinutes = 0.5
	MinPages           = 1
	MaxPagesBound      = 50
	DefaultMaxPages    = 5
)

// Settings are the monitor settings: what to look for, how often, and where
// to send notifications. The monitor loop reads a fresh snapshot at the top
// of every cycle, so changes take effect on the next cycle, not mid-scan.
type Settings struct {
	City     string  `json:"target_city" mapstructure:"target_city"`
	Interval float64 `json:"check_interval" mapstructure:"check_interval"` // minutes
	BotToken string  `json:"telegram_token" mapstructure:"telegram_token"`
	ChatID   string  `json:"telegram_chat_id" mapstructure:"telegram_chat_id"`
	MaxPages int     `json:"max_pages" mapstructure:"max_pages"`
}

// Validate reports the first invalid field as a *domain.ConfigError.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.City) == "" {
		return &domain.ConfigError{Field: "target_city", Reason: "must not be empty"}
	}
	if s.Interval < MinIntervalMinutes {
		return &domain.ConfigError{Field: "check_interval", Reason: "must be at least 0.5 minutes"}
	}
	if s.BotToken == "" {
		return &domain.ConfigError{Field: "telegram_token", Reason: "must not be empty"}
	}
	if s.ChatID == "" {
		return &domain.ConfigError{Field: "telegram_chat_id", Reason: "must not be empty"}
	}
	if s.MaxPages < MinPages || s.MaxPages > MaxPagesBound {
		return &domain.ConfigError{Field: "max_pages", Reason: "must be between 1 and 50"}
	}
	return nil
}

// IntervalDuration converts the interval from minutes to a time.Duration.
func (s Settings) IntervalDuration() time.Duration {
	return time.Duration(s.Interval * float64(time.Minute))
}

// Credentials returns the messaging endpoint credentials from this snapshot.
func (s Settings) Credentials() domain.Credentials {
	return domain.Credentials{BotToken: s.BotToken, ChatID: s.ChatID}
}
