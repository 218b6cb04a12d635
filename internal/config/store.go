package config

import (
	"os"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Store holds the current monitor settings behind a mutex. The control
// surface writes them at any time; the monitor loop reads a value snapshot
// at cycle boundaries, so a cycle never observes a half-updated pair.
// Last-used values are persisted to a settings file between sessions.
type Store struct {
	mu      sync.RWMutex
	path    string
	current Settings
	logger  *zap.Logger
}

// NewStore loads the persisted settings from path when the file exists,
// falling back to defaults otherwise.
func NewStore(path string, defaults Settings, logger *zap.Logger) *Store {
	st := &Store{path: path, current: defaults, logger: logger}

	if _, err := os.Stat(path); err != nil {
		logger.Info("no previous settings found, using defaults", zap.String("path", path))
		return st
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		logger.Warn("failed to read settings file", zap.String("path", path), zap.Error(err))
		return st
	}

	loaded := defaults
	if err := v.Unmarshal(&loaded); err != nil {
		logger.Warn("failed to parse settings file", zap.String("path", path), zap.Error(err))
		return st
	}

	st.current = loaded
	logger.Info("settings loaded", zap.String("path", path), zap.String("city", loaded.City))
	return st
}

// Snapshot returns a copy of the current settings.
func (st *Store) Snapshot() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Update validates and replaces the settings, then persists them as the
// last-used values. A persistence failure is logged but does not reject
// the update.
func (st *Store) Update(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	st.mu.Lock()
	st.current = s
	st.mu.Unlock()

	if err := st.persist(s); err != nil {
		st.logger.Warn("failed to persist settings", zap.String("path", st.path), zap.Error(err))
	}
	return nil
}

func (st *Store) persist(s Settings) error {
	v := viper.New()
	v.SetConfigType("json")
	v.Set("target_city", s.City)
	v.Set("check_interval", s.Interval)
	v.Set("telegram_token", s.BotToken)
	v.Set("telegram_chat_id", s.ChatID)
	v.Set("max_pages", s.MaxPages)
	return v.WriteConfigAs(st.path)
}
