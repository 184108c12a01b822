package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fentz26/mcphub/internal/models"
)

// AppSettingsKey is the settings key holding the JSON AppSettings blob.
const AppSettingsKey = "app_settings"

// GetSetting returns the value stored under key and whether it exists.
func (s *Store) GetSetting(key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.withTx(func(tx *sql.Tx) error {
		err := tx.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("query setting: %w", err)
		}
		found = true
		return nil
	})
	return value, found, err
}

// SetSetting upserts a key/value pair.
func (s *Store) SetSetting(key, value string) error {
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value,
		)
		if err != nil {
			return fmt.Errorf("upsert setting: %w", err)
		}
		return nil
	})
}

// LoadAppSettings returns the persisted settings. Missing fields keep their
// defaults and an unreadable blob yields the defaults.
func (s *Store) LoadAppSettings() (models.AppSettings, error) {
	settings := models.DefaultAppSettings()
	raw, found, err := s.GetSetting(AppSettingsKey)
	if err != nil || !found {
		return settings, err
	}
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return models.DefaultAppSettings(), nil
	}
	if settings.Discovery.HTTPServerPort == 0 {
		settings.Discovery.HTTPServerPort = models.DefaultDiscoveryPort
	}
	return settings, nil
}

// SaveAppSettings persists the settings blob.
func (s *Store) SaveAppSettings(settings models.AppSettings) error {
	b, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return s.SetSetting(AppSettingsKey, string(b))
}
