package sqldb

import (
	"database/sql"
	"errors"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

func (s *Store) GetSettings() (models.Settings, error) {
	rows, err := s.query("SELECT key, value FROM settings")
	if err != nil {
		return models.Settings{}, err
	}
	defer rows.Close()

	data := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Settings{}, err
		}
		data[key] = value
	}
	if err := rows.Err(); err != nil {
		return models.Settings{}, err
	}
	if len(data) == 0 {
		return models.Settings{}, apperrors.NotFoundf("settings")
	}

	settings := models.MapToSettings(data)
	models.ApplyDefaultSettings(&settings)
	return settings, nil
}

func (s *Store) SaveSettings(settings models.Settings) error {
	return s.withTx(func(tx *sql.Tx) error {
		for key, value := range models.SettingsToMap(settings) {
			if _, err := s.txExec(tx, upsertSettingSQL, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.queryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.NotFoundf("setting %q", key)
	}
	return value, err
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.exec(upsertSettingSQL, key, value)
	return err
}

const upsertSettingSQL = `INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`
