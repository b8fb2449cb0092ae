package db

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/Spok95/attendance-terminal/internal/models"
)

func GetSetting(ctx context.Context, database *sql.DB, key string) (string, error) {
	var v string
	err := database.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", translate(err)
	}
	return v, nil
}

func SetSetting(ctx context.Context, database *sql.DB, key, value string) error {
	_, err := database.ExecContext(ctx,
		`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	return translate(err)
}

// LoadSettings читает все операторские настройки в типизированный снимок.
func LoadSettings(ctx context.Context, database *sql.DB) (*models.Settings, error) {
	rows, err := database.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, translate(err)
	}
	defer func() { _ = rows.Close() }()

	raw := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, translate(err)
		}
		raw[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}

	s := &models.Settings{
		AbsenceThreshold: 3,
		AdminPINHash:     raw[models.SettingAdminPIN],
		Language:         raw[models.SettingLanguage],
		SummaryPath:      raw[models.SettingSummaryPath],
	}
	if n, err := strconv.Atoi(raw[models.SettingAbsenceThreshold]); err == nil && n > 0 {
		s.AbsenceThreshold = n
	}
	return s, nil
}
