package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open открывает файл БД и включает обязательные PRAGMA.
// WAL включается при каждом открытии: процесс может быть убит в любой момент,
// закоммиченные данные при этом не должны пострадать.
func Open(path string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("открытие БД %s: %w", path, err)
	}
	// одна пишущая горутина — пул соединений не нужен
	database.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := database.Exec(pragma); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("pragma %q: %w", pragma, err)
		}
	}

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping БД: %w", translate(err))
	}
	return database, nil
}
