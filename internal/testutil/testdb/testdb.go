package testdb

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/Spok95/attendance-terminal/internal/db"
)

type DBHandle struct {
	DB  *sql.DB
	dir string
}

func (h *DBHandle) Close() {
	if h.DB != nil {
		_ = h.DB.Close()
	}
	if h.dir != "" {
		_ = os.RemoveAll(h.dir)
	}
}

// Start открывает чистую БД во временном файле и применяет миграции.
// Контейнеры не нужны: хранилище встроенное.
func Start() (*DBHandle, error) {
	dir, err := os.MkdirTemp("", "attendance-test-")
	if err != nil {
		return nil, err
	}

	database, err := db.Open(filepath.Join(dir, "attendance.db"))
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	if err := db.Migrate(database); err != nil {
		_ = database.Close()
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return &DBHandle{DB: database, dir: dir}, nil
}
