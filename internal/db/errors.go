package db

import (
	"database/sql"
	"errors"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Таксономия ошибок хранилища. Выше границы резолвера/аутентификации
// низкоуровневые ошибки драйвера не выходят — только эти.
var (
	// ErrNotFound — запись, на которую рассчитывал вызвавший, отсутствует.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — нарушение уникальности (карта, сессия, отметка).
	ErrConflict = errors.New("нарушение уникальности")
	// ErrStoreUnavailable — файл БД недоступен или заблокирован.
	ErrStoreUnavailable = errors.New("хранилище недоступно")
)

// IsUniqueViolation — сработал ли UNIQUE/PK-констрейнт sqlite.
func IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// translate сводит ошибку драйвера к одной из ошибок таксономии,
// сохраняя исходную через %w для логов.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if IsUniqueViolation(err) {
		return errors.Join(ErrConflict, err)
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED,
			sqlite3.SQLITE_IOERR, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_READONLY:
			return errors.Join(ErrStoreUnavailable, err)
		}
	}
	return err
}
