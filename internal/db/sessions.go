package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Spok95/attendance-terminal/internal/models"
)

// GetOrCreateSession — идемпотентный get-or-create сессии на (секция, дата).
// При гонке вставка падает на UNIQUE(section_id, date), и мы перечитываем
// существующую строку: при любом числе вызовов строка ровно одна.
func GetOrCreateSession(ctx context.Context, database *sql.DB, sectionID int64, date string) (*models.Session, error) {
	if s, err := getSessionForDate(ctx, database, sectionID, date); err == nil {
		return s, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	startAt := time.Now().UTC().Format(time.RFC3339)
	_, err := database.ExecContext(ctx, `
INSERT INTO sessions (section_id, date, start_time, status)
VALUES (?, ?, ?, 'active')`, sectionID, date, startAt)
	if err != nil {
		if IsUniqueViolation(err) {
			// кто-то создал строку между select и insert — берём её
			return getSessionForDate(ctx, database, sectionID, date)
		}
		return nil, translate(err)
	}
	return getSessionForDate(ctx, database, sectionID, date)
}

func GetSessionByID(ctx context.Context, database *sql.DB, id int64) (*models.Session, error) {
	row := database.QueryRowContext(ctx, `
SELECT id, section_id, date, start_time, end_time, status
FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

func getSessionForDate(ctx context.Context, database *sql.DB, sectionID int64, date string) (*models.Session, error) {
	row := database.QueryRowContext(ctx, `
SELECT id, section_id, date, start_time, end_time, status
FROM sessions WHERE section_id = ? AND date = ?`, sectionID, date)
	return scanSession(row)
}

// CloseSession переводит сессию в closed и фиксирует время окончания.
func CloseSession(ctx context.Context, database *sql.DB, id int64) error {
	endAt := time.Now().UTC().Format(time.RFC3339)
	res, err := database.ExecContext(ctx, `
UPDATE sessions SET status = 'closed', end_time = ? WHERE id = ?`, endAt, id)
	if err != nil {
		return translate(err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSession(row *sql.Row) (*models.Session, error) {
	var s models.Session
	var startAt string
	var endAt *string
	err := row.Scan(&s.ID, &s.SectionID, &s.Date, &startAt, &endAt, &s.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, translate(err)
	}
	s.StartAt, _ = time.Parse(time.RFC3339, startAt)
	if endAt != nil {
		t, _ := time.Parse(time.RFC3339, *endAt)
		s.EndAt = &t
	}
	return &s, nil
}
