package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Spok95/attendance-terminal/internal/models"
)

// InsertAttendance добавляет отметку. Запись на (сессия, ученик) одна:
// повторная вставка возвращает ErrConflict, молчаливой перезаписи нет.
func InsertAttendance(ctx context.Context, database *sql.DB, sessionID, studentID int64, status, method string) (int64, error) {
	ts := time.Now().UTC().Format(time.RFC3339)
	res, err := database.ExecContext(ctx, `
INSERT INTO attendance (session_id, student_id, status, method, timestamp)
VALUES (?, ?, ?, ?, ?)`, sessionID, studentID, status, method, ts)
	if err != nil {
		return 0, translate(err)
	}
	return res.LastInsertId()
}

func GetAttendanceRecord(ctx context.Context, database *sql.DB, sessionID, studentID int64) (*models.AttendanceRecord, error) {
	var r models.AttendanceRecord
	var ts string
	err := database.QueryRowContext(ctx, `
SELECT id, session_id, student_id, status, method, timestamp
FROM attendance WHERE session_id = ? AND student_id = ?`, sessionID, studentID).
		Scan(&r.ID, &r.SessionID, &r.StudentID, &r.Status, &r.Method, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, translate(err)
	}
	r.Timestamp, _ = time.Parse(time.RFC3339, ts)
	return &r, nil
}

// HasAttendance — есть ли уже отметка любого статуса для (сессия, ученик).
// Ручная отметка Absent тоже считается: дубль-детекция смотрит на наличие
// записи, а не на её статус.
func HasAttendance(ctx context.Context, database *sql.DB, sessionID, studentID int64) (bool, error) {
	_, err := GetAttendanceRecord(ctx, database, sessionID, studentID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetAttendanceStatus — явный переход статуса существующей записи.
// Метод всегда становится Manual: статус меняют только руками.
func SetAttendanceStatus(ctx context.Context, database *sql.DB, sessionID, studentID int64, status string) error {
	ts := time.Now().UTC().Format(time.RFC3339)
	res, err := database.ExecContext(ctx, `
UPDATE attendance SET status = ?, method = ?, timestamp = ?
WHERE session_id = ? AND student_id = ?`,
		status, models.MethodManual, ts, sessionID, studentID)
	if err != nil {
		return translate(err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return ErrNotFound
	}
	return nil
}

// TrailingStatuses — статусы ученика по всем сессиям его секций,
// от новых к старым. Сессия без записи считается пропуском.
func TrailingStatuses(ctx context.Context, database *sql.DB, studentID int64) ([]string, error) {
	rows, err := database.QueryContext(ctx, `
SELECT COALESCE(a.status, 'Absent') AS status
FROM student_sections ss
JOIN sessions sess ON sess.section_id = ss.section_id
LEFT JOIN attendance a ON a.session_id = sess.id AND a.student_id = ss.student_id
WHERE ss.student_id = ?
ORDER BY sess.date DESC, sess.id DESC`, studentID)
	if err != nil {
		return nil, translate(err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, translate(err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// StudentSummary — (посещено, всего сессий) по всем секциям ученика.
func StudentSummary(ctx context.Context, database *sql.DB, studentID int64) (attended, total int, err error) {
	err = database.QueryRowContext(ctx, `
SELECT
    COUNT(CASE WHEN a.status = 'Present' THEN 1 END),
    COUNT(DISTINCT sess.id)
FROM student_sections ss
LEFT JOIN sessions sess ON sess.section_id = ss.section_id
LEFT JOIN attendance a ON a.student_id = ? AND a.session_id = sess.id
WHERE ss.student_id = ?`, studentID, studentID).Scan(&attended, &total)
	if err != nil {
		return 0, 0, translate(err)
	}
	return attended, total, nil
}

// SummaryRows — сводка «посещено/всего» по каждому ученику, для выгрузки.
func SummaryRows(ctx context.Context, database *sql.DB) ([]models.SummaryRow, error) {
	rows, err := database.QueryContext(ctx, `
SELECT s.id,
       s.first_name,
       s.last_name,
       s.card_id,
       COUNT(CASE WHEN a.status = 'Present' THEN 1 END) AS attended,
       COUNT(DISTINCT sess.id)                          AS total_sessions
FROM students s
LEFT JOIN student_sections ss   ON ss.student_id   = s.id
LEFT JOIN sessions         sess ON sess.section_id = ss.section_id
LEFT JOIN attendance       a    ON a.student_id    = s.id AND a.session_id = sess.id
GROUP BY s.id
ORDER BY s.last_name, s.first_name`)
	if err != nil {
		return nil, translate(err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.SummaryRow
	for rows.Next() {
		var r models.SummaryRow
		if err := rows.Scan(&r.StudentID, &r.FirstName, &r.LastName, &r.CardID, &r.Attended, &r.TotalSessions); err != nil {
			return nil, translate(err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
