package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Spok95/attendance-terminal/internal/models"
)

func CreateSection(ctx context.Context, database *sql.DB, s models.Section) (int64, error) {
	if _, err := models.ParseWeekday(s.Day); err != nil {
		return 0, err
	}
	res, err := database.ExecContext(ctx, `
INSERT INTO sections (name, type, level, day, time)
VALUES (?, ?, ?, ?, ?)`,
		strings.TrimSpace(s.Name), strings.TrimSpace(s.Type), strings.TrimSpace(s.Level),
		strings.TrimSpace(s.Day), strings.TrimSpace(s.Time))
	if err != nil {
		return 0, translate(err)
	}
	return res.LastInsertId()
}

func GetSectionByID(ctx context.Context, database *sql.DB, id int64) (*models.Section, error) {
	var s models.Section
	err := database.QueryRowContext(ctx,
		`SELECT id, name, type, level, day, time FROM sections WHERE id = ?`, id).
		Scan(&s.ID, &s.Name, &s.Type, &s.Level, &s.Day, &s.Time)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func ListSections(ctx context.Context, database *sql.DB) ([]models.Section, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT id, name, type, level, day, time FROM sections ORDER BY name`)
	if err != nil {
		return nil, translate(err)
	}
	defer func() { _ = rows.Close() }()
	return collectSections(rows)
}

func UpdateSection(ctx context.Context, database *sql.DB, s models.Section) error {
	if _, err := models.ParseWeekday(s.Day); err != nil {
		return err
	}
	res, err := database.ExecContext(ctx, `
UPDATE sections SET name = ?, type = ?, level = ?, day = ?, time = ?
WHERE id = ?`,
		strings.TrimSpace(s.Name), strings.TrimSpace(s.Type), strings.TrimSpace(s.Level),
		strings.TrimSpace(s.Day), strings.TrimSpace(s.Time), s.ID)
	if err != nil {
		return translate(err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSection удаляет секцию каскадом в одной транзакции.
// Порядок обязателен: attendance → sessions → student_sections → sections,
// иначе падаем на внешних ключах.
func DeleteSection(ctx context.Context, database *sql.DB, id int64) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return translate(err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM attendance WHERE session_id IN (SELECT id FROM sessions WHERE section_id = ?)`,
		`DELETE FROM sessions WHERE section_id = ?`,
		`DELETE FROM student_sections WHERE section_id = ?`,
		`DELETE FROM sections WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return translate(err)
		}
	}
	return translate(tx.Commit())
}

func GetEnrolledStudents(ctx context.Context, database *sql.DB, sectionID int64) ([]models.Student, error) {
	rows, err := database.QueryContext(ctx, `
SELECT st.id, st.first_name, st.last_name, st.card_id, st.is_inactive, st.created_at
FROM students st
JOIN student_sections ss ON ss.student_id = st.id
WHERE ss.section_id = ?
ORDER BY st.last_name, st.first_name`, sectionID)
	if err != nil {
		return nil, translate(err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Student
	for rows.Next() {
		var s models.Student
		var createdAt string
		if err := rows.Scan(&s.ID, &s.FirstName, &s.LastName, &s.CardID, &s.Inactive, &createdAt); err != nil {
			return nil, translate(err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSectionsForStudentOnDay — секции ученика, идущие в указанный день недели.
// day — английское имя из фиксированного словаря, не локализованная строка.
func GetSectionsForStudentOnDay(ctx context.Context, database *sql.DB, studentID int64, day string) ([]models.Section, error) {
	rows, err := database.QueryContext(ctx, `
SELECT s.id, s.name, s.type, s.level, s.day, s.time
FROM sections s
JOIN student_sections ss ON ss.section_id = s.id
WHERE ss.student_id = ? AND LOWER(s.day) = LOWER(?)
ORDER BY s.time, s.name`, studentID, day)
	if err != nil {
		return nil, translate(err)
	}
	defer func() { _ = rows.Close() }()
	return collectSections(rows)
}

func collectSections(rows *sql.Rows) ([]models.Section, error) {
	var out []models.Section
	for rows.Next() {
		var s models.Section
		if err := rows.Scan(&s.ID, &s.Name, &s.Type, &s.Level, &s.Day, &s.Time); err != nil {
			return nil, translate(err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
