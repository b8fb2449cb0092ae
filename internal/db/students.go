package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/attendance-terminal/internal/models"
)

func CreateStudent(ctx context.Context, database *sql.DB, firstName, lastName string, cardID *string) (int64, error) {
	createdAt := time.Now().UTC().Format(time.RFC3339)
	res, err := database.ExecContext(ctx, `
INSERT INTO students (first_name, last_name, card_id, created_at)
VALUES (?, ?, ?, ?)`,
		strings.TrimSpace(firstName), strings.TrimSpace(lastName), cardID, createdAt)
	if err != nil {
		return 0, translate(err)
	}
	return res.LastInsertId()
}

func GetStudentByID(ctx context.Context, database *sql.DB, id int64) (*models.Student, error) {
	row := database.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, card_id, is_inactive, created_at FROM students WHERE id = ?`, id)
	return scanStudent(row)
}

func GetStudentByCard(ctx context.Context, database *sql.DB, cardID string) (*models.Student, error) {
	row := database.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, card_id, is_inactive, created_at FROM students WHERE card_id = ?`, cardID)
	return scanStudent(row)
}

func ListStudents(ctx context.Context, database *sql.DB) ([]models.Student, error) {
	rows, err := database.QueryContext(ctx, `
SELECT id, first_name, last_name, card_id, is_inactive, created_at
FROM students
ORDER BY CAST(card_id AS INTEGER) ASC, last_name, first_name`)
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
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

func UpdateStudentName(ctx context.Context, database *sql.DB, id int64, firstName, lastName string) error {
	res, err := database.ExecContext(ctx,
		`UPDATE students SET first_name = ?, last_name = ? WHERE id = ?`,
		strings.TrimSpace(firstName), strings.TrimSpace(lastName), id)
	if err != nil {
		return translate(err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteStudent удаляет ученика и все зависимые строки одной транзакцией,
// в FK-безопасном порядке: attendance → student_sections → students.
func DeleteStudent(ctx context.Context, database *sql.DB, id int64) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return translate(err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM attendance WHERE student_id = ?`,
		`DELETE FROM student_sections WHERE student_id = ?`,
		`DELETE FROM students WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return translate(err)
		}
	}
	return translate(tx.Commit())
}

// AssignCard атомарно привязывает карту к ученику: сначала снимает её
// с прежнего владельца, затем записывает новому. Оба шага в одной
// транзакции, чтобы UNIQUE(card_id) держался на каждом промежуточном шаге.
func AssignCard(ctx context.Context, database *sql.DB, studentID int64, cardID string) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return translate(err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE students SET card_id = NULL WHERE card_id = ? AND id != ?`, cardID, studentID); err != nil {
		return translate(err)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE students SET card_id = ? WHERE id = ?`, cardID, studentID)
	if err != nil {
		return translate(err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return fmt.Errorf("ученик id=%d: %w", studentID, ErrNotFound)
	}
	return translate(tx.Commit())
}

func RemoveCard(ctx context.Context, database *sql.DB, studentID int64) error {
	_, err := database.ExecContext(ctx,
		`UPDATE students SET card_id = NULL WHERE id = ?`, studentID)
	return translate(err)
}

func SetInactive(ctx context.Context, database *sql.DB, studentID int64, inactive bool) error {
	_, err := database.ExecContext(ctx,
		`UPDATE students SET is_inactive = ? WHERE id = ?`, inactive, studentID)
	return translate(err)
}

// EnrollStudent — идемпотентная запись ученика в секцию.
func EnrollStudent(ctx context.Context, database *sql.DB, studentID, sectionID int64) error {
	_, err := database.ExecContext(ctx,
		`INSERT OR IGNORE INTO student_sections (student_id, section_id) VALUES (?, ?)`,
		studentID, sectionID)
	return translate(err)
}

func UnenrollStudent(ctx context.Context, database *sql.DB, studentID, sectionID int64) error {
	_, err := database.ExecContext(ctx,
		`DELETE FROM student_sections WHERE student_id = ? AND section_id = ?`,
		studentID, sectionID)
	return translate(err)
}

func GetSectionsForStudent(ctx context.Context, database *sql.DB, studentID int64) ([]models.Section, error) {
	rows, err := database.QueryContext(ctx, `
SELECT s.id, s.name, s.type, s.level, s.day, s.time
FROM sections s
JOIN student_sections ss ON ss.section_id = s.id
WHERE ss.student_id = ?
ORDER BY s.name`, studentID)
	if err != nil {
		return nil, translate(err)
	}
	defer func() { _ = rows.Close() }()
	return collectSections(rows)
}

func scanStudent(row *sql.Row) (*models.Student, error) {
	var s models.Student
	var createdAt string
	err := row.Scan(&s.ID, &s.FirstName, &s.LastName, &s.CardID, &s.Inactive, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, translate(err)
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &s, nil
}
