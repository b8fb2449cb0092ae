package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Spok95/attendance-terminal/internal/db"
	"github.com/Spok95/attendance-terminal/internal/models"
	"github.com/Spok95/attendance-terminal/internal/testutil/testdb"
)

func TestDeleteSection_Cascade(t *testing.T) {
	h, err := testdb.Start()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	ctx := context.Background()

	secID := mustSeedSection(t, h.DB, "Хип-хоп", "Monday")
	st1 := mustSeedStudent(t, h.DB, "Айше", "Демир", ptrString("1111111111"))
	st2 := mustSeedStudent(t, h.DB, "Мехмет", "Кая", ptrString("2222222222"))
	for _, st := range []int64{st1, st2} {
		if err := db.EnrollStudent(ctx, h.DB, st, secID); err != nil {
			t.Fatal(err)
		}
	}

	// пара исторических сессий с отметками
	var sessionIDs []int64
	for _, date := range []string{"2026-08-24", "2026-08-31"} {
		s, err := db.GetOrCreateSession(ctx, h.DB, secID, date)
		if err != nil {
			t.Fatal(err)
		}
		sessionIDs = append(sessionIDs, s.ID)
		if _, err := db.InsertAttendance(ctx, h.DB, s.ID, st1, models.StatusPresent, models.MethodRFID); err != nil {
			t.Fatal(err)
		}
	}

	if err := db.DeleteSection(ctx, h.DB, secID); err != nil {
		t.Fatal(err)
	}

	for _, id := range sessionIDs {
		if _, err := db.GetSessionByID(ctx, h.DB, id); !errors.Is(err, db.ErrNotFound) {
			t.Fatalf("сессия id=%d должна исчезнуть, получили err=%v", id, err)
		}
	}
	var n int
	if err := h.DB.QueryRow(`SELECT COUNT(*) FROM attendance`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("отметки должны быть удалены каскадом, осталось %d", n)
	}
	if err := h.DB.QueryRow(`SELECT COUNT(*) FROM student_sections WHERE section_id = ?`, secID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("записи в секцию должны быть удалены каскадом, осталось %d", n)
	}
	if _, err := db.GetSectionByID(ctx, h.DB, secID); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("секция должна исчезнуть, получили err=%v", err)
	}
	// ученики остаются
	if _, err := db.GetStudentByID(ctx, h.DB, st1); err != nil {
		t.Fatalf("ученик не должен удаляться вместе с секцией: %v", err)
	}
}

func TestDeleteStudent_Cascade(t *testing.T) {
	h, err := testdb.Start()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	ctx := context.Background()

	secID := mustSeedSection(t, h.DB, "Брейк", "Tuesday")
	stID := mustSeedStudent(t, h.DB, "Зейнеп", "Челик", ptrString("3333333333"))
	if err := db.EnrollStudent(ctx, h.DB, stID, secID); err != nil {
		t.Fatal(err)
	}
	s, err := db.GetOrCreateSession(ctx, h.DB, secID, "2026-08-25")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.InsertAttendance(ctx, h.DB, s.ID, stID, models.StatusPresent, models.MethodRFID); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteStudent(ctx, h.DB, stID); err != nil {
		t.Fatal(err)
	}

	if _, err := db.GetStudentByID(ctx, h.DB, stID); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("ученик должен исчезнуть, получили err=%v", err)
	}
	var n int
	if err := h.DB.QueryRow(`SELECT COUNT(*) FROM attendance WHERE student_id = ?`, stID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("отметки ученика должны быть удалены, осталось %d", n)
	}
	// сессия при этом живёт
	if _, err := db.GetSessionByID(ctx, h.DB, s.ID); err != nil {
		t.Fatalf("сессия не должна удаляться вместе с учеником: %v", err)
	}
}

func TestAssignCard_MovesCardAtomically(t *testing.T) {
	h, err := testdb.Start()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	ctx := context.Background()

	oldHolder := mustSeedStudent(t, h.DB, "Эмре", "Шахин", ptrString("4444444444"))
	newHolder := mustSeedStudent(t, h.DB, "Элиф", "Арслан", nil)

	if err := db.AssignCard(ctx, h.DB, newHolder, "4444444444"); err != nil {
		t.Fatal(err)
	}

	prev, err := db.GetStudentByID(ctx, h.DB, oldHolder)
	if err != nil {
		t.Fatal(err)
	}
	if prev.CardID != nil {
		t.Fatalf("карта должна быть снята с прежнего владельца, получили %q", *prev.CardID)
	}
	cur, err := db.GetStudentByCard(ctx, h.DB, "4444444444")
	if err != nil {
		t.Fatal(err)
	}
	if cur.ID != newHolder {
		t.Fatalf("карта должна принадлежать id=%d, получили id=%d", newHolder, cur.ID)
	}
}

func TestInsertAttendance_Conflict(t *testing.T) {
	h, err := testdb.Start()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	ctx := context.Background()

	secID := mustSeedSection(t, h.DB, "Сальса", "Friday")
	stID := mustSeedStudent(t, h.DB, "Джан", "Йылдыз", ptrString("5555555555"))
	s, err := db.GetOrCreateSession(ctx, h.DB, secID, "2026-08-28")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := db.InsertAttendance(ctx, h.DB, s.ID, stID, models.StatusPresent, models.MethodRFID); err != nil {
		t.Fatal(err)
	}
	_, err = db.InsertAttendance(ctx, h.DB, s.ID, stID, models.StatusPresent, models.MethodRFID)
	if !errors.Is(err, db.ErrConflict) {
		t.Fatalf("повторная вставка должна давать ErrConflict, получили %v", err)
	}
}
