package attendance_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/Spok95/attendance-terminal/internal/attendance"
	"github.com/Spok95/attendance-terminal/internal/db"
	"github.com/Spok95/attendance-terminal/internal/models"
	"github.com/Spok95/attendance-terminal/internal/testutil/testdb"
	"go.uber.org/zap"
)

func newResolver(t *testing.T, database *sql.DB) *attendance.Resolver {
	t.Helper()
	return attendance.NewResolver(database, zap.NewNop().Sugar(), 3)
}

func today() (string, string) {
	now := time.Now()
	return now.Format("2006-01-02"), models.WeekdayName(now)
}

func TestResolveTap_InvalidCard(t *testing.T) {
	h, err := testdb.Start()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	r := newResolver(t, h.DB)

	for _, card := range []string{"", "12345", "12345678901", "12345abcde"} {
		res, err := r.ResolveTap(context.Background(), card)
		if err != nil {
			t.Fatal(err)
		}
		if res.Kind != models.TapInvalidCard {
			t.Fatalf("карта %q: ожидали invalid_card, получили %s", card, res.Kind)
		}
	}

	// до обращения к БД дело не дошло — записей нет
	var n int
	if err := h.DB.QueryRow(`SELECT COUNT(*) FROM attendance`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("некорректная карта не должна создавать записей, нашли %d", n)
	}
}

func TestResolveTap_UnknownCard(t *testing.T) {
	h, err := testdb.Start()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	r := newResolver(t, h.DB)

	res, err := r.ResolveTap(context.Background(), "9999999999")
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != models.TapUnknownCard {
		t.Fatalf("ожидали unknown_card, получили %s", res.Kind)
	}
}

func TestResolveTap_NoSections(t *testing.T) {
	h, err := testdb.Start()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	ctx := context.Background()
	r := newResolver(t, h.DB)

	card := "1234567890"
	stID, err := db.CreateStudent(ctx, h.DB, "Айше", "Демир", &card)
	if err != nil {
		t.Fatal(err)
	}

	res, err := r.ResolveTap(ctx, card)
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != models.TapNoSections {
		t.Fatalf("ожидали no_sections, получили %s", res.Kind)
	}
	if res.StudentID != stID {
		t.Fatalf("исход должен нести id ученика для диалога назначения")
	}
}

func TestResolveTap_RecordedThenDuplicate(t *testing.T) {
	h, err := testdb.Start()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	ctx := context.Background()
	r := newResolver(t, h.DB)

	_, day := today()
	secID, err := db.CreateSection(ctx, h.DB, models.Section{
		Name: "A", Type: "Normal", Level: "Beginner", Day: day, Time: "18:00",
	})
	if err != nil {
		t.Fatal(err)
	}
	card := "1234567890"
	stID, err := db.CreateStudent(ctx, h.DB, "X", "Тест", &card)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.EnrollStudent(ctx, h.DB, stID, secID); err != nil {
		t.Fatal(err)
	}

	first, err := r.ResolveTap(ctx, card)
	if err != nil {
		t.Fatal(err)
	}
	if first.Kind != models.TapRecorded {
		t.Fatalf("первое касание: ожидали recorded, получили %s", first.Kind)
	}
	if len(first.Marked) != 1 || first.Marked[0] != "A" {
		t.Fatalf("ожидали отметку в 'A', получили %v", first.Marked)
	}

	second, err := r.ResolveTap(ctx, card)
	if err != nil {
		t.Fatal(err)
	}
	if second.Kind != models.TapDuplicate {
		t.Fatalf("второе касание: ожидали duplicate, получили %s", second.Kind)
	}
	if len(second.AlreadyMarked) != 1 || second.AlreadyMarked[0] != "A" {
		t.Fatalf("дубль должен перечислять 'A', получили %v", second.AlreadyMarked)
	}
}

func TestResolveTap_NoSectionsToday(t *testing.T) {
	h, err := testdb.Start()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	ctx := context.Background()
	r := newResolver(t, h.DB)

	// секция идёт «завтра», сегодня записей быть не должно
	_, day := today()
	d, _ := models.ParseWeekday(day)
	tomorrow := time.Weekday((int(d) + 1) % 7).String()

	secID, err := db.CreateSection(ctx, h.DB, models.Section{
		Name: "B", Type: "Normal", Level: "Beginner", Day: tomorrow, Time: "19:00",
	})
	if err != nil {
		t.Fatal(err)
	}
	card := "2222222222"
	stID, err := db.CreateStudent(ctx, h.DB, "Y", "Тест", &card)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.EnrollStudent(ctx, h.DB, stID, secID); err != nil {
		t.Fatal(err)
	}

	res, err := r.ResolveTap(ctx, card)
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != models.TapRecorded || len(res.Marked) != 0 {
		t.Fatalf("без секций сегодня: ожидали recorded без отметок, получили %s %v", res.Kind, res.Marked)
	}
	var n int
	if err := h.DB.QueryRow(`SELECT COUNT(*) FROM attendance`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("записей быть не должно, нашли %d", n)
	}
}

// Ручная отметка (даже Absent) создаёт запись на (сессия, ученик), поэтому
// следующее автоматическое касание считает секцию закрытой и отвечает
// дублем. Задокументированное поведение: ручные правки сильнее автомата.
func TestResolveTap_ManualAbsentPreemptsAutomatic(t *testing.T) {
	h, err := testdb.Start()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	ctx := context.Background()
	r := newResolver(t, h.DB)

	date, day := today()
	secID, err := db.CreateSection(ctx, h.DB, models.Section{
		Name: "A", Type: "Normal", Level: "Beginner", Day: day, Time: "18:00",
	})
	if err != nil {
		t.Fatal(err)
	}
	card := "1234567890"
	stID, err := db.CreateStudent(ctx, h.DB, "X", "Тест", &card)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.EnrollStudent(ctx, h.DB, stID, secID); err != nil {
		t.Fatal(err)
	}

	if err := r.SetAttendance(ctx, stID, secID, date, models.StatusAbsent); err != nil {
		t.Fatal(err)
	}

	res, err := r.ResolveTap(ctx, card)
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != models.TapDuplicate {
		t.Fatalf("после ручного Absent ожидали duplicate, получили %s", res.Kind)
	}

	// запись не перезаписана автоматом
	sess, err := db.GetOrCreateSession(ctx, h.DB, secID, date)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := db.GetAttendanceRecord(ctx, h.DB, sess.ID, stID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != models.StatusAbsent || rec.Method != models.MethodManual {
		t.Fatalf("ручная запись должна остаться Absent/Manual, получили %s/%s", rec.Status, rec.Method)
	}
}

func TestSetAttendance_ExplicitTransitions(t *testing.T) {
	h, err := testdb.Start()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	ctx := context.Background()
	r := newResolver(t, h.DB)

	secID, err := db.CreateSection(ctx, h.DB, models.Section{
		Name: "C", Type: "Technique", Level: "Advanced", Day: "Wednesday", Time: "20:00",
	})
	if err != nil {
		t.Fatal(err)
	}
	stID, err := db.CreateStudent(ctx, h.DB, "Z", "Тест", nil)
	if err != nil {
		t.Fatal(err)
	}

	// день недели и записи роли не играют — путь административный
	if err := r.SetAttendance(ctx, stID, secID, "2026-08-27", models.StatusPresent); err != nil {
		t.Fatal(err)
	}
	sess, err := db.GetOrCreateSession(ctx, h.DB, secID, "2026-08-27")
	if err != nil {
		t.Fatal(err)
	}
	rec, err := db.GetAttendanceRecord(ctx, h.DB, sess.ID, stID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != models.StatusPresent || rec.Method != models.MethodManual {
		t.Fatalf("ожидали Present/Manual, получили %s/%s", rec.Status, rec.Method)
	}

	// явный переход статуса, не молчаливая перезапись
	if err := r.SetAttendance(ctx, stID, secID, "2026-08-27", models.StatusAbsent); err != nil {
		t.Fatal(err)
	}
	rec, err = db.GetAttendanceRecord(ctx, h.DB, sess.ID, stID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != models.StatusAbsent {
		t.Fatalf("ожидали переход в Absent, получили %s", rec.Status)
	}

	if err := r.SetAttendance(ctx, stID, secID, "2026-08-27", "Unknown"); err == nil {
		t.Fatal("недопустимый статус должен отклоняться")
	}
}
