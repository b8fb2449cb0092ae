package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/attendance-terminal/internal/db"
	"github.com/Spok95/attendance-terminal/internal/metrics"
	"github.com/Spok95/attendance-terminal/internal/models"
	"go.uber.org/zap"
)

// cardIDLen — длина номера карты по контракту считывателя: ровно 10 цифр.
const cardIDLen = 10

// Resolver превращает сырое считывание карты в устойчивый факт посещения.
// Хэндл БД передаётся явно при конструировании, глобального соединения нет.
type Resolver struct {
	database  *sql.DB
	log       *zap.SugaredLogger
	threshold int
	now       func() time.Time
}

func NewResolver(database *sql.DB, log *zap.SugaredLogger, threshold int) *Resolver {
	return &Resolver{
		database:  database,
		log:       log,
		threshold: threshold,
		now:       time.Now,
	}
}

// ValidCardID — структурная проверка номера до любого обращения к БД.
func ValidCardID(cardID string) bool {
	if len(cardID) != cardIDLen {
		return false
	}
	for _, r := range cardID {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ResolveTap — конвейер обработки карточки:
//
//  1. структурная проверка номера;
//  2. поиск ученика по карте (нет — регистрация на стороне UI);
//  3. ученик без секций — диалог назначения, ничего не пишем;
//  4. по каждой секции, идущей сегодня: get-or-create сессии и отметка
//     Present/RFID, если записи ещё нет;
//  5. ни одной новой отметки — дубль, перечисляем уже отмеченные секции.
//
// Ошибка возвращается только при отказе хранилища; все остальные случаи —
// это исходы в TapResult.
func (r *Resolver) ResolveTap(ctx context.Context, cardID string) (models.TapResult, error) {
	cardID = strings.TrimSpace(cardID)

	if !ValidCardID(cardID) {
		r.log.Infow("отклонён некорректный номер карты", "card", cardID)
		return r.outcome(models.TapResult{
			Kind:    models.TapInvalidCard,
			CardID:  cardID,
			Message: "Номер карты должен состоять из 10 цифр.",
		}), nil
	}

	student, err := db.GetStudentByCard(ctx, r.database, cardID)
	if errors.Is(err, db.ErrNotFound) {
		r.log.Infow("неизвестная карта", "card", cardID)
		return r.outcome(models.TapResult{
			Kind:    models.TapUnknownCard,
			CardID:  cardID,
			Message: "Карта не зарегистрирована — пройдите регистрацию.",
		}), nil
	}
	if err != nil {
		return models.TapResult{}, fmt.Errorf("поиск по карте: %w", err)
	}

	attended, total, err := db.StudentSummary(ctx, r.database, student.ID)
	if err != nil {
		return models.TapResult{}, err
	}

	enrolled, err := db.GetSectionsForStudent(ctx, r.database, student.ID)
	if err != nil {
		return models.TapResult{}, err
	}
	if len(enrolled) == 0 {
		r.log.Infow("карта без секций", "student_id", student.ID)
		return r.outcome(models.TapResult{
			Kind:          models.TapNoSections,
			CardID:        cardID,
			StudentID:     student.ID,
			FirstName:     student.FirstName,
			LastName:      student.LastName,
			Inactive:      student.Inactive,
			Attended:      attended,
			TotalSessions: total,
			Message:       fmt.Sprintf("У %s нет назначенных секций.", student.FullName()),
		}), nil
	}

	now := r.now()
	today := now.Format("2006-01-02")
	todayDay := models.WeekdayName(now)

	sectionsToday, err := db.GetSectionsForStudentOnDay(ctx, r.database, student.ID, todayDay)
	if err != nil {
		return models.TapResult{}, err
	}

	res := models.TapResult{
		CardID:        cardID,
		StudentID:     student.ID,
		FirstName:     student.FirstName,
		LastName:      student.LastName,
		Inactive:      student.Inactive,
		Attended:      attended,
		TotalSessions: total,
	}

	if len(sectionsToday) == 0 {
		// секций сегодня нет — информационный исход, записей не делаем
		res.Kind = models.TapRecorded
		res.Message = fmt.Sprintf("%s — сегодня (%s) секций нет.", student.FullName(), todayDay)
		return r.outcome(res), nil
	}

	for _, sec := range sectionsToday {
		sess, err := db.GetOrCreateSession(ctx, r.database, sec.ID, today)
		if err != nil {
			return models.TapResult{}, err
		}
		exists, err := db.HasAttendance(ctx, r.database, sess.ID, student.ID)
		if err != nil {
			return models.TapResult{}, err
		}
		if exists {
			res.AlreadyMarked = append(res.AlreadyMarked, sec.Name)
			continue
		}
		if _, err := db.InsertAttendance(ctx, r.database, sess.ID, student.ID, models.StatusPresent, models.MethodRFID); err != nil {
			if errors.Is(err, db.ErrConflict) {
				// запись появилась между проверкой и вставкой — это дубль
				res.AlreadyMarked = append(res.AlreadyMarked, sec.Name)
				continue
			}
			return models.TapResult{}, err
		}
		res.Marked = append(res.Marked, sec.Name)
	}

	if len(res.Marked) == 0 {
		res.Kind = models.TapDuplicate
		res.Message = fmt.Sprintf("%s уже отмечен(а) сегодня: %s",
			student.FullName(), strings.Join(res.AlreadyMarked, ", "))
		r.log.Infow("повторное касание", "student_id", student.ID, "sections", res.AlreadyMarked)
		return r.outcome(res), nil
	}

	// появилась новая отметка — пересчитываем флаг неактивности ученика
	if err := r.RefreshStudent(ctx, student.ID); err != nil {
		r.log.Warnw("пересчёт неактивности после касания", "student_id", student.ID, "err", err)
	} else if refreshed, err := db.GetStudentByID(ctx, r.database, student.ID); err == nil {
		res.Inactive = refreshed.Inactive
	}

	res.Kind = models.TapRecorded
	res.Attended, res.TotalSessions, _ = db.StudentSummary(ctx, r.database, student.ID)
	res.Message = fmt.Sprintf("%s — отмечен(а): %s | %d/%d",
		student.FullName(), strings.Join(res.Marked, ", "), res.Attended, res.TotalSessions)
	r.log.Infow("касание записано", "student_id", student.ID, "sections", res.Marked)
	return r.outcome(res), nil
}

// SetAttendance — административный путь, минует автомат касаний целиком:
// сессия создаётся при необходимости, статус выставляется явно с
// методом Manual, независимо от дня недели и прежних записей.
func (r *Resolver) SetAttendance(ctx context.Context, studentID, sectionID int64, date, status string) error {
	if status != models.StatusPresent && status != models.StatusAbsent {
		return fmt.Errorf("недопустимый статус %q", status)
	}
	if _, err := db.GetStudentByID(ctx, r.database, studentID); err != nil {
		return fmt.Errorf("ученик id=%d: %w", studentID, err)
	}
	sess, err := db.GetOrCreateSession(ctx, r.database, sectionID, date)
	if err != nil {
		return err
	}
	rec, err := db.GetAttendanceRecord(ctx, r.database, sess.ID, studentID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		_, err = db.InsertAttendance(ctx, r.database, sess.ID, studentID, status, models.MethodManual)
		if err != nil {
			return err
		}
	case err != nil:
		return err
	case rec.Status != status:
		if err := db.SetAttendanceStatus(ctx, r.database, sess.ID, studentID, status); err != nil {
			return err
		}
	}
	r.log.Infow("ручная отметка", "student_id", studentID, "section_id", sectionID, "date", date, "status", status)
	return nil
}

// MarkPresentForSections отмечает ученика сразу после регистрации во всех
// только что назначенных секциях (за сегодняшнюю дату). Уже отмеченные
// секции молча пропускаются.
func (r *Resolver) MarkPresentForSections(ctx context.Context, studentID int64, sectionIDs []int64) ([]int64, error) {
	today := r.now().Format("2006-01-02")
	var marked []int64
	for _, secID := range sectionIDs {
		sess, err := db.GetOrCreateSession(ctx, r.database, secID, today)
		if err != nil {
			return marked, err
		}
		exists, err := db.HasAttendance(ctx, r.database, sess.ID, studentID)
		if err != nil {
			return marked, err
		}
		if exists {
			continue
		}
		if _, err := db.InsertAttendance(ctx, r.database, sess.ID, studentID, models.StatusPresent, models.MethodRFID); err != nil {
			if errors.Is(err, db.ErrConflict) {
				continue
			}
			return marked, err
		}
		marked = append(marked, secID)
	}
	return marked, nil
}

func (r *Resolver) outcome(res models.TapResult) models.TapResult {
	metrics.TapsTotal.WithLabelValues(res.Kind.String()).Inc()
	return res
}
