package attendance

import (
	"context"

	"github.com/Spok95/attendance-terminal/internal/db"
	"github.com/Spok95/attendance-terminal/internal/models"
)

// consecutiveAbsences — длина хвостовой серии пропусков: идём от самой
// свежей сессии и останавливаемся на первой отметке Present.
func consecutiveAbsences(statuses []string) int {
	n := 0
	for _, s := range statuses {
		if s == models.StatusPresent {
			break
		}
		n++
	}
	return n
}

// RefreshStudent пересчитывает флаг неактивности одного ученика.
// Ученик без секций в расчёте не участвует: флаг всегда снимается.
func (r *Resolver) RefreshStudent(ctx context.Context, studentID int64) error {
	enrolled, err := db.GetSectionsForStudent(ctx, r.database, studentID)
	if err != nil {
		return err
	}
	inactive := false
	if len(enrolled) > 0 {
		statuses, err := db.TrailingStatuses(ctx, r.database, studentID)
		if err != nil {
			return err
		}
		inactive = consecutiveAbsences(statuses) >= r.threshold
	}

	current, err := db.GetStudentByID(ctx, r.database, studentID)
	if err != nil {
		return err
	}
	if current.Inactive == inactive {
		return nil
	}
	return db.SetInactive(ctx, r.database, studentID, inactive)
}

// RecomputeAll — полный детерминированный пересчёт флага по всем ученикам.
// Не инкрементальный счётчик: ручные правки и исторические изменения
// не накапливают расхождения. Возвращает число переведённых в неактивные
// и обратно в активные.
func (r *Resolver) RecomputeAll(ctx context.Context, threshold int) (flagged, reactivated int, err error) {
	students, err := db.ListStudents(ctx, r.database)
	if err != nil {
		return 0, 0, err
	}
	for _, st := range students {
		enrolled, err := db.GetSectionsForStudent(ctx, r.database, st.ID)
		if err != nil {
			return flagged, reactivated, err
		}
		should := false
		if len(enrolled) > 0 {
			statuses, err := db.TrailingStatuses(ctx, r.database, st.ID)
			if err != nil {
				return flagged, reactivated, err
			}
			should = consecutiveAbsences(statuses) >= threshold
		}
		if st.Inactive == should {
			continue
		}
		if err := db.SetInactive(ctx, r.database, st.ID, should); err != nil {
			return flagged, reactivated, err
		}
		if should {
			flagged++
		} else {
			reactivated++
		}
	}
	r.log.Infow("пересчёт неактивности завершён", "flagged", flagged, "reactivated", reactivated, "threshold", threshold)
	return flagged, reactivated, nil
}
