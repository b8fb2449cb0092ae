package export

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Spok95/attendance-terminal/internal/db"
)

// PushSummary пишет сводку «посещено/всего» по каждому ученику в xlsx
// по указанному пути (обычно сетевая папка). Операция идёт в фоне и
// обязана уложиться в дедлайн контекста: зависание вместо ошибки
// недопустимо. БД читается короткими снимками, транзакции главного
// потока не перемежаются.
func PushSummary(ctx context.Context, database *sql.DB, path string) (int, error) {
	rows, err := db.SummaryRows(ctx, database)
	if err != nil {
		return 0, err
	}

	spec := SheetSpec{
		Title:  "Attendance Summary",
		Header: []string{"First Name", "Last Name", "Card ID", "Total Attendance"},
	}
	for _, r := range rows {
		card := ""
		if r.CardID != nil {
			card = *r.CardID
		}
		spec.Rows = append(spec.Rows, []string{r.FirstName, r.LastName, card, r.Summary()})
	}

	wb, err := NewWorkbook([]SheetSpec{spec})
	if err != nil {
		return 0, err
	}

	// SaveAs не принимает контекст — караулим дедлайн сами
	done := make(chan error, 1)
	go func() { done <- wb.File.SaveAs(path) }()
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("выгрузка сводки в %s: %w", path, ctx.Err())
	case err := <-done:
		if err != nil {
			return 0, fmt.Errorf("выгрузка сводки в %s: %w", path, err)
		}
	}
	return len(rows), nil
}
