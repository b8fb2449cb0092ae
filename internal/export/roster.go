package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Импорт легаси-таблицы посещаемости. Ожидаемые колонки:
//   name (или first_name + last_name)  — имя ученика
//   rfid                               — номер карты, может быть пуст
//   D_YYYY_MM_DD                       — по колонке на дату; непустое
//                                        значение, кроме "0", значит «был»
//
// Правило фильтра: строка попадает в импорт, если у неё есть карта ИЛИ
// посещений не меньше порога. Двухфазный API: сначала превью, потом коммит.

type RosterRow struct {
	FirstName       string
	LastName        string
	CardID          string // '' — карты нет
	AttendanceCount int
	Include         bool
}

type ImportPreview struct {
	SheetTitle   string
	TotalRows    int
	WithCard     int
	WithoutCard  int
	SessionCount int
	WillImport   int
	WillSkip     int
	Students     []RosterRow
}

// PreviewRoster разбирает строки листа и считает превью, ничего не записывая.
func PreviewRoster(title string, header []string, rows [][]string, minSessions int) (*ImportPreview, error) {
	if len(rows) == 0 {
		return nil, errors.New("лист пуст: нет строк с данными")
	}

	idx := map[string]int{}
	var dateCols []int
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		idx[key] = i
		if strings.HasPrefix(key, "d_") && len(key) >= 8 {
			dateCols = append(dateCols, i)
		}
	}

	_, hasFirst := idx["first_name"]
	_, hasLast := idx["last_name"]
	_, hasFull := idx["name"]
	if !(hasFirst && hasLast) && !hasFull {
		return nil, errors.New("лист должен содержать колонку 'name' либо 'first_name' и 'last_name'")
	}
	rfidCol, hasRFID := idx["rfid"]

	cell := func(row []string, col int) string {
		if col < len(row) {
			return strings.TrimSpace(row[col])
		}
		return ""
	}

	var parsed []RosterRow
	for _, row := range rows {
		var first, last string
		if hasFirst && hasLast {
			first = cell(row, idx["first_name"])
			last = cell(row, idx["last_name"])
		} else {
			full := cell(row, idx["name"])
			parts := strings.Fields(full)
			if len(parts) > 0 {
				first = parts[0]
				last = strings.Join(parts[1:], " ")
			}
		}
		if first == "" && last == "" {
			continue // пустая строка
		}

		card := ""
		if hasRFID {
			card = cell(row, rfidCol)
		}

		attended := 0
		for _, c := range dateCols {
			if v := cell(row, c); v != "" && v != "0" {
				attended++
			}
		}

		parsed = append(parsed, RosterRow{
			FirstName:       first,
			LastName:        last,
			CardID:          card,
			AttendanceCount: attended,
			Include:         card != "" || attended >= minSessions,
		})
	}

	p := &ImportPreview{
		SheetTitle:   title,
		TotalRows:    len(parsed),
		SessionCount: len(dateCols),
		Students:     parsed,
	}
	for _, r := range parsed {
		if r.CardID != "" {
			p.WithCard++
		}
		if r.Include {
			p.WillImport++
		}
	}
	p.WithoutCard = p.TotalRows - p.WithCard
	p.WillSkip = p.TotalRows - p.WillImport
	return p, nil
}

// CommitRoster вставляет принятые строки превью. Существующие имена и
// занятые карты пропускаются; все вставки идут одной транзакцией —
// частичного импорта не бывает.
func CommitRoster(ctx context.Context, database *sql.DB, preview *ImportPreview) (imported, skipped int, err error) {
	var toImport []RosterRow
	for _, r := range preview.Students {
		if r.Include {
			toImport = append(toImport, r)
		}
	}
	if len(toImport) == 0 {
		return 0, 0, nil
	}

	// существующих учеников читаем один раз до цикла
	knownNames := map[string]bool{}
	knownCards := map[string]bool{}
	rows, err := database.QueryContext(ctx, `SELECT first_name, last_name, card_id FROM students`)
	if err != nil {
		return 0, 0, err
	}
	for rows.Next() {
		var first, last string
		var card *string
		if err := rows.Scan(&first, &last, &card); err != nil {
			_ = rows.Close()
			return 0, 0, err
		}
		knownNames[nameKey(first, last)] = true
		if card != nil && *card != "" {
			knownCards[*card] = true
		}
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range toImport {
		key := nameKey(r.FirstName, r.LastName)
		if knownNames[key] {
			skipped++
			continue
		}
		if r.CardID != "" && knownCards[r.CardID] {
			skipped++
			continue
		}

		var card *string
		if r.CardID != "" {
			card = &r.CardID
		}
		createdAt := time.Now().UTC().Format(time.RFC3339)
		if _, err := tx.ExecContext(ctx, `
INSERT INTO students (first_name, last_name, card_id, created_at)
VALUES (?, ?, ?, ?)`, r.FirstName, r.LastName, card, createdAt); err != nil {
			return 0, 0, fmt.Errorf("импорт '%s %s': %w", r.FirstName, r.LastName, err)
		}

		// обновляем множества, чтобы дубли внутри одного импорта тоже ловились
		knownNames[key] = true
		if r.CardID != "" {
			knownCards[r.CardID] = true
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return imported, skipped, nil
}

func nameKey(first, last string) string {
	return strings.ToLower(first) + "\x00" + strings.ToLower(last)
}
