package models

import (
	"fmt"
	"time"
)

type Section struct {
	ID    int64
	Name  string
	Type  string // 'Technique' или 'Normal'
	Level string // 'Beginner' | 'Intermediate' | 'Advanced'
	Day   string // английское имя дня недели, фиксированный словарь
	Time  string // '18:00'
}

// Фиксированный словарь дней недели. В БД храним английские имена,
// сравнение никогда не идёт через локализованное форматирование даты.
var weekdayNames = map[string]time.Weekday{
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
	"Sunday":    time.Sunday,
}

// WeekdayName возвращает английское имя дня для t независимо от локали ОС.
func WeekdayName(t time.Time) string {
	return t.Weekday().String()
}

// ParseWeekday проверяет, что значение входит в фиксированный словарь.
func ParseWeekday(s string) (time.Weekday, error) {
	d, ok := weekdayNames[s]
	if !ok {
		return 0, fmt.Errorf("неизвестный день недели: %q", s)
	}
	return d, nil
}
