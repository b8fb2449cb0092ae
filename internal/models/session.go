package models

import "time"

const (
	SessionActive = "active"
	SessionClosed = "closed"
)

type Session struct {
	ID        int64
	SectionID int64
	Date      string // 'YYYY-MM-DD', одна сессия на (секция, дата)
	StartAt   time.Time
	EndAt     *time.Time
	Status    string
}
