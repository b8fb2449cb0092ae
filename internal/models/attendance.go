package models

import (
	"fmt"
	"time"
)

const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"

	MethodRFID   = "RFID"
	MethodManual = "Manual"
)

type AttendanceRecord struct {
	ID        int64
	SessionID int64
	StudentID int64
	Status    string
	Method    string
	Timestamp time.Time
}

// SummaryRow — строка сводки «посещено/всего» по одному ученику.
type SummaryRow struct {
	StudentID     int64
	FirstName     string
	LastName      string
	CardID        *string
	Attended      int
	TotalSessions int
}

func (r SummaryRow) Summary() string {
	return fmt.Sprintf("%d/%d", r.Attended, r.TotalSessions)
}
