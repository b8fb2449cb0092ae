package models

import "time"

type Student struct {
	ID        int64
	FirstName string
	LastName  string
	CardID    *string
	Inactive  bool
	CreatedAt time.Time
}

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
