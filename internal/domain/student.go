package domain

import "time"

// Student is the managed record. Marks is nil until graded.
type Student struct {
	ID        string
	Name      string
	Email     string
	Course    string
	Marks     *float64
	CreatedAt time.Time
	UpdatedAt time.Time
}
