package domain

import "time"

// Admin is a privileged account able to manage student records.
type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
}
