package domain

import "time"

// Session is the result of a successful login or token verification.
type Session struct {
	Token     string
	Email     string
	Name      string
	ExpiresAt time.Time
}
