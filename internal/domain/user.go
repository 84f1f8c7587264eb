package domain

import "time"

// User represents a registered account. PasswordHash never leaves the
// repository/service layer.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the authenticated identity derived from a verified access
// token. It is rebuilt per request and never persisted.
type Principal struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}
