package postgres

import "time"

type userRow struct {
	ID            int64
	Username      string
	Email         string
	PasswordHash  string
	Role          string
	EmailVerified bool
	CreatedAt     time.Time
}
