package domain

import "time"

type User struct {
	ID            int64
	Username      string
	Email         string
	PasswordHash  string
	Role          string
	EmailVerified bool
	CreatedAt     time.Time
}
