package domain

import "time"

// RefreshToken is the durable record of a long-lived session credential.
// At most one non-revoked token exists per user at any time: issuing a new
// one revokes all prior tokens for that user first.
type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

func (t RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
