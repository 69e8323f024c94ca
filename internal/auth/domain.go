package auth

import "time"

// SessionRecord is the database copy of a login session, kept for auditing
// and removed on logout or expiry.
type SessionRecord struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
	IP        string
	UserAgent string
}
