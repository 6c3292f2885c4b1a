package entity

import "time"

// ClientFingerprint identifies the device a password reset was requested from.
type ClientFingerprint struct {
	IP    string
	Agent string
}

// ResetToken is a pending password reset. Only hashes of the link token and
// the one-time code are stored.
type ResetToken struct {
	ID        string
	UserID    string
	Email     string
	RequestID string
	TokenHash string
	OTPHash   string
	Client    ClientFingerprint
	CreatedAt time.Time
}

// IsExpired reports whether the request outlived ttl at now.
func (t *ResetToken) IsExpired(ttl time.Duration, now time.Time) bool {
	return !now.Before(t.CreatedAt.Add(ttl))
}
