package domain

import "time"

// OtpRecord is the active one-time code for a phone number. At most one
// active record exists per phone; issuing a new code replaces it.
type OtpRecord struct {
	Phone     string
	Code      string
	Counter   int64
	Attempts  int
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the record is past its expiry at the given instant.
func (r OtpRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
