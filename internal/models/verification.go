package models

import "time"

// Verification purposes
const (
	VerificationPurposeRSVP  = "rsvp"
	VerificationPurposeClaim = "claim"
)

// Verification is a pending guest signup awaiting an emailed code.
// On success the intended RSVP or claim is materialized from the payload.
type Verification struct {
	ID         string
	Code       string
	Purpose    string
	EventID    int64
	DateKey    string
	SlotIndex  *int // claims only
	GuestName  string
	GuestEmail string
	Attempts   int
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// IsExpired checks if the verification is past its TTL
func (v *Verification) IsExpired() bool {
	return time.Now().After(v.ExpiresAt)
}

// IsConsumed checks if the verification has already been used or invalidated
func (v *Verification) IsConsumed() bool {
	return v.ConsumedAt != nil
}

// CanAttempt reports whether another code entry is allowed
func (v *Verification) CanAttempt(maxAttempts int) bool {
	return !v.IsConsumed() && !v.IsExpired() && v.Attempts < maxAttempts
}
