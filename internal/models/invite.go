package models

import "time"

// Invite statuses
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
	InviteStatusRevoked  = "revoked"
	InviteStatusExpired  = "expired"
)

// Invite is a co-host invitation for an event
type Invite struct {
	ID          int64      `json:"id"`
	EventID     int64      `json:"event_id"`
	Email       string     `json:"email"`
	Token       string     `json:"-"`
	Status      string     `json:"status"`
	InvitedBy   int64      `json:"invited_by"`
	InviterName string     `json:"inviter_name,omitempty"` // populated via JOIN
	ExpiresAt   time.Time  `json:"expires_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsExpired checks if the invite is past its expiry
func (i *Invite) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// IsPending checks if the invite is still awaiting a response
func (i *Invite) IsPending() bool {
	return i.Status == InviteStatusPending && !i.IsExpired()
}

// CountsTowardCap reports whether the invite consumes the per-event allowance
func (i *Invite) CountsTowardCap() bool {
	return i.Status == InviteStatusPending || i.Status == InviteStatusAccepted
}
