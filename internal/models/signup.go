package models

import (
	"strings"
	"time"
)

// Signup statuses shared by RSVPs and timeslot claims
const (
	SignupStatusConfirmed = "confirmed"
	SignupStatusWaitlist  = "waitlist"
	SignupStatusOffered   = "offered"
	SignupStatusCancelled = "cancelled"
	SignupStatusNoShow    = "no_show"
	SignupStatusPerformed = "performed" // claims only
)

// Identity is who a signup belongs to: a member (UserID set) or a
// verified guest (name + email set)
type Identity struct {
	UserID     *int64
	GuestName  string
	GuestEmail string
}

// MemberIdentity returns an identity for a registered user
func MemberIdentity(userID int64) Identity {
	return Identity{UserID: &userID}
}

// GuestIdentity returns a normalized identity for a verified guest
func GuestIdentity(name, email string) Identity {
	return Identity{
		GuestName:  strings.TrimSpace(name),
		GuestEmail: strings.ToLower(strings.TrimSpace(email)),
	}
}

// IsGuest reports whether the identity is a non-member guest
func (i Identity) IsGuest() bool {
	return i.UserID == nil
}

// RSVP is one attendee signup for one occurrence of an event
type RSVP struct {
	ID               int64      `json:"id"`
	EventID          int64      `json:"event_id"`
	DateKey          string     `json:"date_key"`
	UserID           *int64     `json:"user_id,omitempty"`
	GuestName        string     `json:"guest_name,omitempty"`
	GuestEmail       *string    `json:"guest_email,omitempty"`
	Status           string     `json:"status"`
	WaitlistPosition *int       `json:"waitlist_position,omitempty"`
	OfferExpiresAt   *time.Time `json:"offer_expires_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Claim is a performer's reservation of one timeslot in an occurrence lineup
type Claim struct {
	ID               int64      `json:"id"`
	EventID          int64      `json:"event_id"`
	DateKey          string     `json:"date_key"`
	SlotIndex        int        `json:"slot_index"`
	UserID           *int64     `json:"user_id,omitempty"`
	GuestName        string     `json:"guest_name,omitempty"`
	GuestEmail       *string    `json:"guest_email,omitempty"`
	Status           string     `json:"status"`
	WaitlistPosition *int       `json:"waitlist_position,omitempty"`
	OfferExpiresAt   *time.Time `json:"offer_expires_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsActive reports whether the RSVP still occupies or queues for a seat
func (r *RSVP) IsActive() bool {
	return r.Status != SignupStatusCancelled
}

// HoldsSeat reports whether the RSVP counts against capacity
func (r *RSVP) HoldsSeat() bool {
	return r.Status == SignupStatusConfirmed || r.Status == SignupStatusOffered
}

// OfferExpired reports whether an outstanding offer has lapsed
func (r *RSVP) OfferExpired(now time.Time) bool {
	return r.Status == SignupStatusOffered && r.OfferExpiresAt != nil && now.After(*r.OfferExpiresAt)
}

// Identity returns the identity owning this RSVP
func (r *RSVP) Identity() Identity {
	if r.UserID != nil {
		return Identity{UserID: r.UserID}
	}
	email := ""
	if r.GuestEmail != nil {
		email = *r.GuestEmail
	}
	return Identity{GuestName: r.GuestName, GuestEmail: email}
}

// IsActive reports whether the claim still occupies or queues for its slot
func (c *Claim) IsActive() bool {
	return c.Status != SignupStatusCancelled
}

// HoldsSlot reports whether the claim occupies its timeslot
func (c *Claim) HoldsSlot() bool {
	return c.Status == SignupStatusConfirmed || c.Status == SignupStatusOffered
}

// OfferExpired reports whether an outstanding offer has lapsed
func (c *Claim) OfferExpired(now time.Time) bool {
	return c.Status == SignupStatusOffered && c.OfferExpiresAt != nil && now.After(*c.OfferExpiresAt)
}

// Identity returns the identity owning this claim
func (c *Claim) Identity() Identity {
	if c.UserID != nil {
		return Identity{UserID: c.UserID}
	}
	email := ""
	if c.GuestEmail != nil {
		email = *c.GuestEmail
	}
	return Identity{GuestName: c.GuestName, GuestEmail: email}
}
