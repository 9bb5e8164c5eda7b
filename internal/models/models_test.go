package models

import (
	"testing"
	"time"
)

func TestSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		expected  bool
	}{
		{
			name:      "future expiry is not expired",
			expiresAt: time.Now().Add(1 * time.Hour),
			expected:  false,
		},
		{
			name:      "past expiry is expired",
			expiresAt: time.Now().Add(-1 * time.Hour),
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{ID: "abc", ExpiresAt: tt.expiresAt}
			if got := s.IsExpired(); got != tt.expected {
				t.Errorf("IsExpired() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGuestIdentityNormalizesEmail(t *testing.T) {
	id := GuestIdentity("  Ada Lovelace ", " Ada@Example.COM ")
	if id.GuestName != "Ada Lovelace" {
		t.Errorf("GuestName = %q, want %q", id.GuestName, "Ada Lovelace")
	}
	if id.GuestEmail != "ada@example.com" {
		t.Errorf("GuestEmail = %q, want %q", id.GuestEmail, "ada@example.com")
	}
	if !id.IsGuest() {
		t.Error("expected guest identity")
	}
}

func TestRSVPHoldsSeat(t *testing.T) {
	tests := []struct {
		status   string
		expected bool
	}{
		{SignupStatusConfirmed, true},
		{SignupStatusOffered, true},
		{SignupStatusWaitlist, false},
		{SignupStatusCancelled, false},
		{SignupStatusNoShow, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			r := RSVP{Status: tt.status}
			if got := r.HoldsSeat(); got != tt.expected {
				t.Errorf("HoldsSeat() for %s = %v, want %v", tt.status, got, tt.expected)
			}
		})
	}
}

func TestClaimHoldsSlot(t *testing.T) {
	tests := []struct {
		status   string
		expected bool
	}{
		{SignupStatusConfirmed, true},
		{SignupStatusOffered, true},
		{SignupStatusWaitlist, false},
		{SignupStatusCancelled, false},
		{SignupStatusNoShow, false},
		{SignupStatusPerformed, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			c := Claim{Status: tt.status}
			if got := c.HoldsSlot(); got != tt.expected {
				t.Errorf("HoldsSlot() for %s = %v, want %v", tt.status, got, tt.expected)
			}
		})
	}
}

func TestRSVPOfferExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-1 * time.Minute)
	future := now.Add(1 * time.Hour)

	tests := []struct {
		name     string
		rsvp     RSVP
		expected bool
	}{
		{
			name:     "offered past expiry",
			rsvp:     RSVP{Status: SignupStatusOffered, OfferExpiresAt: &past},
			expected: true,
		},
		{
			name:     "offered before expiry",
			rsvp:     RSVP{Status: SignupStatusOffered, OfferExpiresAt: &future},
			expected: false,
		},
		{
			name:     "confirmed never expires",
			rsvp:     RSVP{Status: SignupStatusConfirmed, OfferExpiresAt: &past},
			expected: false,
		},
		{
			name:     "offered without expiry",
			rsvp:     RSVP{Status: SignupStatusOffered},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rsvp.OfferExpired(now); got != tt.expected {
				t.Errorf("OfferExpired() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestInviteCountsTowardCap(t *testing.T) {
	tests := []struct {
		status   string
		expected bool
	}{
		{InviteStatusPending, true},
		{InviteStatusAccepted, true},
		{InviteStatusDeclined, false},
		{InviteStatusRevoked, false},
		{InviteStatusExpired, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			inv := Invite{Status: tt.status}
			if got := inv.CountsTowardCap(); got != tt.expected {
				t.Errorf("CountsTowardCap() for %s = %v, want %v", tt.status, got, tt.expected)
			}
		})
	}
}

func TestVerificationCanAttempt(t *testing.T) {
	now := time.Now()
	future := now.Add(10 * time.Minute)
	past := now.Add(-10 * time.Minute)

	tests := []struct {
		name     string
		v        Verification
		expected bool
	}{
		{
			name:     "fresh verification",
			v:        Verification{ExpiresAt: future, Attempts: 0},
			expected: true,
		},
		{
			name:     "attempts exhausted",
			v:        Verification{ExpiresAt: future, Attempts: 5},
			expected: false,
		},
		{
			name:     "expired",
			v:        Verification{ExpiresAt: past, Attempts: 0},
			expected: false,
		},
		{
			name:     "consumed",
			v:        Verification{ExpiresAt: future, ConsumedAt: &now},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.CanAttempt(5); got != tt.expected {
				t.Errorf("CanAttempt(5) = %v, want %v", got, tt.expected)
			}
		})
	}
}
