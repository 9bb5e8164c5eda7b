package tokens

import (
	"testing"
	"time"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret")

	token, err := issuer.Issue(ActionCancelRSVP, 42, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if claims.Action != ActionCancelRSVP {
		t.Errorf("Action = %q, want %q", claims.Action, ActionCancelRSVP)
	}
	if claims.RecordID != 42 {
		t.Errorf("RecordID = %d, want 42", claims.RecordID)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer("test-secret")

	token, err := issuer.Issue(ActionCancelClaim, 7, -time.Minute)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := issuer.Verify(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewIssuer("test-secret")
	other := NewIssuer("other-secret")

	token, err := issuer.Issue(ActionCancelRSVP, 42, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := other.Verify(token); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := NewIssuer("test-secret")

	tests := []string{"", "not-a-token", "a.b.c"}
	for _, input := range tests {
		if _, err := issuer.Verify(input); err == nil {
			t.Errorf("Verify(%q) should fail", input)
		}
	}
}
