package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"gatherly/internal/models"
	"gatherly/internal/repository"
	"gatherly/internal/security"
	"gatherly/internal/validation"
)

var (
	ErrVerificationNotFound = errors.New("verification not found")
	ErrVerificationExpired  = errors.New("verification code expired")
	ErrVerificationUsed     = errors.New("verification already used")
	ErrCodeMismatch         = errors.New("incorrect verification code")
	ErrTooManyAttempts      = errors.New("too many incorrect attempts")
)

// VerificationService runs the guest signup flow: a guest states their
// intent, proves the email with a one-time code, and only then is the
// RSVP or claim materialized.
type VerificationService struct {
	verificationRepo *repository.VerificationRepository
	eventService     *EventService
	signupService    *SignupService
	emailService     *EmailService
	codeTTL          time.Duration
	maxAttempts      int
}

// NewVerificationService creates a new verification service
func NewVerificationService(verificationRepo *repository.VerificationRepository, eventService *EventService, signupService *SignupService, emailService *EmailService, codeTTL time.Duration, maxAttempts int) *VerificationService {
	return &VerificationService{
		verificationRepo: verificationRepo,
		eventService:     eventService,
		signupService:    signupService,
		emailService:     emailService,
		codeTTL:          codeTTL,
		maxAttempts:      maxAttempts,
	}
}

// VerificationResult is the signup materialized by a successful code check
type VerificationResult struct {
	RSVP  *models.RSVP  `json:"rsvp,omitempty"`
	Claim *models.Claim `json:"claim,omitempty"`
}

// Start records a guest's signup intent and emails them a one-time code.
// The returned ID is the handle for the later code check.
func (s *VerificationService) Start(ctx context.Context, purpose string, eventID int64, dateKey string, slotIndex *int, guestName, guestEmail string) (string, error) {
	if purpose != models.VerificationPurposeRSVP && purpose != models.VerificationPurposeClaim {
		return "", validation.ValidationError{Field: "purpose", Message: "purpose must be rsvp or claim"}
	}
	if err := validation.ValidateName(guestName); err != nil {
		return "", err
	}
	if err := validation.ValidateEmail(guestEmail); err != nil {
		return "", err
	}

	event, err := s.eventService.RequireOccurrence(eventID, dateKey)
	if err != nil {
		return "", err
	}
	if purpose == models.VerificationPurposeClaim {
		if !event.HasLineup() {
			return "", ErrNoLineup
		}
		if slotIndex == nil || *slotIndex < 0 || *slotIndex >= event.SlotCount {
			return "", ErrInvalidSlot
		}
	}

	identity := models.GuestIdentity(guestName, guestEmail)
	code, err := security.GenerateVerificationCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	verification := &models.Verification{
		ID:         uuid.NewString(),
		Code:       code,
		Purpose:    purpose,
		EventID:    eventID,
		DateKey:    dateKey,
		SlotIndex:  slotIndex,
		GuestName:  identity.GuestName,
		GuestEmail: identity.GuestEmail,
		ExpiresAt:  time.Now().Add(s.codeTTL),
	}
	if err := s.verificationRepo.Create(verification); err != nil {
		return "", err
	}

	if err := s.emailService.SendVerificationCode(ctx, identity.GuestEmail, identity.GuestName, code, event.Title); err != nil {
		log.Printf("Failed to send verification code to %s: %v", identity.GuestEmail, err)
	}

	return verification.ID, nil
}

// Check compares a submitted code against a pending verification and, on
// success, consumes it and materializes the intended signup. A consumed
// verification can never produce a second signup.
func (s *VerificationService) Check(ctx context.Context, id, code string) (*VerificationResult, error) {
	verification, err := s.verificationRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if verification == nil {
		return nil, ErrVerificationNotFound
	}
	if verification.IsConsumed() {
		return nil, ErrVerificationUsed
	}
	if verification.IsExpired() {
		return nil, ErrVerificationExpired
	}
	if verification.Attempts >= s.maxAttempts {
		return nil, ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(verification.Code), []byte(code)) != 1 {
		if err := s.verificationRepo.IncrementAttempts(id); err != nil {
			return nil, err
		}
		if verification.Attempts+1 >= s.maxAttempts {
			return nil, ErrTooManyAttempts
		}
		return nil, ErrCodeMismatch
	}

	consumed, err := s.verificationRepo.Consume(id, time.Now())
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, ErrVerificationUsed
	}

	identity := models.GuestIdentity(verification.GuestName, verification.GuestEmail)
	result := &VerificationResult{}
	switch verification.Purpose {
	case models.VerificationPurposeClaim:
		claim, err := s.signupService.ClaimSlot(ctx, verification.EventID, verification.DateKey, *verification.SlotIndex, identity)
		if err != nil {
			return nil, err
		}
		result.Claim = claim
	default:
		rsvp, err := s.signupService.RSVP(ctx, verification.EventID, verification.DateKey, identity)
		if err != nil {
			return nil, err
		}
		result.RSVP = rsvp
	}

	return result, nil
}

// CleanupExpired removes verifications whose TTL lapsed over an hour ago
func (s *VerificationService) CleanupExpired() error {
	n, err := s.verificationRepo.DeleteExpired(time.Now().Add(-time.Hour))
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("Cleaned up %d expired verifications", n)
	}
	return nil
}
