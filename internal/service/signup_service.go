package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gatherly/internal/database"
	"gatherly/internal/models"
	"gatherly/internal/repository"
	"gatherly/internal/tokens"
)

var (
	ErrDuplicateSignup = errors.New("already signed up for this occurrence")
	ErrSignupNotFound  = errors.New("signup not found")
	ErrNoLineup        = errors.New("event has no performer lineup")
	ErrInvalidSlot     = errors.New("slot index out of range")
	ErrOccurrenceAhead = errors.New("occurrence has not happened yet")
	ErrSignupNotSeated = errors.New("signup does not hold a seat")
)

// cancelLinkTTL bounds how long an emailed cancel link stays valid
const cancelLinkTTL = 30 * 24 * time.Hour

// SignupService orchestrates attendee RSVPs and performer timeslot claims:
// capacity checks, waitlists, offer promotion and the emails around them.
type SignupService struct {
	db           *database.DB
	rsvpRepo     *repository.RSVPRepository
	claimRepo    *repository.ClaimRepository
	userRepo     *repository.UserRepository
	eventService *EventService
	emailService *EmailService
	tokenIssuer  *tokens.Issuer
	offerTTL     time.Duration
}

// NewSignupService creates a new signup service
func NewSignupService(db *database.DB, rsvpRepo *repository.RSVPRepository, claimRepo *repository.ClaimRepository, userRepo *repository.UserRepository, eventService *EventService, emailService *EmailService, tokenIssuer *tokens.Issuer, offerTTL time.Duration) *SignupService {
	return &SignupService{
		db:           db,
		rsvpRepo:     rsvpRepo,
		claimRepo:    claimRepo,
		userRepo:     userRepo,
		eventService: eventService,
		emailService: emailService,
		tokenIssuer:  tokenIssuer,
		offerTTL:     offerTTL,
	}
}

// RSVP signs an identity up for one occurrence: confirmed while seats
// remain, waitlisted when the occurrence is full
func (s *SignupService) RSVP(ctx context.Context, eventID int64, dateKey string, identity models.Identity) (*models.RSVP, error) {
	event, err := s.eventService.RequireOccurrence(eventID, dateKey)
	if err != nil {
		return nil, err
	}

	rsvp, err := s.rsvpRepo.Signup(eventID, dateKey, identity, event.Capacity)
	if err != nil {
		if s.db.IsUniqueViolation(err) {
			return nil, ErrDuplicateSignup
		}
		return nil, fmt.Errorf("failed to create rsvp: %w", err)
	}

	if rsvp.Status == models.SignupStatusConfirmed {
		s.notifyConfirmed(ctx, event, rsvp.DateKey, rsvp.Identity(), tokens.ActionCancelRSVP, rsvp.ID)
	}
	return rsvp, nil
}

// CancelRSVP cancels an RSVP and offers any freed seat to the earliest
// waitlisted signup
func (s *SignupService) CancelRSVP(ctx context.Context, rsvpID int64) error {
	rsvp, err := s.rsvpRepo.GetByID(rsvpID)
	if err != nil {
		return fmt.Errorf("failed to get rsvp: %w", err)
	}
	if rsvp == nil {
		return ErrSignupNotFound
	}
	if !rsvp.IsActive() {
		return nil
	}

	promoted, err := s.rsvpRepo.Release(rsvpID, models.SignupStatusCancelled, time.Now().Add(s.offerTTL))
	if err != nil {
		return fmt.Errorf("failed to cancel rsvp: %w", err)
	}
	if promoted != nil {
		s.notifyOffer(ctx, rsvp.EventID, rsvp.DateKey, promoted.Identity())
	}
	return nil
}

// AcceptRSVPOffer converts an outstanding seat offer into a confirmed RSVP
func (s *SignupService) AcceptRSVPOffer(ctx context.Context, rsvpID int64) (*models.RSVP, error) {
	rsvp, err := s.rsvpRepo.GetByID(rsvpID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rsvp: %w", err)
	}
	if rsvp == nil {
		return nil, ErrSignupNotFound
	}

	if err := s.rsvpRepo.AcceptOffer(rsvpID); err != nil {
		return nil, err
	}

	if event, err := s.eventService.Get(rsvp.EventID); err == nil {
		s.notifyConfirmed(ctx, event, rsvp.DateKey, rsvp.Identity(), tokens.ActionCancelRSVP, rsvp.ID)
	}
	return s.rsvpRepo.GetByID(rsvpID)
}

// GetRSVP retrieves one RSVP
func (s *SignupService) GetRSVP(rsvpID int64) (*models.RSVP, error) {
	rsvp, err := s.rsvpRepo.GetByID(rsvpID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rsvp: %w", err)
	}
	if rsvp == nil {
		return nil, ErrSignupNotFound
	}
	return rsvp, nil
}

// Attendance lists the active RSVPs for an occurrence, seat holders first
func (s *SignupService) Attendance(eventID int64, dateKey string) ([]models.RSVP, error) {
	if _, err := s.eventService.Get(eventID); err != nil {
		return nil, err
	}
	return s.rsvpRepo.ListForOccurrence(eventID, dateKey)
}

// MarkNoShow records a confirmed attendee as absent. Host only, and only
// once the occurrence date has passed.
func (s *SignupService) MarkNoShow(eventID, hostID, rsvpID int64) error {
	if _, err := s.eventService.RequireHost(eventID, hostID); err != nil {
		return err
	}

	rsvp, err := s.GetRSVP(rsvpID)
	if err != nil {
		return err
	}
	if rsvp.EventID != eventID {
		return ErrSignupNotFound
	}
	if !rsvp.HoldsSeat() {
		return ErrSignupNotSeated
	}
	if err := s.requirePast(rsvp.DateKey); err != nil {
		return err
	}

	return s.rsvpRepo.UpdateStatus(rsvpID, models.SignupStatusNoShow)
}

// ClaimSlot signs a performer up for one timeslot of an occurrence
func (s *SignupService) ClaimSlot(ctx context.Context, eventID int64, dateKey string, slotIndex int, identity models.Identity) (*models.Claim, error) {
	event, err := s.eventService.RequireOccurrence(eventID, dateKey)
	if err != nil {
		return nil, err
	}
	if !event.HasLineup() {
		return nil, ErrNoLineup
	}
	if slotIndex < 0 || slotIndex >= event.SlotCount {
		return nil, ErrInvalidSlot
	}

	claim, err := s.claimRepo.Claim(eventID, dateKey, slotIndex, identity)
	if err != nil {
		if s.db.IsUniqueViolation(err) {
			return nil, ErrDuplicateSignup
		}
		return nil, fmt.Errorf("failed to create claim: %w", err)
	}

	if claim.Status == models.SignupStatusConfirmed {
		s.notifyConfirmed(ctx, event, claim.DateKey, claim.Identity(), tokens.ActionCancelClaim, claim.ID)
	}
	return claim, nil
}

// CancelClaim cancels a timeslot claim and offers a freed slot to the
// earliest waitlisted performer on that slot
func (s *SignupService) CancelClaim(ctx context.Context, claimID int64) error {
	claim, err := s.claimRepo.GetByID(claimID)
	if err != nil {
		return fmt.Errorf("failed to get claim: %w", err)
	}
	if claim == nil {
		return ErrSignupNotFound
	}
	if !claim.IsActive() {
		return nil
	}

	promoted, err := s.claimRepo.Release(claimID, models.SignupStatusCancelled, time.Now().Add(s.offerTTL))
	if err != nil {
		return fmt.Errorf("failed to cancel claim: %w", err)
	}
	if promoted != nil {
		s.notifyOffer(ctx, claim.EventID, claim.DateKey, promoted.Identity())
	}
	return nil
}

// AcceptClaimOffer converts an outstanding slot offer into a confirmed claim
func (s *SignupService) AcceptClaimOffer(ctx context.Context, claimID int64) (*models.Claim, error) {
	claim, err := s.claimRepo.GetByID(claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	if claim == nil {
		return nil, ErrSignupNotFound
	}

	if err := s.claimRepo.AcceptOffer(claimID); err != nil {
		return nil, err
	}

	if event, err := s.eventService.Get(claim.EventID); err == nil {
		s.notifyConfirmed(ctx, event, claim.DateKey, claim.Identity(), tokens.ActionCancelClaim, claim.ID)
	}
	return s.claimRepo.GetByID(claimID)
}

// GetClaim retrieves one timeslot claim
func (s *SignupService) GetClaim(claimID int64) (*models.Claim, error) {
	claim, err := s.claimRepo.GetByID(claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	if claim == nil {
		return nil, ErrSignupNotFound
	}
	return claim, nil
}

// Lineup lists the active claims for an occurrence, ordered by slot
func (s *SignupService) Lineup(eventID int64, dateKey string) ([]models.Claim, error) {
	event, err := s.eventService.Get(eventID)
	if err != nil {
		return nil, err
	}
	if !event.HasLineup() {
		return nil, ErrNoLineup
	}
	return s.claimRepo.ListForOccurrence(eventID, dateKey)
}

// MarkClaimOutcome records whether a confirmed performer showed up.
// Host only, and only once the occurrence date has passed.
func (s *SignupService) MarkClaimOutcome(eventID, hostID, claimID int64, performed bool) error {
	if _, err := s.eventService.RequireHost(eventID, hostID); err != nil {
		return err
	}

	claim, err := s.GetClaim(claimID)
	if err != nil {
		return err
	}
	if claim.EventID != eventID {
		return ErrSignupNotFound
	}
	if !claim.HoldsSlot() {
		return ErrSignupNotSeated
	}
	if err := s.requirePast(claim.DateKey); err != nil {
		return err
	}

	status := models.SignupStatusNoShow
	if performed {
		status = models.SignupStatusPerformed
	}
	return s.claimRepo.UpdateStatus(claimID, status)
}

// HandleActionToken executes the operation carried by a signed email link
func (s *SignupService) HandleActionToken(ctx context.Context, token string) error {
	claims, err := s.tokenIssuer.Verify(token)
	if err != nil {
		return err
	}

	switch claims.Action {
	case tokens.ActionCancelRSVP:
		return s.CancelRSVP(ctx, claims.RecordID)
	case tokens.ActionCancelClaim:
		return s.CancelClaim(ctx, claims.RecordID)
	default:
		return tokens.ErrInvalidToken
	}
}

// SweepOffers requeues every lapsed offer to its waitlist tail and promotes
// the earliest waitlisted entries into the freed seats. A requeued sole
// waitlister is offered the seat again.
func (s *SignupService) SweepOffers(ctx context.Context, now time.Time) error {
	expiredRSVPs, err := s.rsvpRepo.ListExpiredOffers(now)
	if err != nil {
		return fmt.Errorf("failed to list expired rsvp offers: %w", err)
	}
	for _, rsvp := range expiredRSVPs {
		if err := s.rsvpRepo.Requeue(rsvp.ID); err != nil {
			log.Printf("Offer sweep: requeue rsvp %d failed: %v", rsvp.ID, err)
			continue
		}
		event, err := s.eventService.Get(rsvp.EventID)
		if err != nil {
			log.Printf("Offer sweep: event %d lookup failed: %v", rsvp.EventID, err)
			continue
		}
		promoted, err := s.rsvpRepo.Backfill(rsvp.EventID, rsvp.DateKey, event.Capacity, now.Add(s.offerTTL))
		if err != nil {
			log.Printf("Offer sweep: backfill event %d %s failed: %v", rsvp.EventID, rsvp.DateKey, err)
			continue
		}
		for _, p := range promoted {
			s.notifyOffer(ctx, p.EventID, p.DateKey, p.Identity())
		}
	}

	expiredClaims, err := s.claimRepo.ListExpiredOffers(now)
	if err != nil {
		return fmt.Errorf("failed to list expired claim offers: %w", err)
	}
	for _, claim := range expiredClaims {
		if err := s.claimRepo.Requeue(claim.ID); err != nil {
			log.Printf("Offer sweep: requeue claim %d failed: %v", claim.ID, err)
			continue
		}
		promoted, err := s.claimRepo.Backfill(claim.EventID, claim.DateKey, claim.SlotIndex, now.Add(s.offerTTL))
		if err != nil {
			log.Printf("Offer sweep: backfill slot %d of event %d %s failed: %v", claim.SlotIndex, claim.EventID, claim.DateKey, err)
			continue
		}
		if promoted != nil {
			s.notifyOffer(ctx, promoted.EventID, promoted.DateKey, promoted.Identity())
		}
	}

	return nil
}

// OfferTTLHours returns the offer response window in whole hours
func (s *SignupService) OfferTTLHours() int {
	return int(s.offerTTL / time.Hour)
}

// requirePast compares date keys in UTC, matching occurrence expansion
func (s *SignupService) requirePast(dateKey string) error {
	today := time.Now().UTC().Format("2006-01-02")
	if dateKey >= today {
		return ErrOccurrenceAhead
	}
	return nil
}

// notifyConfirmed emails a confirmation with a signed cancel link.
// Email failures are logged, never surfaced to the signup flow.
func (s *SignupService) notifyConfirmed(ctx context.Context, event *models.Event, dateKey string, identity models.Identity, action string, recordID int64) {
	email, name := s.contactFor(identity)
	if email == "" {
		return
	}
	token, err := s.tokenIssuer.Issue(action, recordID, cancelLinkTTL)
	if err != nil {
		log.Printf("Failed to issue cancel token for %s %d: %v", action, recordID, err)
		return
	}
	if err := s.emailService.SendSignupConfirmation(ctx, email, name, event.Title, dateKey, token); err != nil {
		log.Printf("Failed to send confirmation email to %s: %v", email, err)
	}
}

func (s *SignupService) notifyOffer(ctx context.Context, eventID int64, dateKey string, identity models.Identity) {
	email, name := s.contactFor(identity)
	if email == "" {
		return
	}
	event, err := s.eventService.Get(eventID)
	if err != nil {
		log.Printf("Failed to load event %d for offer email: %v", eventID, err)
		return
	}
	if err := s.emailService.SendOfferNotice(ctx, email, name, event.Title, dateKey, s.OfferTTLHours()); err != nil {
		log.Printf("Failed to send offer email to %s: %v", email, err)
	}
}

// contactFor resolves the deliverable address for a signup identity
func (s *SignupService) contactFor(identity models.Identity) (email, name string) {
	if identity.IsGuest() {
		return identity.GuestEmail, identity.GuestName
	}
	user, err := s.userRepo.GetUserByID(*identity.UserID)
	if err != nil || user == nil {
		log.Printf("Failed to resolve user %d for notification", *identity.UserID)
		return "", ""
	}
	return user.Email, user.Name
}
