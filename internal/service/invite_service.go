package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gatherly/internal/database"
	"gatherly/internal/models"
	"gatherly/internal/repository"
	"gatherly/internal/validation"
)

var (
	ErrInviteNotFound      = errors.New("invite not found")
	ErrInviteCapReached    = errors.New("invite allowance for this event is used up")
	ErrDuplicateInvite     = errors.New("an active invite for this email already exists")
	ErrInviteNotPending    = errors.New("invite is no longer pending")
	ErrInviteEmailMismatch = errors.New("invite was sent to a different email address")
)

// InviteService handles co-host invitations
type InviteService struct {
	db           *database.DB
	inviteRepo   *repository.InviteRepository
	eventRepo    *repository.EventRepository
	userRepo     *repository.UserRepository
	eventService *EventService
	emailService *EmailService
	inviteTTL    time.Duration
	maxPerEvent  int
}

// NewInviteService creates a new invite service
func NewInviteService(db *database.DB, inviteRepo *repository.InviteRepository, eventRepo *repository.EventRepository, userRepo *repository.UserRepository, eventService *EventService, emailService *EmailService, inviteTTL time.Duration, maxPerEvent int) *InviteService {
	return &InviteService{
		db:           db,
		inviteRepo:   inviteRepo,
		eventRepo:    eventRepo,
		userRepo:     userRepo,
		eventService: eventService,
		emailService: emailService,
		inviteTTL:    inviteTTL,
		maxPerEvent:  maxPerEvent,
	}
}

// Invite sends a co-host invitation. Owner only; pending and accepted
// invites count against the per-event allowance.
func (s *InviteService) Invite(ctx context.Context, eventID, ownerID int64, email string) (*models.Invite, error) {
	event, err := s.eventService.RequireOwner(eventID, ownerID)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))

	active, err := s.inviteRepo.CountActive(eventID)
	if err != nil {
		return nil, err
	}
	if active >= s.maxPerEvent {
		return nil, ErrInviteCapReached
	}

	invite, err := s.inviteRepo.Create(eventID, email, ownerID, time.Now().Add(s.inviteTTL))
	if err != nil {
		if s.db.IsUniqueViolation(err) {
			return nil, ErrDuplicateInvite
		}
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	inviter, err := s.userRepo.GetUserByID(ownerID)
	inviterName := ""
	if err == nil && inviter != nil {
		inviterName = inviter.Name
	}
	if err := s.emailService.SendCohostInvite(ctx, email, inviterName, event.Title, invite.Token); err != nil {
		log.Printf("Failed to send invite email to %s: %v", email, err)
	}

	return invite, nil
}

// GetByToken retrieves an invite by its emailed token
func (s *InviteService) GetByToken(token string) (*models.Invite, error) {
	invite, err := s.inviteRepo.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if invite == nil {
		return nil, ErrInviteNotFound
	}
	return invite, nil
}

// Accept turns a pending invite into a co-host grant. The accepting account
// must own the invited email address.
func (s *InviteService) Accept(token string, userID int64) error {
	invite, err := s.GetByToken(token)
	if err != nil {
		return err
	}
	if !invite.IsPending() {
		return ErrInviteNotPending
	}

	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !strings.EqualFold(user.Email, invite.Email) {
		return ErrInviteEmailMismatch
	}

	if err := s.eventRepo.AddCohost(invite.EventID, userID); err != nil {
		return fmt.Errorf("failed to add cohost: %w", err)
	}
	return s.inviteRepo.UpdateStatus(invite.ID, models.InviteStatusAccepted, time.Now())
}

// Decline records a rejected invite, freeing its allowance slot
func (s *InviteService) Decline(token string) error {
	invite, err := s.GetByToken(token)
	if err != nil {
		return err
	}
	if !invite.IsPending() {
		return ErrInviteNotPending
	}
	return s.inviteRepo.UpdateStatus(invite.ID, models.InviteStatusDeclined, time.Now())
}

// Revoke withdraws a pending invite. Owner only.
func (s *InviteService) Revoke(inviteID, ownerID int64) error {
	invite, err := s.inviteRepo.GetByID(inviteID)
	if err != nil {
		return err
	}
	if invite == nil {
		return ErrInviteNotFound
	}
	if _, err := s.eventService.RequireOwner(invite.EventID, ownerID); err != nil {
		return err
	}
	if invite.Status != models.InviteStatusPending {
		return ErrInviteNotPending
	}
	return s.inviteRepo.UpdateStatus(inviteID, models.InviteStatusRevoked, time.Now())
}

// List retrieves all invites for an event. Hosts only.
func (s *InviteService) List(eventID, userID int64) ([]models.Invite, error) {
	if _, err := s.eventService.RequireHost(eventID, userID); err != nil {
		return nil, err
	}
	return s.inviteRepo.ListByEvent(eventID)
}

// ExpirePending marks lapsed pending invites expired
func (s *InviteService) ExpirePending() error {
	n, err := s.inviteRepo.ExpirePending(time.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("Expired %d pending invites", n)
	}
	return nil
}
