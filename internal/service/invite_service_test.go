package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gatherly/internal/models"
	"gatherly/internal/repository"
)

func newInviteEnv(t *testing.T, maxPerEvent int) (*testEnv, *InviteService) {
	t.Helper()
	env := newTestEnv(t, time.Hour)
	inviteRepo := repository.NewInviteRepository(env.db)
	eventRepo := repository.NewEventRepository(env.db)
	emailService, err := NewEmailService("", "", "", "")
	if err != nil {
		t.Fatalf("Failed to create email service: %v", err)
	}
	inviteService := NewInviteService(env.db, inviteRepo, eventRepo, env.userRepo, env.eventService, emailService, 14*24*time.Hour, maxPerEvent)
	return env, inviteService
}

func TestInviteAcceptFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env, inviteService := newInviteEnv(t, 5)
	ctx := context.Background()
	host := env.createHost(t)
	event := env.publishEvent(t, host.ID, nil, 0)

	invite, err := inviteService.Invite(ctx, event.ID, host.ID, "Cohost@Example.com")
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	if invite.Status != models.InviteStatusPending {
		t.Errorf("Invite status = %v, want pending", invite.Status)
	}
	if invite.Email != "cohost@example.com" {
		t.Errorf("Invite email = %q, want normalized lowercase", invite.Email)
	}
	if invite.Token == "" {
		t.Error("Invite should carry a token")
	}

	// Accepting from an account with a different email is refused
	stranger, err := env.userRepo.CreateUser("stranger@example.com", "hashedpass", "Stranger")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := inviteService.Accept(invite.Token, stranger.ID); !errors.Is(err, ErrInviteEmailMismatch) {
		t.Errorf("Accept by wrong account error = %v, want ErrInviteEmailMismatch", err)
	}

	cohost, err := env.userRepo.CreateUser("cohost@example.com", "hashedpass", "Cohost")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := inviteService.Accept(invite.Token, cohost.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	// The new co-host can now act as a host
	if _, err := env.eventService.RequireHost(event.ID, cohost.ID); err != nil {
		t.Errorf("Accepted cohost should pass the host check: %v", err)
	}
	// But not as the owner
	if _, err := env.eventService.RequireOwner(event.ID, cohost.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("Cohost owner check error = %v, want ErrNotAuthorized", err)
	}

	// An accepted invite cannot be accepted again
	if err := inviteService.Accept(invite.Token, cohost.ID); !errors.Is(err, ErrInviteNotPending) {
		t.Errorf("Second accept error = %v, want ErrInviteNotPending", err)
	}

	// Cohosts cannot remove cohosts; the owner can
	if err := env.eventService.RemoveCohost(event.ID, cohost.ID, cohost.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("RemoveCohost by cohost error = %v, want ErrNotAuthorized", err)
	}
	if err := env.eventService.RemoveCohost(event.ID, host.ID, cohost.ID); err != nil {
		t.Fatalf("RemoveCohost failed: %v", err)
	}
	if _, err := env.eventService.RequireHost(event.ID, cohost.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("Removed cohost host check error = %v, want ErrNotAuthorized", err)
	}
}

func TestInviteCapAndDuplicates(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env, inviteService := newInviteEnv(t, 2)
	ctx := context.Background()
	host := env.createHost(t)
	event := env.publishEvent(t, host.ID, nil, 0)

	if _, err := inviteService.Invite(ctx, event.ID, host.ID, "one@example.com"); err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	// A repeat invite to the same address is refused while the first is active
	_, err := inviteService.Invite(ctx, event.ID, host.ID, "one@example.com")
	if !errors.Is(err, ErrDuplicateInvite) {
		t.Errorf("Duplicate invite error = %v, want ErrDuplicateInvite", err)
	}

	if _, err := inviteService.Invite(ctx, event.ID, host.ID, "two@example.com"); err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	// The allowance is used up
	_, err = inviteService.Invite(ctx, event.ID, host.ID, "three@example.com")
	if !errors.Is(err, ErrInviteCapReached) {
		t.Errorf("Over-cap invite error = %v, want ErrInviteCapReached", err)
	}
}

func TestInviteDeclineFreesAllowance(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env, inviteService := newInviteEnv(t, 1)
	ctx := context.Background()
	host := env.createHost(t)
	event := env.publishEvent(t, host.ID, nil, 0)

	invite, err := inviteService.Invite(ctx, event.ID, host.ID, "one@example.com")
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	if _, err := inviteService.Invite(ctx, event.ID, host.ID, "two@example.com"); !errors.Is(err, ErrInviteCapReached) {
		t.Fatalf("Expected cap before decline, got %v", err)
	}

	if err := inviteService.Decline(invite.Token); err != nil {
		t.Fatalf("Decline failed: %v", err)
	}

	if _, err := inviteService.Invite(ctx, event.ID, host.ID, "two@example.com"); err != nil {
		t.Errorf("Invite after decline should succeed: %v", err)
	}
}

func TestInviteRevoke(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env, inviteService := newInviteEnv(t, 5)
	ctx := context.Background()
	host := env.createHost(t)
	event := env.publishEvent(t, host.ID, nil, 0)

	invite, err := inviteService.Invite(ctx, event.ID, host.ID, "one@example.com")
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	stranger, err := env.userRepo.CreateUser("stranger@example.com", "hashedpass", "Stranger")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := inviteService.Revoke(invite.ID, stranger.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("Revoke by non-owner error = %v, want ErrNotAuthorized", err)
	}

	if err := inviteService.Revoke(invite.ID, host.ID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	// A revoked invite can no longer be accepted
	user, err := env.userRepo.CreateUser("one@example.com", "hashedpass", "One")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := inviteService.Accept(invite.Token, user.ID); !errors.Is(err, ErrInviteNotPending) {
		t.Errorf("Accept after revoke error = %v, want ErrInviteNotPending", err)
	}
}
