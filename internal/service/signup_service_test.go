package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gatherly/internal/database"
	"gatherly/internal/models"
	"gatherly/internal/repository"
	"gatherly/internal/tokens"
)

type testEnv struct {
	db            *database.DB
	userRepo      *repository.UserRepository
	eventService  *EventService
	signupService *SignupService
	tokenIssuer   *tokens.Issuer
}

// newTestEnv wires the signup stack against an on-disk SQLite database with a
// disabled email sender. offerTTL controls how long promotions stay open; a
// negative value makes every offer lapse immediately.
func newTestEnv(t *testing.T, offerTTL time.Duration) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	rsvpRepo := repository.NewRSVPRepository(db)
	claimRepo := repository.NewClaimRepository(db)

	emailService, err := NewEmailService("", "", "", "")
	if err != nil {
		t.Fatalf("Failed to create email service: %v", err)
	}
	tokenIssuer := tokens.NewIssuer("test-secret")
	eventService := NewEventService(eventRepo, rsvpRepo, claimRepo, 90)
	signupService := NewSignupService(db, rsvpRepo, claimRepo, userRepo, eventService, emailService, tokenIssuer, offerTTL)

	return &testEnv{
		db:            db,
		userRepo:      userRepo,
		eventService:  eventService,
		signupService: signupService,
		tokenIssuer:   tokenIssuer,
	}
}

func (env *testEnv) createHost(t *testing.T) *models.User {
	t.Helper()
	user, err := env.userRepo.CreateUser("host@example.com", "hashedpass", "Host")
	if err != nil {
		t.Fatalf("Failed to create host: %v", err)
	}
	return user
}

// publishEvent creates and publishes a one-off event a week out
func (env *testEnv) publishEvent(t *testing.T, hostID int64, capacity *int, slotCount int) *models.Event {
	t.Helper()
	event, err := env.eventService.Create(hostID, &models.Event{
		Title:           "Open Mic Night",
		StartDate:       time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
		StartTime:       "19:00",
		DurationMinutes: 120,
		Capacity:        capacity,
		SlotCount:       slotCount,
		SlotMinutes:     10,
		RecurrenceRule:  models.RecurrenceNone,
	})
	if err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}
	published, err := env.eventService.Publish(event.ID, hostID)
	if err != nil {
		t.Fatalf("Failed to publish event: %v", err)
	}
	return published
}

func capOf(n int) *int { return &n }

func TestRSVPLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t, time.Hour)
	ctx := context.Background()
	host := env.createHost(t)
	event := env.publishEvent(t, host.ID, capOf(1), 0)

	ann, err := env.signupService.RSVP(ctx, event.ID, event.StartDate, models.GuestIdentity("Ann", "ann@example.com"))
	if err != nil {
		t.Fatalf("RSVP failed: %v", err)
	}
	if ann.Status != models.SignupStatusConfirmed {
		t.Errorf("First rsvp status = %v, want confirmed", ann.Status)
	}

	bob, err := env.signupService.RSVP(ctx, event.ID, event.StartDate, models.GuestIdentity("Bob", "bob@example.com"))
	if err != nil {
		t.Fatalf("RSVP failed: %v", err)
	}
	if bob.Status != models.SignupStatusWaitlist {
		t.Errorf("Second rsvp status = %v, want waitlist", bob.Status)
	}

	// Duplicate signups are rejected
	_, err = env.signupService.RSVP(ctx, event.ID, event.StartDate, models.GuestIdentity("Ann", "ann@example.com"))
	if !errors.Is(err, ErrDuplicateSignup) {
		t.Errorf("Duplicate rsvp error = %v, want ErrDuplicateSignup", err)
	}

	// Cancelling the seat holder promotes the waitlist
	if err := env.signupService.CancelRSVP(ctx, ann.ID); err != nil {
		t.Fatalf("CancelRSVP failed: %v", err)
	}
	promoted, err := env.signupService.GetRSVP(bob.ID)
	if err != nil {
		t.Fatalf("GetRSVP failed: %v", err)
	}
	if promoted.Status != models.SignupStatusOffered {
		t.Errorf("Promoted status = %v, want offered", promoted.Status)
	}

	accepted, err := env.signupService.AcceptRSVPOffer(ctx, bob.ID)
	if err != nil {
		t.Fatalf("AcceptRSVPOffer failed: %v", err)
	}
	if accepted.Status != models.SignupStatusConfirmed {
		t.Errorf("Accepted status = %v, want confirmed", accepted.Status)
	}

	// Cancelling an already-cancelled rsvp is a no-op
	if err := env.signupService.CancelRSVP(ctx, ann.ID); err != nil {
		t.Errorf("Repeat cancel should be a no-op, got %v", err)
	}
}

func TestRSVPRequiresPublishedOccurrence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t, time.Hour)
	ctx := context.Background()
	host := env.createHost(t)

	draft, err := env.eventService.Create(host.ID, &models.Event{
		Title:          "Quiet Draft",
		StartDate:      time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
		StartTime:      "19:00",
		RecurrenceRule: models.RecurrenceNone,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = env.signupService.RSVP(ctx, draft.ID, draft.StartDate, models.GuestIdentity("Ann", "ann@example.com"))
	if !errors.Is(err, ErrEventNotPublished) {
		t.Errorf("RSVP on draft error = %v, want ErrEventNotPublished", err)
	}

	event := env.publishEvent(t, host.ID, nil, 0)
	wrongDate := time.Now().AddDate(0, 0, 8).Format("2006-01-02")
	_, err = env.signupService.RSVP(ctx, event.ID, wrongDate, models.GuestIdentity("Ann", "ann@example.com"))
	if !errors.Is(err, ErrNotAnOccurrence) {
		t.Errorf("RSVP off-schedule error = %v, want ErrNotAnOccurrence", err)
	}

	_, err = env.signupService.RSVP(ctx, 9999, event.StartDate, models.GuestIdentity("Ann", "ann@example.com"))
	if !errors.Is(err, ErrEventNotFound) {
		t.Errorf("RSVP on missing event error = %v, want ErrEventNotFound", err)
	}
}

func TestClaimSlotValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t, time.Hour)
	ctx := context.Background()
	host := env.createHost(t)

	noLineup := env.publishEvent(t, host.ID, nil, 0)
	_, err := env.signupService.ClaimSlot(ctx, noLineup.ID, noLineup.StartDate, 0, models.GuestIdentity("Ann", "ann@example.com"))
	if !errors.Is(err, ErrNoLineup) {
		t.Errorf("Claim without lineup error = %v, want ErrNoLineup", err)
	}

	event := env.publishEvent(t, host.ID, nil, 3)
	_, err = env.signupService.ClaimSlot(ctx, event.ID, event.StartDate, 3, models.GuestIdentity("Ann", "ann@example.com"))
	if !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("Claim on slot 3 of 3 error = %v, want ErrInvalidSlot", err)
	}
	_, err = env.signupService.ClaimSlot(ctx, event.ID, event.StartDate, -1, models.GuestIdentity("Ann", "ann@example.com"))
	if !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("Claim on slot -1 error = %v, want ErrInvalidSlot", err)
	}

	claim, err := env.signupService.ClaimSlot(ctx, event.ID, event.StartDate, 0, models.GuestIdentity("Ann", "ann@example.com"))
	if err != nil {
		t.Fatalf("ClaimSlot failed: %v", err)
	}
	if claim.Status != models.SignupStatusConfirmed {
		t.Errorf("Claim status = %v, want confirmed", claim.Status)
	}
}

func TestSweepOffersRotation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// Negative TTL makes every offer lapse the moment it is issued
	env := newTestEnv(t, -time.Minute)
	ctx := context.Background()
	host := env.createHost(t)
	event := env.publishEvent(t, host.ID, capOf(1), 0)

	ann, _ := env.signupService.RSVP(ctx, event.ID, event.StartDate, models.GuestIdentity("Ann", "ann@example.com"))
	bob, _ := env.signupService.RSVP(ctx, event.ID, event.StartDate, models.GuestIdentity("Bob", "bob@example.com"))
	cal, _ := env.signupService.RSVP(ctx, event.ID, event.StartDate, models.GuestIdentity("Cal", "cal@example.com"))

	// Ann cancels, the already-lapsed offer lands on Bob
	if err := env.signupService.CancelRSVP(ctx, ann.ID); err != nil {
		t.Fatalf("CancelRSVP failed: %v", err)
	}

	if err := env.signupService.SweepOffers(ctx, time.Now()); err != nil {
		t.Fatalf("SweepOffers failed: %v", err)
	}

	// Bob is back on the waitlist behind Cal, who now holds the offer
	requeued, _ := env.signupService.GetRSVP(bob.ID)
	if requeued.Status != models.SignupStatusWaitlist {
		t.Errorf("Requeued status = %v, want waitlist", requeued.Status)
	}
	next, _ := env.signupService.GetRSVP(cal.ID)
	if next.Status != models.SignupStatusOffered {
		t.Errorf("Next in line status = %v, want offered", next.Status)
	}
}

func TestSweepOffersSoleWaitlister(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t, -time.Minute)
	ctx := context.Background()
	host := env.createHost(t)
	event := env.publishEvent(t, host.ID, capOf(1), 0)

	ann, err := env.signupService.RSVP(ctx, event.ID, event.StartDate, models.GuestIdentity("Ann", "ann@example.com"))
	if err != nil {
		t.Fatalf("RSVP failed: %v", err)
	}
	bob, err := env.signupService.RSVP(ctx, event.ID, event.StartDate, models.GuestIdentity("Bob", "bob@example.com"))
	if err != nil {
		t.Fatalf("RSVP failed: %v", err)
	}

	if err := env.signupService.CancelRSVP(ctx, ann.ID); err != nil {
		t.Fatalf("CancelRSVP failed: %v", err)
	}

	// With nobody else in line, every sweep re-offers the seat to Bob
	// instead of parking him on the waitlist with the seat empty
	for i := 0; i < 2; i++ {
		if err := env.signupService.SweepOffers(ctx, time.Now()); err != nil {
			t.Fatalf("SweepOffers pass %d failed: %v", i+1, err)
		}
	}
	reoffered, err := env.signupService.GetRSVP(bob.ID)
	if err != nil {
		t.Fatalf("GetRSVP failed: %v", err)
	}
	if reoffered.Status != models.SignupStatusOffered {
		t.Fatalf("Sole waitlister status after sweeps = %v, want offered", reoffered.Status)
	}

	// A later arrival queues behind Bob instead of skipping past him
	cal, err := env.signupService.RSVP(ctx, event.ID, event.StartDate, models.GuestIdentity("Cal", "cal@example.com"))
	if err != nil {
		t.Fatalf("RSVP failed: %v", err)
	}
	if cal.Status != models.SignupStatusWaitlist {
		t.Errorf("Later arrival status = %v, want waitlist", cal.Status)
	}

	accepted, err := env.signupService.AcceptRSVPOffer(ctx, bob.ID)
	if err != nil {
		t.Fatalf("AcceptRSVPOffer failed: %v", err)
	}
	if accepted.Status != models.SignupStatusConfirmed {
		t.Errorf("Accepted status = %v, want confirmed", accepted.Status)
	}
}

func TestHandleActionToken(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t, time.Hour)
	ctx := context.Background()
	host := env.createHost(t)
	event := env.publishEvent(t, host.ID, nil, 0)

	rsvp, err := env.signupService.RSVP(ctx, event.ID, event.StartDate, models.GuestIdentity("Ann", "ann@example.com"))
	if err != nil {
		t.Fatalf("RSVP failed: %v", err)
	}

	token, err := env.tokenIssuer.Issue(tokens.ActionCancelRSVP, rsvp.ID, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := env.signupService.HandleActionToken(ctx, token); err != nil {
		t.Fatalf("HandleActionToken failed: %v", err)
	}

	cancelled, err := env.signupService.GetRSVP(rsvp.ID)
	if err != nil {
		t.Fatalf("GetRSVP failed: %v", err)
	}
	if cancelled.Status != models.SignupStatusCancelled {
		t.Errorf("Status after cancel link = %v, want cancelled", cancelled.Status)
	}

	if err := env.signupService.HandleActionToken(ctx, "not-a-token"); !errors.Is(err, tokens.ErrInvalidToken) {
		t.Errorf("Garbage token error = %v, want ErrInvalidToken", err)
	}
}

func TestMarkNoShowRequiresPastDate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t, time.Hour)
	ctx := context.Background()
	host := env.createHost(t)
	event := env.publishEvent(t, host.ID, nil, 0)

	rsvp, err := env.signupService.RSVP(ctx, event.ID, event.StartDate, models.GuestIdentity("Ann", "ann@example.com"))
	if err != nil {
		t.Fatalf("RSVP failed: %v", err)
	}

	if err := env.signupService.MarkNoShow(event.ID, host.ID, rsvp.ID); !errors.Is(err, ErrOccurrenceAhead) {
		t.Errorf("MarkNoShow before the date error = %v, want ErrOccurrenceAhead", err)
	}

	stranger, err := env.userRepo.CreateUser("stranger@example.com", "hashedpass", "Stranger")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := env.signupService.MarkNoShow(event.ID, stranger.ID, rsvp.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("MarkNoShow by non-host error = %v, want ErrNotAuthorized", err)
	}
}

func TestMarkNoShowRequiresSeatHolder(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t, time.Hour)
	host := env.createHost(t)
	event := env.publishEvent(t, host.ID, capOf(1), 0)

	// Seed a past occurrence directly; occurrence checks only apply on signup
	rsvpRepo := repository.NewRSVPRepository(env.db)
	pastDate := time.Now().AddDate(0, 0, -7).Format("2006-01-02")
	seated, err := rsvpRepo.Signup(event.ID, pastDate, models.GuestIdentity("Ann", "ann@example.com"), event.Capacity)
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	waiting, err := rsvpRepo.Signup(event.ID, pastDate, models.GuestIdentity("Bob", "bob@example.com"), event.Capacity)
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	if err := env.signupService.MarkNoShow(event.ID, host.ID, waiting.ID); !errors.Is(err, ErrSignupNotSeated) {
		t.Errorf("MarkNoShow on waitlisted entry error = %v, want ErrSignupNotSeated", err)
	}

	if err := env.signupService.MarkNoShow(event.ID, host.ID, seated.ID); err != nil {
		t.Fatalf("MarkNoShow failed: %v", err)
	}
	marked, err := env.signupService.GetRSVP(seated.ID)
	if err != nil {
		t.Fatalf("GetRSVP failed: %v", err)
	}
	if marked.Status != models.SignupStatusNoShow {
		t.Errorf("Status = %v, want no_show", marked.Status)
	}
}

func TestMarkClaimOutcomeRequiresSlotHolder(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t, time.Hour)
	host := env.createHost(t)
	event := env.publishEvent(t, host.ID, nil, 3)

	claimRepo := repository.NewClaimRepository(env.db)
	pastDate := time.Now().AddDate(0, 0, -7).Format("2006-01-02")
	holder, err := claimRepo.Claim(event.ID, pastDate, 0, models.GuestIdentity("Ann", "ann@example.com"))
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	waiting, err := claimRepo.Claim(event.ID, pastDate, 0, models.GuestIdentity("Bob", "bob@example.com"))
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}

	if err := env.signupService.MarkClaimOutcome(event.ID, host.ID, waiting.ID, true); !errors.Is(err, ErrSignupNotSeated) {
		t.Errorf("MarkClaimOutcome on queued claim error = %v, want ErrSignupNotSeated", err)
	}

	if err := env.signupService.MarkClaimOutcome(event.ID, host.ID, holder.ID, true); err != nil {
		t.Fatalf("MarkClaimOutcome failed: %v", err)
	}
	marked, err := env.signupService.GetClaim(holder.ID)
	if err != nil {
		t.Fatalf("GetClaim failed: %v", err)
	}
	if marked.Status != models.SignupStatusPerformed {
		t.Errorf("Status = %v, want performed", marked.Status)
	}
}
