package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"gatherly/internal/config"
	"gatherly/internal/database"
	"gatherly/internal/handlers"
	"gatherly/internal/repository"
	"gatherly/internal/security"
	"gatherly/internal/service"
	"gatherly/internal/tokens"
)

func main() {
	cfg := config.Load()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	rsvpRepo := repository.NewRSVPRepository(db)
	claimRepo := repository.NewClaimRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)

	// Services
	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	tokenIssuer := tokens.NewIssuer(cfg.ActionTokenSecret)
	authService := service.NewAuthService(userRepo, cfg.SessionDuration)
	eventService := service.NewEventService(eventRepo, rsvpRepo, claimRepo, cfg.OccurrenceHorizon)
	signupService := service.NewSignupService(db, rsvpRepo, claimRepo, userRepo, eventService, emailService, tokenIssuer, cfg.OfferTTL)
	verificationService := service.NewVerificationService(verificationRepo, eventService, signupService, emailService, cfg.VerificationTTL, cfg.VerificationRetries)
	inviteService := service.NewInviteService(db, inviteRepo, eventRepo, userRepo, eventService, emailService, cfg.InviteTTL, cfg.MaxInvitesPerEvent)

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"facebook": {
			Name:  "facebook",
			Label: "Facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     facebook.Endpoint,
				Scopes:       []string{"email", "public_profile"},
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		},
	}

	// Handlers
	csrf := security.NewCSRFGenerator(cfg.CSRFSecret)
	limiter := security.NewRateLimiter(60, time.Minute)
	codeLimiter := security.NewRateLimiter(10, time.Minute)

	mw := handlers.NewMiddleware(authService, csrf, limiter)
	authHandler := handlers.NewAuthHandler(authService, csrf, oauthProviders, cfg.OAuthRedirectBaseURL, cfg.AppBaseURL)
	eventHandler := handlers.NewEventHandler(eventService, signupService)
	rsvpHandler := handlers.NewRSVPHandler(signupService, verificationService, eventService)
	claimHandler := handlers.NewClaimHandler(signupService, verificationService, eventService)
	verificationHandler := handlers.NewVerificationHandler(verificationService, codeLimiter)
	inviteHandler := handlers.NewInviteHandler(inviteService)

	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /api/auth/register", mw.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/auth/login", mw.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/me", mw.RequireAuth(authHandler.Me))
	mux.HandleFunc("GET /auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", authHandler.OAuthCallback)

	// Events
	mux.HandleFunc("GET /api/events", eventHandler.List)
	mux.HandleFunc("GET /api/events/mine", mw.RequireAuth(eventHandler.ListMine))
	mux.HandleFunc("POST /api/events", mw.RequireAuth(mw.RequireCSRF(eventHandler.Create)))
	mux.HandleFunc("GET /api/events/{id}", eventHandler.Get)
	mux.HandleFunc("PATCH /api/events/{id}", mw.RequireAuth(mw.RequireCSRF(eventHandler.Update)))
	mux.HandleFunc("POST /api/events/{id}/publish", mw.RequireAuth(mw.RequireCSRF(eventHandler.Publish)))
	mux.HandleFunc("POST /api/events/{id}/cancel", mw.RequireAuth(mw.RequireCSRF(eventHandler.Cancel)))
	mux.HandleFunc("DELETE /api/events/{id}/cohosts/{userId}", mw.RequireAuth(mw.RequireCSRF(eventHandler.RemoveCohost)))
	mux.HandleFunc("GET /api/events/{id}/occurrences", eventHandler.Occurrences)

	// RSVPs
	mux.HandleFunc("GET /api/events/{id}/occurrences/{dateKey}/rsvps", mw.RequireAuth(eventHandler.Attendance))
	mux.HandleFunc("POST /api/events/{id}/occurrences/{dateKey}/rsvps", mw.RateLimit(mw.OptionalAuth(rsvpHandler.Create)))
	mux.HandleFunc("POST /api/rsvps/{id}/cancel", mw.RequireAuth(mw.RequireCSRF(rsvpHandler.Cancel)))
	mux.HandleFunc("POST /api/rsvps/{id}/accept-offer", mw.RequireAuth(mw.RequireCSRF(rsvpHandler.AcceptOffer)))
	mux.HandleFunc("POST /api/rsvps/{id}/decline-offer", mw.RequireAuth(mw.RequireCSRF(rsvpHandler.DeclineOffer)))
	mux.HandleFunc("POST /api/rsvps/{id}/no-show", mw.RequireAuth(mw.RequireCSRF(rsvpHandler.NoShow)))
	mux.HandleFunc("GET /api/rsvps/actions", mw.RateLimit(rsvpHandler.Action))

	// Lineup
	mux.HandleFunc("GET /api/events/{id}/occurrences/{dateKey}/lineup", eventHandler.Lineup)
	mux.HandleFunc("POST /api/events/{id}/occurrences/{dateKey}/slots/{slot}/claims", mw.RateLimit(mw.OptionalAuth(claimHandler.Create)))
	mux.HandleFunc("POST /api/claims/{id}/cancel", mw.RequireAuth(mw.RequireCSRF(claimHandler.Cancel)))
	mux.HandleFunc("POST /api/claims/{id}/accept-offer", mw.RequireAuth(mw.RequireCSRF(claimHandler.AcceptOffer)))
	mux.HandleFunc("POST /api/claims/{id}/decline-offer", mw.RequireAuth(mw.RequireCSRF(claimHandler.DeclineOffer)))
	mux.HandleFunc("POST /api/claims/{id}/no-show", mw.RequireAuth(mw.RequireCSRF(claimHandler.NoShow)))
	mux.HandleFunc("POST /api/claims/{id}/performed", mw.RequireAuth(mw.RequireCSRF(claimHandler.Performed)))

	// Guest verification
	mux.HandleFunc("POST /api/verifications/{id}", verificationHandler.Check)

	// Co-host invites
	mux.HandleFunc("GET /api/events/{id}/invites", mw.RequireAuth(inviteHandler.List))
	mux.HandleFunc("POST /api/events/{id}/invites", mw.RequireAuth(mw.RequireCSRF(inviteHandler.Create)))
	mux.HandleFunc("POST /api/invites/{token}/accept", mw.RequireAuth(inviteHandler.Accept))
	mux.HandleFunc("POST /api/invites/{token}/decline", inviteHandler.Decline)
	mux.HandleFunc("POST /api/invites/{id}/revoke", mw.RequireAuth(mw.RequireCSRF(inviteHandler.Revoke)))

	handler := handlers.Logging(mux)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan struct{})
	go runBackgroundLoops(authService, signupService, verificationService, inviteService, stop)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	close(stop)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// runBackgroundLoops drives the periodic maintenance work: session cleanup,
// offer expiry sweeps, verification cleanup and invite expiry.
func runBackgroundLoops(authService *service.AuthService, signupService *service.SignupService, verificationService *service.VerificationService, inviteService *service.InviteService, stop <-chan struct{}) {
	sweep := time.NewTicker(1 * time.Minute)
	hourly := time.NewTicker(1 * time.Hour)
	defer sweep.Stop()
	defer hourly.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-sweep.C:
			if err := signupService.SweepOffers(context.Background(), now); err != nil {
				log.Printf("Error sweeping expired offers: %v", err)
			}
		case <-hourly.C:
			if err := authService.CleanupExpiredSessions(); err != nil {
				log.Printf("Error cleaning up expired sessions: %v", err)
			}
			if err := verificationService.CleanupExpired(); err != nil {
				log.Printf("Error cleaning up expired verifications: %v", err)
			}
			if err := inviteService.ExpirePending(); err != nil {
				log.Printf("Error expiring pending invites: %v", err)
			}
		}
	}
}
