package handlers

import (
	"encoding/json"
	"net/http"

	"gatherly/internal/models"
	"gatherly/internal/service"
)

// RSVPHandler handles attendee signup endpoints
type RSVPHandler struct {
	signupService       *service.SignupService
	verificationService *service.VerificationService
	eventService        *service.EventService
}

// NewRSVPHandler creates a new RSVP handler
func NewRSVPHandler(signupService *service.SignupService, verificationService *service.VerificationService, eventService *service.EventService) *RSVPHandler {
	return &RSVPHandler{
		signupService:       signupService,
		verificationService: verificationService,
		eventService:        eventService,
	}
}

type guestSignupRequest struct {
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
}

// Create handles POST /api/events/{id}/occurrences/{dateKey}/rsvps.
// Members sign up directly; guests get a pending verification and must
// submit the emailed code before the RSVP exists.
func (h *RSVPHandler) Create(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid event id", "", nil)
		return
	}
	dateKey := r.PathValue("dateKey")

	if user := GetUserFromContext(r.Context()); user != nil {
		rsvp, err := h.signupService.RSVP(r.Context(), eventID, dateKey, models.MemberIdentity(user.ID))
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, rsvp)
		return
	}

	var req guestSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", nil)
		return
	}

	verificationID, err := h.verificationService.Start(r.Context(), models.VerificationPurposeRSVP, eventID, dateKey, nil, req.GuestName, req.GuestEmail)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"verification_id": verificationID})
}

// Cancel handles POST /api/rsvps/{id}/cancel
func (h *RSVPHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	rsvp, err := h.authorizeRSVP(w, r)
	if rsvp == nil || err != nil {
		return
	}

	if err := h.signupService.CancelRSVP(r.Context(), rsvp.ID); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// AcceptOffer handles POST /api/rsvps/{id}/accept-offer
func (h *RSVPHandler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	rsvp, err := h.authorizeRSVP(w, r)
	if rsvp == nil || err != nil {
		return
	}

	updated, err := h.signupService.AcceptRSVPOffer(r.Context(), rsvp.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeclineOffer handles POST /api/rsvps/{id}/decline-offer
func (h *RSVPHandler) DeclineOffer(w http.ResponseWriter, r *http.Request) {
	rsvp, err := h.authorizeRSVP(w, r)
	if rsvp == nil || err != nil {
		return
	}

	if err := h.signupService.CancelRSVP(r.Context(), rsvp.ID); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// NoShow handles POST /api/rsvps/{id}/no-show. Hosts only.
func (h *RSVPHandler) NoShow(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	rsvpID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid rsvp id", "", nil)
		return
	}

	rsvp, err := h.signupService.GetRSVP(rsvpID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	if err := h.signupService.MarkNoShow(rsvp.EventID, user.ID, rsvpID); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Action handles GET /api/rsvps/actions?token=..., the signed link carried
// by confirmation emails. It cancels RSVPs and claims alike.
func (h *RSVPHandler) Action(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "missing token", "", nil)
		return
	}

	if err := h.signupService.HandleActionToken(r.Context(), token); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// authorizeRSVP loads the RSVP and checks the caller owns it or hosts the
// event. Writes the error response itself when authorization fails.
func (h *RSVPHandler) authorizeRSVP(w http.ResponseWriter, r *http.Request) (*models.RSVP, error) {
	user := GetUserFromContext(r.Context())
	rsvpID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid rsvp id", "", nil)
		return nil, err
	}

	rsvp, err := h.signupService.GetRSVP(rsvpID)
	if err != nil {
		respondWithServiceError(w, err)
		return nil, err
	}

	if rsvp.UserID != nil && *rsvp.UserID == user.ID {
		return rsvp, nil
	}
	if _, err := h.eventService.RequireHost(rsvp.EventID, user.ID); err != nil {
		respondWithServiceError(w, service.ErrNotAuthorized)
		return nil, service.ErrNotAuthorized
	}
	return rsvp, nil
}
