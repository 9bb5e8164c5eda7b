package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"gatherly/internal/models"
	"gatherly/internal/service"
)

// ClaimHandler handles performer timeslot endpoints
type ClaimHandler struct {
	signupService       *service.SignupService
	verificationService *service.VerificationService
	eventService        *service.EventService
}

// NewClaimHandler creates a new claim handler
func NewClaimHandler(signupService *service.SignupService, verificationService *service.VerificationService, eventService *service.EventService) *ClaimHandler {
	return &ClaimHandler{
		signupService:       signupService,
		verificationService: verificationService,
		eventService:        eventService,
	}
}

// Create handles POST /api/events/{id}/occurrences/{dateKey}/slots/{slot}/claims.
// Members claim directly; guests go through email verification first.
func (h *ClaimHandler) Create(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid event id", "", nil)
		return
	}
	dateKey := r.PathValue("dateKey")
	slotIndex, err := strconv.Atoi(r.PathValue("slot"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid slot index", "", nil)
		return
	}

	if user := GetUserFromContext(r.Context()); user != nil {
		claim, err := h.signupService.ClaimSlot(r.Context(), eventID, dateKey, slotIndex, models.MemberIdentity(user.ID))
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, claim)
		return
	}

	var req guestSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", nil)
		return
	}

	verificationID, err := h.verificationService.Start(r.Context(), models.VerificationPurposeClaim, eventID, dateKey, &slotIndex, req.GuestName, req.GuestEmail)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"verification_id": verificationID})
}

// Cancel handles POST /api/claims/{id}/cancel
func (h *ClaimHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claim, err := h.authorizeClaim(w, r)
	if claim == nil || err != nil {
		return
	}

	if err := h.signupService.CancelClaim(r.Context(), claim.ID); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// AcceptOffer handles POST /api/claims/{id}/accept-offer
func (h *ClaimHandler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	claim, err := h.authorizeClaim(w, r)
	if claim == nil || err != nil {
		return
	}

	updated, err := h.signupService.AcceptClaimOffer(r.Context(), claim.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeclineOffer handles POST /api/claims/{id}/decline-offer
func (h *ClaimHandler) DeclineOffer(w http.ResponseWriter, r *http.Request) {
	claim, err := h.authorizeClaim(w, r)
	if claim == nil || err != nil {
		return
	}

	if err := h.signupService.CancelClaim(r.Context(), claim.ID); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// NoShow handles POST /api/claims/{id}/no-show. Hosts only.
func (h *ClaimHandler) NoShow(w http.ResponseWriter, r *http.Request) {
	h.markOutcome(w, r, false)
}

// Performed handles POST /api/claims/{id}/performed. Hosts only.
func (h *ClaimHandler) Performed(w http.ResponseWriter, r *http.Request) {
	h.markOutcome(w, r, true)
}

func (h *ClaimHandler) markOutcome(w http.ResponseWriter, r *http.Request, performed bool) {
	user := GetUserFromContext(r.Context())
	claimID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid claim id", "", nil)
		return
	}

	claim, err := h.signupService.GetClaim(claimID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	if err := h.signupService.MarkClaimOutcome(claim.EventID, user.ID, claimID, performed); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// authorizeClaim loads the claim and checks the caller owns it or hosts the
// event. Writes the error response itself when authorization fails.
func (h *ClaimHandler) authorizeClaim(w http.ResponseWriter, r *http.Request) (*models.Claim, error) {
	user := GetUserFromContext(r.Context())
	claimID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid claim id", "", nil)
		return nil, err
	}

	claim, err := h.signupService.GetClaim(claimID)
	if err != nil {
		respondWithServiceError(w, err)
		return nil, err
	}

	if claim.UserID != nil && *claim.UserID == user.ID {
		return claim, nil
	}
	if _, err := h.eventService.RequireHost(claim.EventID, user.ID); err != nil {
		respondWithServiceError(w, service.ErrNotAuthorized)
		return nil, service.ErrNotAuthorized
	}
	return claim, nil
}
