package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"gatherly/internal/service"
	"gatherly/internal/tokens"
	"gatherly/internal/validation"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, map[string]string{"error": userMsg})
}

// respondWithServiceError maps known service errors onto HTTP statuses
func respondWithServiceError(w http.ResponseWriter, err error) {
	var validationErr validation.ValidationError
	if errors.As(err, &validationErr) {
		respondWithError(w, http.StatusBadRequest, validationErr.Error(), "", nil)
		return
	}

	switch {
	case errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrSignupNotFound),
		errors.Is(err, service.ErrInviteNotFound),
		errors.Is(err, service.ErrVerificationNotFound):
		respondWithError(w, http.StatusNotFound, err.Error(), "", nil)
	case errors.Is(err, service.ErrNotAuthorized):
		respondWithError(w, http.StatusForbidden, err.Error(), "", nil)
	case errors.Is(err, service.ErrDuplicateSignup),
		errors.Is(err, service.ErrDuplicateInvite),
		errors.Is(err, service.ErrInviteCapReached),
		errors.Is(err, service.ErrVerificationUsed):
		respondWithError(w, http.StatusConflict, err.Error(), "", nil)
	case errors.Is(err, service.ErrEventNotPublished),
		errors.Is(err, service.ErrNotAnOccurrence),
		errors.Is(err, service.ErrNoLineup),
		errors.Is(err, service.ErrInvalidSlot),
		errors.Is(err, service.ErrOccurrenceAhead),
		errors.Is(err, service.ErrSignupNotSeated),
		errors.Is(err, service.ErrInviteNotPending),
		errors.Is(err, service.ErrInviteEmailMismatch):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error(), "", nil)
	case errors.Is(err, service.ErrVerificationExpired),
		errors.Is(err, service.ErrTooManyAttempts):
		respondWithError(w, http.StatusGone, err.Error(), "", nil)
	case errors.Is(err, service.ErrCodeMismatch):
		respondWithError(w, http.StatusUnauthorized, err.Error(), "", nil)
	case errors.Is(err, tokens.ErrInvalidToken):
		respondWithError(w, http.StatusUnauthorized, "invalid or expired link", "", nil)
	case errors.Is(err, service.ErrEmailTaken):
		respondWithError(w, http.StatusConflict, err.Error(), "", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, err.Error(), "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, "internal error", "request failed", err)
	}
}
