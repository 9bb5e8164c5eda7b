package handlers

import (
	"encoding/json"
	"net/http"

	"gatherly/internal/security"
	"gatherly/internal/service"
)

// VerificationHandler handles guest code submission
type VerificationHandler struct {
	verificationService *service.VerificationService
	limiter             *security.RateLimiter
}

// NewVerificationHandler creates a new verification handler
func NewVerificationHandler(verificationService *service.VerificationService, limiter *security.RateLimiter) *VerificationHandler {
	return &VerificationHandler{
		verificationService: verificationService,
		limiter:             limiter,
	}
}

type codeRequest struct {
	Code string `json:"code"`
}

// Check handles POST /api/verifications/{id}: the guest submits the emailed
// code and, on success, receives the materialized RSVP or claim.
// Submissions are throttled per verification id.
func (h *VerificationHandler) Check(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.limiter.Allow(id) {
		respondWithError(w, http.StatusTooManyRequests, "too many requests", "", nil)
		return
	}

	var req codeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", nil)
		return
	}

	result, err := h.verificationService.Check(r.Context(), id, req.Code)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}
