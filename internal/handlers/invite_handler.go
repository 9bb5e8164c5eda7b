package handlers

import (
	"encoding/json"
	"net/http"

	"gatherly/internal/service"
)

// InviteHandler handles co-host invite endpoints
type InviteHandler struct {
	inviteService *service.InviteService
}

// NewInviteHandler creates a new invite handler
func NewInviteHandler(inviteService *service.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

type inviteRequest struct {
	Email string `json:"email"`
}

// List handles GET /api/events/{id}/invites. Hosts only.
func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	eventID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid event id", "", nil)
		return
	}

	invites, err := h.inviteService.List(eventID, user.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"invites": invites})
}

// Create handles POST /api/events/{id}/invites. Owner only.
func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	eventID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid event id", "", nil)
		return
	}

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", nil)
		return
	}

	invite, err := h.inviteService.Invite(r.Context(), eventID, user.ID, req.Email)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, invite)
}

// Accept handles POST /api/invites/{token}/accept. The accepting account
// must own the invited address.
func (h *InviteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	token := r.PathValue("token")

	if err := h.inviteService.Accept(token, user.ID); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Decline handles POST /api/invites/{token}/decline
func (h *InviteHandler) Decline(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	if err := h.inviteService.Decline(token); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Revoke handles POST /api/invites/{id}/revoke. Owner only.
func (h *InviteHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	inviteID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid invite id", "", nil)
		return
	}

	if err := h.inviteService.Revoke(inviteID, user.ID); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
