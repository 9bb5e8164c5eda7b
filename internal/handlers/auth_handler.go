package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"gatherly/internal/models"
	"gatherly/internal/security"
	"gatherly/internal/service"
)

// AuthHandler handles registration, login and session endpoints
type AuthHandler struct {
	authService          *service.AuthService
	csrf                 *security.CSRFGenerator
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
	appBaseURL           string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, csrf *security.CSRFGenerator, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL, appBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		csrf:                 csrf,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
		appBaseURL:           appBaseURL,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User      interface{} `json:"user"`
	CSRFToken string      `json:"csrf_token"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", nil)
		return
	}

	user, err := h.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	session, _, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	h.respondWithSession(w, r, session.ID, session.ExpiresAt, user)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", nil)
		return
	}

	session, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	h.respondWithSession(w, r, session.ID, session.ExpiresAt, user)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(security.SessionCookieName); err == nil {
		_ = h.authService.Logout(cookie.Value)
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	respondJSON(w, http.StatusNoContent, nil)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	cookie, err := r.Cookie(security.SessionCookieName)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "authentication required", "", nil)
		return
	}

	csrfToken, err := h.csrf.GenerateToken(cookie.Value)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "internal error", "failed to generate csrf token", err)
		return
	}

	respondJSON(w, http.StatusOK, sessionResponse{User: user, CSRFToken: csrfToken})
}

func (h *AuthHandler) respondWithSession(w http.ResponseWriter, r *http.Request, sessionID string, expiresAt time.Time, user *models.User) {
	http.SetCookie(w, security.CreateSessionCookie(r, sessionID, expiresAt))

	csrfToken, err := h.csrf.GenerateToken(sessionID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "internal error", "failed to generate csrf token", err)
		return
	}

	respondJSON(w, http.StatusOK, sessionResponse{User: user, CSRFToken: csrfToken})
}
