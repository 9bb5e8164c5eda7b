package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"gatherly/internal/models"
	"gatherly/internal/service"
)

// EventHandler handles event lifecycle endpoints
type EventHandler struct {
	eventService  *service.EventService
	signupService *service.SignupService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *service.EventService, signupService *service.SignupService) *EventHandler {
	return &EventHandler{
		eventService:  eventService,
		signupService: signupService,
	}
}

type eventRequest struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Location           string   `json:"location"`
	StartDate          string   `json:"start_date"`
	StartTime          string   `json:"start_time"`
	DurationMinutes    int      `json:"duration_minutes"`
	Capacity           *int     `json:"capacity"`
	SlotCount          int      `json:"slot_count"`
	SlotMinutes        int      `json:"slot_minutes"`
	RecurrenceRule     string   `json:"recurrence_rule"`
	RecurrenceInterval int      `json:"recurrence_interval"`
	RecurrenceWeekday  int      `json:"recurrence_weekday"`
	RecurrenceOrdinal  int      `json:"recurrence_ordinal"`
	OccurrenceCount    *int     `json:"occurrence_count"`
	CustomDates        []string `json:"custom_dates"`
}

func (req *eventRequest) toModel() *models.Event {
	rule := req.RecurrenceRule
	if rule == "" {
		rule = models.RecurrenceNone
	}
	interval := req.RecurrenceInterval
	if rule == models.RecurrenceWeekly && interval == 0 {
		interval = 1
	}
	return &models.Event{
		Title:              req.Title,
		Description:        req.Description,
		Location:           req.Location,
		StartDate:          req.StartDate,
		StartTime:          req.StartTime,
		DurationMinutes:    req.DurationMinutes,
		Capacity:           req.Capacity,
		SlotCount:          req.SlotCount,
		SlotMinutes:        req.SlotMinutes,
		RecurrenceRule:     rule,
		RecurrenceInterval: interval,
		RecurrenceWeekday:  req.RecurrenceWeekday,
		RecurrenceOrdinal:  req.RecurrenceOrdinal,
		OccurrenceCount:    req.OccurrenceCount,
		CustomDates:        req.CustomDates,
	}
}

// List handles GET /api/events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListPublished()
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// ListMine handles GET /api/events/mine
func (h *EventHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	events, err := h.eventService.ListByHost(user.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// Create handles POST /api/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", nil)
		return
	}

	event, err := h.eventService.Create(user.ID, req.toModel())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, event)
}

// Get handles GET /api/events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid event id", "", nil)
		return
	}

	event, err := h.eventService.Get(eventID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

// Update handles PATCH /api/events/{id}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	eventID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid event id", "", nil)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", nil)
		return
	}

	event, err := h.eventService.Update(eventID, user.ID, req.toModel())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

// Publish handles POST /api/events/{id}/publish
func (h *EventHandler) Publish(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	eventID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid event id", "", nil)
		return
	}

	event, err := h.eventService.Publish(eventID, user.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

// Cancel handles POST /api/events/{id}/cancel
func (h *EventHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	eventID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid event id", "", nil)
		return
	}

	event, err := h.eventService.Cancel(eventID, user.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, event)
}

// Occurrences handles GET /api/events/{id}/occurrences
func (h *EventHandler) Occurrences(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid event id", "", nil)
		return
	}

	dates, err := h.eventService.Occurrences(eventID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"occurrences": dates})
}

// Attendance handles GET /api/events/{id}/occurrences/{dateKey}/rsvps.
// Hosts only; the roster includes guest contact details.
func (h *EventHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	eventID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid event id", "", nil)
		return
	}

	if _, err := h.eventService.RequireHost(eventID, user.ID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	rsvps, err := h.signupService.Attendance(eventID, r.PathValue("dateKey"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"rsvps": rsvps})
}

// Lineup handles GET /api/events/{id}/occurrences/{dateKey}/lineup
func (h *EventHandler) Lineup(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid event id", "", nil)
		return
	}

	claims, err := h.signupService.Lineup(eventID, r.PathValue("dateKey"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"claims": claims})
}

// RemoveCohost handles DELETE /api/events/{id}/cohosts/{userId}.
// Owner only; the removed user keeps any signups they hold.
func (h *EventHandler) RemoveCohost(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	eventID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid event id", "", nil)
		return
	}
	cohostID, err := pathID(r, "userId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid user id", "", nil)
		return
	}

	if err := h.eventService.RemoveCohost(eventID, user.ID, cohostID); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// pathID parses a numeric path parameter
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}
