package service

import (
	"errors"
	"fmt"
	"time"

	"gatherly/internal/models"
	"gatherly/internal/recurrence"
	"gatherly/internal/repository"
	"gatherly/internal/validation"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrNotAuthorized     = errors.New("not authorized for this event")
	ErrEventNotPublished = errors.New("event is not open for signups")
	ErrNotAnOccurrence   = errors.New("date is not an occurrence of this event")
)

// EventService handles event lifecycle business logic
type EventService struct {
	eventRepo   *repository.EventRepository
	rsvpRepo    *repository.RSVPRepository
	claimRepo   *repository.ClaimRepository
	horizonDays int
}

// NewEventService creates a new event service
func NewEventService(eventRepo *repository.EventRepository, rsvpRepo *repository.RSVPRepository, claimRepo *repository.ClaimRepository, horizonDays int) *EventService {
	return &EventService{
		eventRepo:   eventRepo,
		rsvpRepo:    rsvpRepo,
		claimRepo:   claimRepo,
		horizonDays: horizonDays,
	}
}

// Create validates and stores a new draft event owned by hostID
func (s *EventService) Create(hostID int64, e *models.Event) (*models.Event, error) {
	if err := s.validateEvent(e); err != nil {
		return nil, err
	}

	e.HostID = hostID
	e.Status = models.EventStatusDraft
	return s.eventRepo.CreateEvent(e)
}

// Get retrieves an event by ID
func (s *EventService) Get(eventID int64) (*models.Event, error) {
	event, err := s.eventRepo.GetEventByID(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

// Update applies host edits to an event. Owner and co-hosts may edit.
func (s *EventService) Update(eventID, userID int64, e *models.Event) (*models.Event, error) {
	current, err := s.RequireHost(eventID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.validateEvent(e); err != nil {
		return nil, err
	}

	e.ID = current.ID
	e.HostID = current.HostID
	e.Status = current.Status
	if err := s.eventRepo.UpdateEvent(e); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return s.Get(eventID)
}

// Publish opens a draft event for signups
func (s *EventService) Publish(eventID, userID int64) (*models.Event, error) {
	event, err := s.RequireHost(eventID, userID)
	if err != nil {
		return nil, err
	}
	if event.IsCancelled() {
		return nil, ErrEventNotPublished
	}
	if err := s.eventRepo.UpdateStatus(eventID, models.EventStatusPublished); err != nil {
		return nil, fmt.Errorf("failed to publish event: %w", err)
	}
	return s.Get(eventID)
}

// Cancel cancels an event and every active signup for today onward.
// Past occurrences keep their attendance history.
func (s *EventService) Cancel(eventID, userID int64) (*models.Event, error) {
	_, err := s.RequireHost(eventID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.eventRepo.UpdateStatus(eventID, models.EventStatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to cancel event: %w", err)
	}

	today := recurrence.FormatDateKey(time.Now().UTC())
	if err := s.rsvpRepo.CancelFutureForEvent(eventID, today); err != nil {
		return nil, fmt.Errorf("failed to cancel future rsvps: %w", err)
	}
	if err := s.claimRepo.CancelFutureForEvent(eventID, today); err != nil {
		return nil, fmt.Errorf("failed to cancel future claims: %w", err)
	}

	return s.Get(eventID)
}

// ListByHost retrieves all events the user owns or co-hosts
func (s *EventService) ListByHost(userID int64) ([]models.Event, error) {
	return s.eventRepo.ListByHost(userID)
}

// ListPublished retrieves all published events
func (s *EventService) ListPublished() ([]models.Event, error) {
	return s.eventRepo.ListPublished()
}

// Occurrences returns the upcoming occurrence dates of a published event
func (s *EventService) Occurrences(eventID int64) ([]string, error) {
	event, err := s.Get(eventID)
	if err != nil {
		return nil, err
	}
	return recurrence.Upcoming(event, time.Now().UTC(), s.horizonDays)
}

// RequireOccurrence retrieves a published event and verifies dateKey falls
// on one of its occurrences
func (s *EventService) RequireOccurrence(eventID int64, dateKey string) (*models.Event, error) {
	event, err := s.Get(eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsPublished() {
		return nil, ErrEventNotPublished
	}

	ok, err := recurrence.IsOccurrence(event, dateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check occurrence: %w", err)
	}
	if !ok {
		return nil, ErrNotAnOccurrence
	}
	return event, nil
}

// RequireHost retrieves an event and verifies userID is its owner or a co-host
func (s *EventService) RequireHost(eventID, userID int64) (*models.Event, error) {
	event, err := s.Get(eventID)
	if err != nil {
		return nil, err
	}

	role, err := s.eventRepo.GetHostRole(eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check host role: %w", err)
	}
	if role == "" {
		return nil, ErrNotAuthorized
	}
	return event, nil
}

// RequireOwner retrieves an event and verifies userID is its owner
func (s *EventService) RequireOwner(eventID, userID int64) (*models.Event, error) {
	event, err := s.Get(eventID)
	if err != nil {
		return nil, err
	}

	role, err := s.eventRepo.GetHostRole(eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check host role: %w", err)
	}
	if role != models.HostRoleOwner {
		return nil, ErrNotAuthorized
	}
	return event, nil
}

// RemoveCohost drops a co-host from an event. Owner only.
func (s *EventService) RemoveCohost(eventID, ownerID, cohostID int64) error {
	if _, err := s.RequireOwner(eventID, ownerID); err != nil {
		return err
	}
	return s.eventRepo.RemoveCohost(eventID, cohostID)
}

func (s *EventService) validateEvent(e *models.Event) error {
	if err := validation.ValidateTitle(e.Title); err != nil {
		return err
	}
	if err := validation.ValidateDateKey(e.StartDate); err != nil {
		return err
	}
	if err := validation.ValidateStartTime(e.StartTime); err != nil {
		return err
	}
	if err := validation.ValidateCapacity(e.Capacity); err != nil {
		return err
	}
	if err := validation.ValidateSlotConfig(e.SlotCount, e.SlotMinutes); err != nil {
		return err
	}
	return s.validateRecurrence(e)
}

func (s *EventService) validateRecurrence(e *models.Event) error {
	switch e.RecurrenceRule {
	case models.RecurrenceNone:
		return nil
	case models.RecurrenceWeekly:
		if e.RecurrenceInterval < 1 {
			return validation.ValidationError{Field: "recurrence_interval", Message: "Interval must be at least 1 week"}
		}
		if e.RecurrenceWeekday < 0 || e.RecurrenceWeekday > 6 {
			return validation.ValidationError{Field: "recurrence_weekday", Message: "Weekday must be 0 (Sunday) through 6 (Saturday)"}
		}
	case models.RecurrenceMonthly:
		if e.RecurrenceWeekday < 0 || e.RecurrenceWeekday > 6 {
			return validation.ValidationError{Field: "recurrence_weekday", Message: "Weekday must be 0 (Sunday) through 6 (Saturday)"}
		}
		if e.RecurrenceOrdinal != -1 && (e.RecurrenceOrdinal < 1 || e.RecurrenceOrdinal > 4) {
			return validation.ValidationError{Field: "recurrence_ordinal", Message: "Ordinal must be 1 through 4, or -1 for the last week"}
		}
	case models.RecurrenceCustom:
		if len(e.CustomDates) == 0 {
			return validation.ValidationError{Field: "custom_dates", Message: "Custom recurrence needs at least one date"}
		}
		for _, d := range e.CustomDates {
			if err := validation.ValidateDateKey(d); err != nil {
				return err
			}
		}
	default:
		return validation.ValidationError{Field: "recurrence_rule", Message: "Unknown recurrence rule"}
	}

	if e.OccurrenceCount != nil && *e.OccurrenceCount < 1 {
		return validation.ValidationError{Field: "occurrence_count", Message: "Occurrence count must be at least 1"}
	}
	return nil
}
