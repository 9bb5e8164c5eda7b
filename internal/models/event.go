package models

import "time"

// Event lifecycle statuses
const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
)

// Recurrence rules
const (
	RecurrenceNone    = "none"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
	RecurrenceCustom  = "custom"
)

// Event host roles
const (
	HostRoleOwner  = "owner"
	HostRoleCohost = "cohost"
)

// Event represents a happening: a one-off or recurring community event
type Event struct {
	ID              int64  `json:"id"`
	HostID          int64  `json:"host_id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	Status          string `json:"status"`
	StartDate       string `json:"start_date"` // date key of the first occurrence
	StartTime       string `json:"start_time"` // HH:MM, local to the venue
	DurationMinutes int    `json:"duration_minutes"`

	// Capacity is the RSVP ceiling per occurrence; nil means unlimited
	Capacity *int `json:"capacity"`

	// Timeslot configuration for the performer lineup; SlotCount 0 = no lineup
	SlotCount   int `json:"slot_count"`
	SlotMinutes int `json:"slot_minutes"`

	// Recurrence description
	RecurrenceRule     string   `json:"recurrence_rule"`
	RecurrenceInterval int      `json:"recurrence_interval"` // weeks between occurrences for weekly
	RecurrenceWeekday  int      `json:"recurrence_weekday"`  // 0=Sunday .. 6=Saturday
	RecurrenceOrdinal  int      `json:"recurrence_ordinal"`  // monthly: 1..4 or -1 for last
	OccurrenceCount    *int     `json:"occurrence_count"`    // nil = ongoing
	CustomDates        []string `json:"custom_dates,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPublished reports whether the event is visible to attendees
func (e *Event) IsPublished() bool {
	return e.Status == EventStatusPublished
}

// IsCancelled reports whether the event has been cancelled
func (e *Event) IsCancelled() bool {
	return e.Status == EventStatusCancelled
}

// HasLineup reports whether the event takes performer timeslot signups
func (e *Event) HasLineup() bool {
	return e.SlotCount > 0
}
