package repository

import (
	"database/sql"
	"fmt"
	"time"

	"gatherly/internal/database"
	"gatherly/internal/models"
)

// EventRepository handles database operations for events
type EventRepository struct {
	db *database.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `
	id, host_id, title, description, location, status,
	start_date, start_time, duration_minutes, capacity, slot_count, slot_minutes,
	recurrence_rule, recurrence_interval, recurrence_weekday, recurrence_ordinal,
	occurrence_count, created_at, updated_at
`

// CreateEvent creates a draft event with its custom dates and owner role
func (r *EventRepository) CreateEvent(e *models.Event) (*models.Event, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO events (
			host_id, title, description, location, status,
			start_date, start_time, duration_minutes, capacity, slot_count, slot_minutes,
			recurrence_rule, recurrence_interval, recurrence_weekday, recurrence_ordinal,
			occurrence_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	eventID, err := tx.ExecReturningID(query,
		e.HostID, e.Title, e.Description, e.Location, models.EventStatusDraft,
		e.StartDate, e.StartTime, e.DurationMinutes, e.Capacity, e.SlotCount, e.SlotMinutes,
		e.RecurrenceRule, e.RecurrenceInterval, e.RecurrenceWeekday, e.RecurrenceOrdinal,
		e.OccurrenceCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	for _, dateKey := range e.CustomDates {
		query = "INSERT INTO event_custom_dates (event_id, date_key) VALUES (?, ?)"
		if _, err := tx.Exec(query, eventID, dateKey); err != nil {
			return nil, fmt.Errorf("failed to add custom date: %w", err)
		}
	}

	query = "INSERT INTO event_hosts (event_id, user_id, role) VALUES (?, ?, ?)"
	if _, err := tx.Exec(query, eventID, e.HostID, models.HostRoleOwner); err != nil {
		return nil, fmt.Errorf("failed to add event owner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return r.GetEventByID(eventID)
}

// GetEventByID retrieves an event by ID, including custom dates
func (r *EventRepository) GetEventByID(eventID int64) (*models.Event, error) {
	query := "SELECT " + eventColumns + " FROM events WHERE id = ?"
	event, err := r.scanEvent(r.db.QueryRow(query, eventID))
	if err != nil || event == nil {
		return event, err
	}

	if event.RecurrenceRule == models.RecurrenceCustom {
		dates, err := r.getCustomDates(eventID)
		if err != nil {
			return nil, err
		}
		event.CustomDates = dates
	}

	return event, nil
}

// UpdateEvent updates an event's editable fields and replaces its custom dates
func (r *EventRepository) UpdateEvent(e *models.Event) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE events SET
			title = ?, description = ?, location = ?,
			start_date = ?, start_time = ?, duration_minutes = ?, capacity = ?,
			slot_count = ?, slot_minutes = ?,
			recurrence_rule = ?, recurrence_interval = ?, recurrence_weekday = ?,
			recurrence_ordinal = ?, occurrence_count = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = tx.Exec(query,
		e.Title, e.Description, e.Location,
		e.StartDate, e.StartTime, e.DurationMinutes, e.Capacity,
		e.SlotCount, e.SlotMinutes,
		e.RecurrenceRule, e.RecurrenceInterval, e.RecurrenceWeekday,
		e.RecurrenceOrdinal, e.OccurrenceCount, time.Now(),
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	query = "DELETE FROM event_custom_dates WHERE event_id = ?"
	if _, err := tx.Exec(query, e.ID); err != nil {
		return fmt.Errorf("failed to clear custom dates: %w", err)
	}
	for _, dateKey := range e.CustomDates {
		query = "INSERT INTO event_custom_dates (event_id, date_key) VALUES (?, ?)"
		if _, err := tx.Exec(query, e.ID, dateKey); err != nil {
			return fmt.Errorf("failed to add custom date: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateStatus moves an event through its lifecycle
func (r *EventRepository) UpdateStatus(eventID int64, status string) error {
	query := "UPDATE events SET status = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, status, time.Now(), eventID); err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	return nil
}

// ListByHost retrieves all events a user owns or co-hosts
func (r *EventRepository) ListByHost(userID int64) ([]models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id IN (SELECT event_id FROM event_hosts WHERE user_id = ?)
		ORDER BY created_at DESC
	`
	return r.queryEvents(query, userID)
}

// ListPublished retrieves published events
func (r *EventRepository) ListPublished() ([]models.Event, error) {
	query := "SELECT " + eventColumns + " FROM events WHERE status = ? ORDER BY start_date ASC"
	return r.queryEvents(query, models.EventStatusPublished)
}

// GetHostRole returns the user's role on an event, or "" if none
func (r *EventRepository) GetHostRole(eventID, userID int64) (string, error) {
	query := "SELECT role FROM event_hosts WHERE event_id = ? AND user_id = ?"
	var role string
	err := r.db.QueryRow(query, eventID, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get host role: %w", err)
	}
	return role, nil
}

// AddCohost grants a user the co-host role on an event
func (r *EventRepository) AddCohost(eventID, userID int64) error {
	query := "INSERT INTO event_hosts (event_id, user_id, role) VALUES (?, ?, ?)"
	if _, err := r.db.Exec(query, eventID, userID, models.HostRoleCohost); err != nil {
		if r.db.IsUniqueViolation(err) {
			// Already a host; nothing to do
			return nil
		}
		return fmt.Errorf("failed to add cohost: %w", err)
	}
	return nil
}

// RemoveCohost revokes a user's co-host role
func (r *EventRepository) RemoveCohost(eventID, userID int64) error {
	query := "DELETE FROM event_hosts WHERE event_id = ? AND user_id = ? AND role = ?"
	if _, err := r.db.Exec(query, eventID, userID, models.HostRoleCohost); err != nil {
		return fmt.Errorf("failed to remove cohost: %w", err)
	}
	return nil
}

func (r *EventRepository) getCustomDates(eventID int64) ([]string, error) {
	query := "SELECT date_key FROM event_custom_dates WHERE event_id = ? ORDER BY date_key ASC"
	rows, err := r.db.Query(query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query custom dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan custom date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (r *EventRepository) queryEvents(query string, args ...interface{}) ([]models.Event, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		event, err := scanEventFromRows(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func (r *EventRepository) scanEvent(row *sql.Row) (*models.Event, error) {
	event := &models.Event{}
	var capacity, occurrenceCount sql.NullInt64
	err := row.Scan(
		&event.ID, &event.HostID, &event.Title, &event.Description, &event.Location, &event.Status,
		&event.StartDate, &event.StartTime, &event.DurationMinutes, &capacity, &event.SlotCount, &event.SlotMinutes,
		&event.RecurrenceRule, &event.RecurrenceInterval, &event.RecurrenceWeekday, &event.RecurrenceOrdinal,
		&occurrenceCount, &event.CreatedAt, &event.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	applyNullableEventFields(event, capacity, occurrenceCount)
	return event, nil
}

func scanEventFromRows(rows *sql.Rows) (*models.Event, error) {
	event := &models.Event{}
	var capacity, occurrenceCount sql.NullInt64
	err := rows.Scan(
		&event.ID, &event.HostID, &event.Title, &event.Description, &event.Location, &event.Status,
		&event.StartDate, &event.StartTime, &event.DurationMinutes, &capacity, &event.SlotCount, &event.SlotMinutes,
		&event.RecurrenceRule, &event.RecurrenceInterval, &event.RecurrenceWeekday, &event.RecurrenceOrdinal,
		&occurrenceCount, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}
	applyNullableEventFields(event, capacity, occurrenceCount)
	return event, nil
}

func applyNullableEventFields(event *models.Event, capacity, occurrenceCount sql.NullInt64) {
	if capacity.Valid {
		n := int(capacity.Int64)
		event.Capacity = &n
	}
	if occurrenceCount.Valid {
		n := int(occurrenceCount.Int64)
		event.OccurrenceCount = &n
	}
}
