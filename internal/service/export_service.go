package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gatherly/internal/database"
)

// ExportData is the complete portable dump of the database
type ExportData struct {
	Version    string         `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	Users      []UserExport   `json:"users"`
	Events     []EventExport  `json:"events"`
	RSVPs      []SignupExport `json:"rsvps"`
	Claims     []SignupExport `json:"claims"`
	Invites    []InviteExport `json:"invites"`
}

// UserExport is a user record in a dump
type UserExport struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EventExport is an event record in a dump, with its hosts and custom dates
type EventExport struct {
	ID                 int64        `json:"id"`
	HostID             int64        `json:"host_id"`
	Title              string       `json:"title"`
	Description        string       `json:"description"`
	Location           string       `json:"location"`
	Status             string       `json:"status"`
	StartDate          string       `json:"start_date"`
	StartTime          string       `json:"start_time"`
	DurationMinutes    int          `json:"duration_minutes"`
	Capacity           *int64       `json:"capacity"`
	SlotCount          int          `json:"slot_count"`
	SlotMinutes        int          `json:"slot_minutes"`
	RecurrenceRule     string       `json:"recurrence_rule"`
	RecurrenceInterval int          `json:"recurrence_interval"`
	RecurrenceWeekday  int          `json:"recurrence_weekday"`
	RecurrenceOrdinal  int          `json:"recurrence_ordinal"`
	OccurrenceCount    *int64       `json:"occurrence_count"`
	CustomDates        []string     `json:"custom_dates,omitempty"`
	Hosts              []HostExport `json:"hosts"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// HostExport is an event host row in a dump
type HostExport struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// SignupExport covers both RSVP and claim rows in a dump
type SignupExport struct {
	ID               int64      `json:"id"`
	EventID          int64      `json:"event_id"`
	DateKey          string     `json:"date_key"`
	SlotIndex        *int64     `json:"slot_index,omitempty"`
	UserID           *int64     `json:"user_id"`
	GuestName        string     `json:"guest_name"`
	GuestEmail       string     `json:"guest_email"`
	Status           string     `json:"status"`
	WaitlistPosition *int64     `json:"waitlist_position"`
	OfferExpiresAt   *time.Time `json:"offer_expires_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// InviteExport is a co-host invite row in a dump
type InviteExport struct {
	ID          int64      `json:"id"`
	EventID     int64      `json:"event_id"`
	Email       string     `json:"email"`
	Token       string     `json:"token"`
	Status      string     `json:"status"`
	InvitedBy   int64      `json:"invited_by"`
	ExpiresAt   time.Time  `json:"expires_at"`
	RespondedAt *time.Time `json:"responded_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ExportService handles portable dump and restore operations
type ExportService struct {
	db *database.DB
}

// NewExportService creates a new export service
func NewExportService(db *database.DB) *ExportService {
	return &ExportService{db: db}
}

// Export dumps the database to a file
func (s *ExportService) Export(outputPath string) error {
	log.Println("Starting database export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}

	log.Printf("Database exported successfully to %s", outputPath)
	return nil
}

// ExportToWriter dumps the database as JSON to a writer
func (s *ExportService) ExportToWriter(w io.Writer) error {
	dump := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now(),
	}

	if err := s.exportUsers(dump); err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	if err := s.exportEvents(dump); err != nil {
		return fmt.Errorf("failed to export events: %w", err)
	}
	if err := s.exportRSVPs(dump); err != nil {
		return fmt.Errorf("failed to export rsvps: %w", err)
	}
	if err := s.exportClaims(dump); err != nil {
		return fmt.Errorf("failed to export claims: %w", err)
	}
	if err := s.exportInvites(dump); err != nil {
		return fmt.Errorf("failed to export invites: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(dump)
}

// Import restores a database from a dump file
func (s *ExportService) Import(inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a database from a dump reader
func (s *ExportService) ImportFromReader(reader io.Reader) error {
	var dump ExportData
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&dump); err != nil {
		return fmt.Errorf("failed to decode dump: %w", err)
	}

	log.Printf("Dump version: %s, exported at: %s", dump.Version, dump.ExportedAt)

	// Import in order of dependencies
	if err := s.importUsers(dump.Users); err != nil {
		return fmt.Errorf("failed to import users: %w", err)
	}
	if err := s.importEvents(dump.Events); err != nil {
		return fmt.Errorf("failed to import events: %w", err)
	}
	if err := s.importSignups("rsvps", dump.RSVPs); err != nil {
		return fmt.Errorf("failed to import rsvps: %w", err)
	}
	if err := s.importSignups("claims", dump.Claims); err != nil {
		return fmt.Errorf("failed to import claims: %w", err)
	}
	if err := s.importInvites(dump.Invites); err != nil {
		return fmt.Errorf("failed to import invites: %w", err)
	}

	log.Println("Database import completed successfully")
	return nil
}

func (s *ExportService) exportUsers(dump *ExportData) error {
	query := "SELECT id, email, password_hash, name, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), created_at, updated_at FROM users ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserExport
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.OAuthProvider, &u.OAuthSubject, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		dump.Users = append(dump.Users, u)
	}
	return rows.Err()
}

func (s *ExportService) exportEvents(dump *ExportData) error {
	query := `SELECT id, host_id, title, description, location, status, start_date, start_time,
		duration_minutes, capacity, slot_count, slot_minutes, recurrence_rule, recurrence_interval,
		recurrence_weekday, recurrence_ordinal, occurrence_count, created_at, updated_at
		FROM events ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e EventExport
		var capacity, occurrenceCount sql.NullInt64
		err := rows.Scan(&e.ID, &e.HostID, &e.Title, &e.Description, &e.Location, &e.Status,
			&e.StartDate, &e.StartTime, &e.DurationMinutes, &capacity, &e.SlotCount, &e.SlotMinutes,
			&e.RecurrenceRule, &e.RecurrenceInterval, &e.RecurrenceWeekday, &e.RecurrenceOrdinal,
			&occurrenceCount, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return err
		}
		if capacity.Valid {
			e.Capacity = &capacity.Int64
		}
		if occurrenceCount.Valid {
			e.OccurrenceCount = &occurrenceCount.Int64
		}

		if err := s.loadEventChildren(&e); err != nil {
			return err
		}
		dump.Events = append(dump.Events, e)
	}
	return rows.Err()
}

func (s *ExportService) loadEventChildren(e *EventExport) error {
	dateRows, err := s.db.Query("SELECT date_key FROM event_custom_dates WHERE event_id = ? ORDER BY date_key", e.ID)
	if err != nil {
		return err
	}
	for dateRows.Next() {
		var d string
		if err := dateRows.Scan(&d); err != nil {
			dateRows.Close()
			return err
		}
		e.CustomDates = append(e.CustomDates, d)
	}
	dateRows.Close()
	if err := dateRows.Err(); err != nil {
		return err
	}

	hostRows, err := s.db.Query("SELECT user_id, role FROM event_hosts WHERE event_id = ? ORDER BY user_id", e.ID)
	if err != nil {
		return err
	}
	for hostRows.Next() {
		var h HostExport
		if err := hostRows.Scan(&h.UserID, &h.Role); err != nil {
			hostRows.Close()
			return err
		}
		e.Hosts = append(e.Hosts, h)
	}
	hostRows.Close()
	return hostRows.Err()
}

func (s *ExportService) exportRSVPs(dump *ExportData) error {
	query := `SELECT id, event_id, date_key, user_id, guest_name, COALESCE(guest_email, ''),
		status, waitlist_position, offer_expires_at, created_at, updated_at FROM rsvps ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		signup, err := scanSignupExport(rows, false)
		if err != nil {
			return err
		}
		dump.RSVPs = append(dump.RSVPs, *signup)
	}
	return rows.Err()
}

func (s *ExportService) exportClaims(dump *ExportData) error {
	query := `SELECT id, event_id, date_key, slot_index, user_id, guest_name, COALESCE(guest_email, ''),
		status, waitlist_position, offer_expires_at, created_at, updated_at FROM claims ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		signup, err := scanSignupExport(rows, true)
		if err != nil {
			return err
		}
		dump.Claims = append(dump.Claims, *signup)
	}
	return rows.Err()
}

func scanSignupExport(rows *sql.Rows, withSlot bool) (*SignupExport, error) {
	var signup SignupExport
	var slotIndex, userID, position sql.NullInt64
	var offerExpiresAt sql.NullTime

	dest := []interface{}{&signup.ID, &signup.EventID, &signup.DateKey}
	if withSlot {
		dest = append(dest, &slotIndex)
	}
	dest = append(dest, &userID, &signup.GuestName, &signup.GuestEmail,
		&signup.Status, &position, &offerExpiresAt, &signup.CreatedAt, &signup.UpdatedAt)

	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	if slotIndex.Valid {
		signup.SlotIndex = &slotIndex.Int64
	}
	if userID.Valid {
		signup.UserID = &userID.Int64
	}
	if position.Valid {
		signup.WaitlistPosition = &position.Int64
	}
	if offerExpiresAt.Valid {
		signup.OfferExpiresAt = &offerExpiresAt.Time
	}
	return &signup, nil
}

func (s *ExportService) exportInvites(dump *ExportData) error {
	query := "SELECT id, event_id, email, token, status, invited_by, expires_at, responded_at, created_at FROM invites ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var i InviteExport
		var respondedAt sql.NullTime
		if err := rows.Scan(&i.ID, &i.EventID, &i.Email, &i.Token, &i.Status, &i.InvitedBy, &i.ExpiresAt, &respondedAt, &i.CreatedAt); err != nil {
			return err
		}
		if respondedAt.Valid {
			i.RespondedAt = &respondedAt.Time
		}
		dump.Invites = append(dump.Invites, i)
	}
	return rows.Err()
}

func (s *ExportService) importUsers(users []UserExport) error {
	log.Printf("Importing %d users...", len(users))
	for _, u := range users {
		query := "INSERT INTO users (id, email, password_hash, name, oauth_provider, oauth_subject, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := s.db.Exec(query, u.ID, u.Email, u.PasswordHash, u.Name, nullIfEmpty(u.OAuthProvider), nullIfEmpty(u.OAuthSubject), u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import user %d: %w", u.ID, err)
		}
	}
	return nil
}

func (s *ExportService) importEvents(events []EventExport) error {
	log.Printf("Importing %d events...", len(events))
	for _, e := range events {
		query := `INSERT INTO events (id, host_id, title, description, location, status, start_date, start_time,
			duration_minutes, capacity, slot_count, slot_minutes, recurrence_rule, recurrence_interval,
			recurrence_weekday, recurrence_ordinal, occurrence_count, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := s.db.Exec(query, e.ID, e.HostID, e.Title, e.Description, e.Location, e.Status,
			e.StartDate, e.StartTime, e.DurationMinutes, e.Capacity, e.SlotCount, e.SlotMinutes,
			e.RecurrenceRule, e.RecurrenceInterval, e.RecurrenceWeekday, e.RecurrenceOrdinal,
			e.OccurrenceCount, e.CreatedAt, e.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import event %d: %w", e.ID, err)
		}

		for _, d := range e.CustomDates {
			if _, err := s.db.Exec("INSERT INTO event_custom_dates (event_id, date_key) VALUES (?, ?)", e.ID, d); err != nil {
				return fmt.Errorf("failed to import custom date for event %d: %w", e.ID, err)
			}
		}
		for _, h := range e.Hosts {
			if _, err := s.db.Exec("INSERT INTO event_hosts (event_id, user_id, role) VALUES (?, ?, ?)", e.ID, h.UserID, h.Role); err != nil {
				return fmt.Errorf("failed to import host %d for event %d: %w", h.UserID, e.ID, err)
			}
		}
	}
	return nil
}

func (s *ExportService) importSignups(table string, signups []SignupExport) error {
	log.Printf("Importing %d %s...", len(signups), table)
	for _, sg := range signups {
		var err error
		if table == "claims" {
			query := `INSERT INTO claims (id, event_id, date_key, slot_index, user_id, guest_name, guest_email,
				status, waitlist_position, offer_expires_at, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
			_, err = s.db.Exec(query, sg.ID, sg.EventID, sg.DateKey, sg.SlotIndex, sg.UserID, sg.GuestName,
				nullIfEmpty(sg.GuestEmail), sg.Status, sg.WaitlistPosition, sg.OfferExpiresAt, sg.CreatedAt, sg.UpdatedAt)
		} else {
			query := `INSERT INTO rsvps (id, event_id, date_key, user_id, guest_name, guest_email,
				status, waitlist_position, offer_expires_at, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
			_, err = s.db.Exec(query, sg.ID, sg.EventID, sg.DateKey, sg.UserID, sg.GuestName,
				nullIfEmpty(sg.GuestEmail), sg.Status, sg.WaitlistPosition, sg.OfferExpiresAt, sg.CreatedAt, sg.UpdatedAt)
		}
		if err != nil {
			return fmt.Errorf("failed to import %s row %d: %w", table, sg.ID, err)
		}
	}
	return nil
}

func (s *ExportService) importInvites(invites []InviteExport) error {
	log.Printf("Importing %d invites...", len(invites))
	for _, i := range invites {
		query := "INSERT INTO invites (id, event_id, email, token, status, invited_by, expires_at, responded_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := s.db.Exec(query, i.ID, i.EventID, i.Email, i.Token, i.Status, i.InvitedBy, i.ExpiresAt, i.RespondedAt, i.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import invite %d: %w", i.ID, err)
		}
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
