package repository

import (
	"database/sql"
	"fmt"
	"time"

	"gatherly/internal/database"
	"gatherly/internal/models"
)

// RSVPRepository handles database operations for attendee signups
type RSVPRepository struct {
	db *database.DB
}

// NewRSVPRepository creates a new RSVP repository
func NewRSVPRepository(db *database.DB) *RSVPRepository {
	return &RSVPRepository{db: db}
}

const rsvpColumns = `
	id, event_id, date_key, user_id, guest_name, guest_email,
	status, waitlist_position, offer_expires_at, created_at, updated_at
`

// Signup inserts a new RSVP: confirmed while seats remain and nobody is
// waiting, waitlisted otherwise. Joining the queue behind existing waitlisted
// entries keeps promotion in arrival order even while a freed seat is between
// offers. A racing duplicate surfaces as a unique-constraint violation.
func (r *RSVPRepository) Signup(eventID int64, dateKey string, identity models.Identity, capacity *int) (*models.RSVP, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	status := models.SignupStatusConfirmed
	var position *int

	if capacity != nil {
		seats, err := countSeats(tx, eventID, dateKey)
		if err != nil {
			return nil, err
		}
		waiting, err := countWaiting(tx, eventID, dateKey)
		if err != nil {
			return nil, err
		}
		if seats >= *capacity || waiting > 0 {
			status = models.SignupStatusWaitlist
			next, err := nextWaitlistPosition(tx, eventID, dateKey)
			if err != nil {
				return nil, err
			}
			position = &next
		}
	}

	query := `
		INSERT INTO rsvps (event_id, date_key, user_id, guest_name, guest_email, status, waitlist_position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := tx.ExecReturningID(query,
		eventID, dateKey, identity.UserID, identity.GuestName, nullableEmail(identity), status, position,
	)
	if err != nil {
		// The unique violation must stay inspectable by the caller
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return r.GetByID(id)
}

// GetByID retrieves an RSVP by ID
func (r *RSVPRepository) GetByID(id int64) (*models.RSVP, error) {
	query := "SELECT " + rsvpColumns + " FROM rsvps WHERE id = ?"
	return scanRSVP(r.db.QueryRow(query, id))
}

// ListForOccurrence retrieves all non-cancelled RSVPs for one occurrence,
// seat holders first, then the waitlist in arrival order
func (r *RSVPRepository) ListForOccurrence(eventID int64, dateKey string) ([]models.RSVP, error) {
	query := `
		SELECT ` + rsvpColumns + `
		FROM rsvps
		WHERE event_id = ? AND date_key = ? AND status <> ?
		ORDER BY CASE WHEN waitlist_position IS NULL THEN 0 ELSE 1 END,
			waitlist_position ASC, created_at ASC, id ASC
	`
	rows, err := r.db.Query(query, eventID, dateKey, models.SignupStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to query rsvps: %w", err)
	}
	defer rows.Close()

	var rsvps []models.RSVP
	for rows.Next() {
		rsvp, err := scanRSVPFromRows(rows)
		if err != nil {
			return nil, err
		}
		rsvps = append(rsvps, *rsvp)
	}
	return rsvps, rows.Err()
}

// CountConfirmed returns the number of confirmed RSVPs for an occurrence
func (r *RSVPRepository) CountConfirmed(eventID int64, dateKey string) (int, error) {
	query := "SELECT COUNT(*) FROM rsvps WHERE event_id = ? AND date_key = ? AND status = ?"
	var count int
	if err := r.db.QueryRow(query, eventID, dateKey, models.SignupStatusConfirmed).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count confirmed rsvps: %w", err)
	}
	return count, nil
}

// Release ends a seat-holding RSVP (cancel, decline or no-show) and promotes
// the earliest waitlisted entry to offered. Returns the promoted RSVP, if any.
func (r *RSVPRepository) Release(id int64, newStatus string, offerExpiresAt time.Time) (*models.RSVP, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getRSVPInTx(tx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("rsvp %d not found", id)
	}

	heldSeat := current.HoldsSeat()

	query := `
		UPDATE rsvps SET status = ?, waitlist_position = NULL, offer_expires_at = NULL, updated_at = ?
		WHERE id = ?
	`
	if _, err := tx.Exec(query, newStatus, time.Now(), id); err != nil {
		return nil, fmt.Errorf("failed to update rsvp: %w", err)
	}

	var promoted *models.RSVP
	if heldSeat {
		promoted, err = promoteEarliest(tx, current.EventID, current.DateKey, offerExpiresAt)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return promoted, nil
}

// UpdateStatus sets a terminal or simple status without promotion
func (r *RSVPRepository) UpdateStatus(id int64, status string) error {
	query := `
		UPDATE rsvps SET status = ?, waitlist_position = NULL, offer_expires_at = NULL, updated_at = ?
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, status, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update rsvp status: %w", err)
	}
	return nil
}

// AcceptOffer converts an outstanding offer into a confirmed seat
func (r *RSVPRepository) AcceptOffer(id int64) error {
	query := `
		UPDATE rsvps SET status = ?, waitlist_position = NULL, offer_expires_at = NULL, updated_at = ?
		WHERE id = ? AND status = ?
	`
	result, err := r.db.Exec(query, models.SignupStatusConfirmed, time.Now(), id, models.SignupStatusOffered)
	if err != nil {
		return fmt.Errorf("failed to accept offer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to accept offer: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rsvp %d has no outstanding offer", id)
	}
	return nil
}

// ListExpiredOffers retrieves offers whose TTL has lapsed
func (r *RSVPRepository) ListExpiredOffers(now time.Time) ([]models.RSVP, error) {
	query := `
		SELECT ` + rsvpColumns + `
		FROM rsvps WHERE status = ? AND offer_expires_at IS NOT NULL AND offer_expires_at < ?
	`
	rows, err := r.db.Query(query, models.SignupStatusOffered, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired offers: %w", err)
	}
	defer rows.Close()

	var rsvps []models.RSVP
	for rows.Next() {
		rsvp, err := scanRSVPFromRows(rows)
		if err != nil {
			return nil, err
		}
		rsvps = append(rsvps, *rsvp)
	}
	return rsvps, rows.Err()
}

// Requeue returns an expired offer to the tail of the waitlist
func (r *RSVPRepository) Requeue(id int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getRSVPInTx(tx, id)
	if err != nil {
		return err
	}
	if current == nil || current.Status != models.SignupStatusOffered {
		// Raced with an accept; leave it alone
		return nil
	}

	next, err := nextWaitlistPosition(tx, current.EventID, current.DateKey)
	if err != nil {
		return err
	}

	query := `
		UPDATE rsvps SET status = ?, waitlist_position = ?, offer_expires_at = NULL, updated_at = ?
		WHERE id = ?
	`
	if _, err := tx.Exec(query, models.SignupStatusWaitlist, next, time.Now(), id); err != nil {
		return fmt.Errorf("failed to requeue rsvp: %w", err)
	}

	return tx.Commit()
}

// Backfill promotes earliest waitlisted entries into free seats. A
// just-requeued entry sits at the tail, so with other entries waiting it is
// passed over; a sole waitlister is offered the seat again. Returns the
// promoted RSVPs.
func (r *RSVPRepository) Backfill(eventID int64, dateKey string, capacity *int, offerExpiresAt time.Time) ([]models.RSVP, error) {
	if capacity == nil {
		return nil, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var promoted []models.RSVP
	for {
		seats, err := countSeats(tx, eventID, dateKey)
		if err != nil {
			return nil, err
		}
		if seats >= *capacity {
			break
		}
		next, err := promoteEarliest(tx, eventID, dateKey, offerExpiresAt)
		if err != nil {
			return nil, err
		}
		if next == nil {
			break
		}
		promoted = append(promoted, *next)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return promoted, nil
}

// CancelFutureForEvent cancels every active RSVP on or after fromDateKey.
// Used when a whole event is cancelled; no promotions follow.
func (r *RSVPRepository) CancelFutureForEvent(eventID int64, fromDateKey string) error {
	query := `
		UPDATE rsvps SET status = ?, waitlist_position = NULL, offer_expires_at = NULL, updated_at = ?
		WHERE event_id = ? AND date_key >= ? AND status IN (?, ?, ?)
	`
	_, err := r.db.Exec(query,
		models.SignupStatusCancelled, time.Now(), eventID, fromDateKey,
		models.SignupStatusConfirmed, models.SignupStatusWaitlist, models.SignupStatusOffered,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel future rsvps: %w", err)
	}
	return nil
}

// countSeats counts RSVPs holding a seat (confirmed or offered) in an occurrence
func countSeats(tx *database.Tx, eventID int64, dateKey string) (int, error) {
	query := "SELECT COUNT(*) FROM rsvps WHERE event_id = ? AND date_key = ? AND status IN (?, ?)"
	var count int
	err := tx.QueryRow(query, eventID, dateKey, models.SignupStatusConfirmed, models.SignupStatusOffered).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count seats: %w", err)
	}
	return count, nil
}

// countWaiting counts waitlisted RSVPs in an occurrence
func countWaiting(tx *database.Tx, eventID int64, dateKey string) (int, error) {
	query := "SELECT COUNT(*) FROM rsvps WHERE event_id = ? AND date_key = ? AND status = ?"
	var count int
	if err := tx.QueryRow(query, eventID, dateKey, models.SignupStatusWaitlist).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count waitlist: %w", err)
	}
	return count, nil
}

// nextWaitlistPosition returns the next tail position for an occurrence
func nextWaitlistPosition(tx *database.Tx, eventID int64, dateKey string) (int, error) {
	query := "SELECT COALESCE(MAX(waitlist_position), 0) FROM rsvps WHERE event_id = ? AND date_key = ?"
	var max int
	if err := tx.QueryRow(query, eventID, dateKey).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to get waitlist position: %w", err)
	}
	return max + 1, nil
}

// promoteEarliest offers the seat to the earliest waitlisted entry, if any
func promoteEarliest(tx *database.Tx, eventID int64, dateKey string, offerExpiresAt time.Time) (*models.RSVP, error) {
	query := `
		SELECT ` + rsvpColumns + `
		FROM rsvps
		WHERE event_id = ? AND date_key = ? AND status = ?
		ORDER BY waitlist_position ASC LIMIT 1
	`
	next, err := scanRSVP(tx.QueryRow(query, eventID, dateKey, models.SignupStatusWaitlist))
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, nil
	}

	query = `
		UPDATE rsvps SET status = ?, waitlist_position = NULL, offer_expires_at = ?, updated_at = ?
		WHERE id = ?
	`
	if _, err := tx.Exec(query, models.SignupStatusOffered, offerExpiresAt, time.Now(), next.ID); err != nil {
		return nil, fmt.Errorf("failed to promote rsvp: %w", err)
	}

	next.Status = models.SignupStatusOffered
	next.WaitlistPosition = nil
	next.OfferExpiresAt = &offerExpiresAt
	return next, nil
}

func getRSVPInTx(tx *database.Tx, id int64) (*models.RSVP, error) {
	query := "SELECT " + rsvpColumns + " FROM rsvps WHERE id = ?"
	return scanRSVP(tx.QueryRow(query, id))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRSVP(row *sql.Row) (*models.RSVP, error) {
	rsvp, err := scanRSVPFields(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rsvp: %w", err)
	}
	return rsvp, nil
}

func scanRSVPFromRows(rows *sql.Rows) (*models.RSVP, error) {
	rsvp, err := scanRSVPFields(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan rsvp: %w", err)
	}
	return rsvp, nil
}

func scanRSVPFields(s rowScanner) (*models.RSVP, error) {
	rsvp := &models.RSVP{}
	var userID sql.NullInt64
	var guestEmail sql.NullString
	var position sql.NullInt64
	var offerExpiresAt sql.NullTime

	err := s.Scan(
		&rsvp.ID, &rsvp.EventID, &rsvp.DateKey, &userID, &rsvp.GuestName, &guestEmail,
		&rsvp.Status, &position, &offerExpiresAt, &rsvp.CreatedAt, &rsvp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		rsvp.UserID = &userID.Int64
	}
	if guestEmail.Valid {
		rsvp.GuestEmail = &guestEmail.String
	}
	if position.Valid {
		n := int(position.Int64)
		rsvp.WaitlistPosition = &n
	}
	if offerExpiresAt.Valid {
		t := offerExpiresAt.Time
		rsvp.OfferExpiresAt = &t
	}
	return rsvp, nil
}

// nullableEmail returns the guest email or nil for member identities
func nullableEmail(identity models.Identity) interface{} {
	if identity.GuestEmail == "" {
		return nil
	}
	return identity.GuestEmail
}
