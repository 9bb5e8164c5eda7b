package repository

import (
	"database/sql"
	"fmt"
	"time"

	"gatherly/internal/database"
	"gatherly/internal/models"
)

// ClaimRepository handles database operations for performer timeslot claims
type ClaimRepository struct {
	db *database.DB
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *database.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

const claimColumns = `
	id, event_id, date_key, slot_index, user_id, guest_name, guest_email,
	status, waitlist_position, offer_expires_at, created_at, updated_at
`

// Claim inserts a new timeslot claim: confirmed while the slot is free and
// nobody is queued on it, waitlisted on the slot's queue otherwise. Joining
// behind queued claims keeps promotion in arrival order even while a freed
// slot is between offers. A racing duplicate surfaces as a unique-constraint
// violation.
func (r *ClaimRepository) Claim(eventID int64, dateKey string, slotIndex int, identity models.Identity) (*models.Claim, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	held, err := slotHeld(tx, eventID, dateKey, slotIndex)
	if err != nil {
		return nil, err
	}
	waiting, err := countSlotWaiting(tx, eventID, dateKey, slotIndex)
	if err != nil {
		return nil, err
	}

	status := models.SignupStatusConfirmed
	var position *int
	if held || waiting > 0 {
		status = models.SignupStatusWaitlist
		next, err := nextSlotPosition(tx, eventID, dateKey, slotIndex)
		if err != nil {
			return nil, err
		}
		position = &next
	}

	query := `
		INSERT INTO claims (event_id, date_key, slot_index, user_id, guest_name, guest_email, status, waitlist_position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := tx.ExecReturningID(query,
		eventID, dateKey, slotIndex, identity.UserID, identity.GuestName, nullableEmail(identity), status, position,
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

// GetByID retrieves a claim by ID
func (r *ClaimRepository) GetByID(id int64) (*models.Claim, error) {
	query := "SELECT " + claimColumns + " FROM claims WHERE id = ?"
	return scanClaim(r.db.QueryRow(query, id))
}

// ListForOccurrence retrieves all non-cancelled claims for one occurrence,
// ordered by slot then waitlist arrival
func (r *ClaimRepository) ListForOccurrence(eventID int64, dateKey string) ([]models.Claim, error) {
	query := `
		SELECT ` + claimColumns + `
		FROM claims
		WHERE event_id = ? AND date_key = ? AND status <> ?
		ORDER BY slot_index ASC,
			CASE WHEN waitlist_position IS NULL THEN 0 ELSE 1 END,
			waitlist_position ASC, created_at ASC, id ASC
	`
	rows, err := r.db.Query(query, eventID, dateKey, models.SignupStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer rows.Close()

	var claims []models.Claim
	for rows.Next() {
		claim, err := scanClaimFromRows(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, *claim)
	}
	return claims, rows.Err()
}

// Release ends a slot-holding claim (cancel, decline, no-show or performed)
// and promotes the earliest waitlisted claim on that slot. Returns the
// promoted claim, if any.
func (r *ClaimRepository) Release(id int64, newStatus string, offerExpiresAt time.Time) (*models.Claim, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getClaimInTx(tx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("claim %d not found", id)
	}

	// Terminal post-event statuses keep the slot occupied historically; only
	// cancellations free it up for promotion.
	promotable := current.HoldsSlot() && newStatus == models.SignupStatusCancelled

	query := `
		UPDATE claims SET status = ?, waitlist_position = NULL, offer_expires_at = NULL, updated_at = ?
		WHERE id = ?
	`
	if _, err := tx.Exec(query, newStatus, time.Now(), id); err != nil {
		return nil, fmt.Errorf("failed to update claim: %w", err)
	}

	var promoted *models.Claim
	if promotable {
		promoted, err = promoteEarliestClaim(tx, current.EventID, current.DateKey, current.SlotIndex, offerExpiresAt)
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
func (r *ClaimRepository) UpdateStatus(id int64, status string) error {
	query := `
		UPDATE claims SET status = ?, waitlist_position = NULL, offer_expires_at = NULL, updated_at = ?
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, status, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update claim status: %w", err)
	}
	return nil
}

// AcceptOffer converts an outstanding slot offer into a confirmed claim
func (r *ClaimRepository) AcceptOffer(id int64) error {
	query := `
		UPDATE claims SET status = ?, waitlist_position = NULL, offer_expires_at = NULL, updated_at = ?
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
		return fmt.Errorf("claim %d has no outstanding offer", id)
	}
	return nil
}

// ListExpiredOffers retrieves slot offers whose TTL has lapsed
func (r *ClaimRepository) ListExpiredOffers(now time.Time) ([]models.Claim, error) {
	query := `
		SELECT ` + claimColumns + `
		FROM claims WHERE status = ? AND offer_expires_at IS NOT NULL AND offer_expires_at < ?
	`
	rows, err := r.db.Query(query, models.SignupStatusOffered, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired offers: %w", err)
	}
	defer rows.Close()

	var claims []models.Claim
	for rows.Next() {
		claim, err := scanClaimFromRows(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, *claim)
	}
	return claims, rows.Err()
}

// Requeue returns an expired slot offer to the tail of its slot's waitlist
func (r *ClaimRepository) Requeue(id int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getClaimInTx(tx, id)
	if err != nil {
		return err
	}
	if current == nil || current.Status != models.SignupStatusOffered {
		// Raced with an accept; leave it alone
		return nil
	}

	next, err := nextSlotPosition(tx, current.EventID, current.DateKey, current.SlotIndex)
	if err != nil {
		return err
	}

	query := `
		UPDATE claims SET status = ?, waitlist_position = ?, offer_expires_at = NULL, updated_at = ?
		WHERE id = ?
	`
	if _, err := tx.Exec(query, models.SignupStatusWaitlist, next, time.Now(), id); err != nil {
		return fmt.Errorf("failed to requeue claim: %w", err)
	}

	return tx.Commit()
}

// Backfill promotes the earliest waitlisted claim into a freed slot. A
// just-requeued claim sits at the tail, so with others queued it is passed
// over; a sole waitlister is offered the slot again. Returns the promoted
// claim, if any.
func (r *ClaimRepository) Backfill(eventID int64, dateKey string, slotIndex int, offerExpiresAt time.Time) (*models.Claim, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	held, err := slotHeld(tx, eventID, dateKey, slotIndex)
	if err != nil {
		return nil, err
	}
	if held {
		return nil, nil
	}

	promoted, err := promoteEarliestClaim(tx, eventID, dateKey, slotIndex, offerExpiresAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return promoted, nil
}

// CancelFutureForEvent cancels every active claim on or after fromDateKey.
// Used when a whole event is cancelled; no promotions follow.
func (r *ClaimRepository) CancelFutureForEvent(eventID int64, fromDateKey string) error {
	query := `
		UPDATE claims SET status = ?, waitlist_position = NULL, offer_expires_at = NULL, updated_at = ?
		WHERE event_id = ? AND date_key >= ? AND status IN (?, ?, ?)
	`
	_, err := r.db.Exec(query,
		models.SignupStatusCancelled, time.Now(), eventID, fromDateKey,
		models.SignupStatusConfirmed, models.SignupStatusWaitlist, models.SignupStatusOffered,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel future claims: %w", err)
	}
	return nil
}

// slotHeld reports whether a timeslot is held by a confirmed or offered claim
func slotHeld(tx *database.Tx, eventID int64, dateKey string, slotIndex int) (bool, error) {
	query := `
		SELECT COUNT(*) FROM claims
		WHERE event_id = ? AND date_key = ? AND slot_index = ? AND status IN (?, ?)
	`
	var count int
	err := tx.QueryRow(query, eventID, dateKey, slotIndex,
		models.SignupStatusConfirmed, models.SignupStatusOffered).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return count > 0, nil
}

// countSlotWaiting counts waitlisted claims queued on a timeslot
func countSlotWaiting(tx *database.Tx, eventID int64, dateKey string, slotIndex int) (int, error) {
	query := `
		SELECT COUNT(*) FROM claims
		WHERE event_id = ? AND date_key = ? AND slot_index = ? AND status = ?
	`
	var count int
	err := tx.QueryRow(query, eventID, dateKey, slotIndex, models.SignupStatusWaitlist).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count slot waitlist: %w", err)
	}
	return count, nil
}

// nextSlotPosition returns the next tail position for a slot's waitlist
func nextSlotPosition(tx *database.Tx, eventID int64, dateKey string, slotIndex int) (int, error) {
	query := `
		SELECT COALESCE(MAX(waitlist_position), 0) FROM claims
		WHERE event_id = ? AND date_key = ? AND slot_index = ?
	`
	var max int
	if err := tx.QueryRow(query, eventID, dateKey, slotIndex).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to get slot waitlist position: %w", err)
	}
	return max + 1, nil
}

// promoteEarliestClaim offers the slot to its earliest waitlisted claim, if any
func promoteEarliestClaim(tx *database.Tx, eventID int64, dateKey string, slotIndex int, offerExpiresAt time.Time) (*models.Claim, error) {
	query := `
		SELECT ` + claimColumns + `
		FROM claims
		WHERE event_id = ? AND date_key = ? AND slot_index = ? AND status = ?
		ORDER BY waitlist_position ASC LIMIT 1
	`
	next, err := scanClaim(tx.QueryRow(query, eventID, dateKey, slotIndex, models.SignupStatusWaitlist))
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, nil
	}

	query = `
		UPDATE claims SET status = ?, waitlist_position = NULL, offer_expires_at = ?, updated_at = ?
		WHERE id = ?
	`
	if _, err := tx.Exec(query, models.SignupStatusOffered, offerExpiresAt, time.Now(), next.ID); err != nil {
		return nil, fmt.Errorf("failed to promote claim: %w", err)
	}

	next.Status = models.SignupStatusOffered
	next.WaitlistPosition = nil
	next.OfferExpiresAt = &offerExpiresAt
	return next, nil
}

func getClaimInTx(tx *database.Tx, id int64) (*models.Claim, error) {
	query := "SELECT " + claimColumns + " FROM claims WHERE id = ?"
	return scanClaim(tx.QueryRow(query, id))
}

func scanClaim(row *sql.Row) (*models.Claim, error) {
	claim, err := scanClaimFields(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return claim, nil
}

func scanClaimFromRows(rows *sql.Rows) (*models.Claim, error) {
	claim, err := scanClaimFields(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan claim: %w", err)
	}
	return claim, nil
}

func scanClaimFields(s rowScanner) (*models.Claim, error) {
	claim := &models.Claim{}
	var userID sql.NullInt64
	var guestEmail sql.NullString
	var position sql.NullInt64
	var offerExpiresAt sql.NullTime

	err := s.Scan(
		&claim.ID, &claim.EventID, &claim.DateKey, &claim.SlotIndex, &userID, &claim.GuestName, &guestEmail,
		&claim.Status, &position, &offerExpiresAt, &claim.CreatedAt, &claim.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		claim.UserID = &userID.Int64
	}
	if guestEmail.Valid {
		claim.GuestEmail = &guestEmail.String
	}
	if position.Valid {
		n := int(position.Int64)
		claim.WaitlistPosition = &n
	}
	if offerExpiresAt.Valid {
		t := offerExpiresAt.Time
		claim.OfferExpiresAt = &t
	}
	return claim, nil
}
