package repository

import (
	"database/sql"
	"fmt"
	"time"

	"gatherly/internal/database"
	"gatherly/internal/models"
)

// VerificationRepository handles database operations for pending guest verifications
type VerificationRepository struct {
	db *database.DB
}

// NewVerificationRepository creates a new verification repository
func NewVerificationRepository(db *database.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

const verificationColumns = `
	id, code, purpose, event_id, date_key, slot_index, guest_name, guest_email,
	attempts, expires_at, consumed_at, created_at
`

// Create inserts a pending verification
func (r *VerificationRepository) Create(v *models.Verification) error {
	query := `
		INSERT INTO verifications (id, code, purpose, event_id, date_key, slot_index, guest_name, guest_email, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		v.ID, v.Code, v.Purpose, v.EventID, v.DateKey, v.SlotIndex,
		v.GuestName, v.GuestEmail, v.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create verification: %w", err)
	}
	return nil
}

// GetByID retrieves a verification by its opaque ID
func (r *VerificationRepository) GetByID(id string) (*models.Verification, error) {
	query := "SELECT " + verificationColumns + " FROM verifications WHERE id = ?"
	row := r.db.QueryRow(query, id)

	v := &models.Verification{}
	var slotIndex sql.NullInt64
	var consumedAt sql.NullTime
	err := row.Scan(
		&v.ID, &v.Code, &v.Purpose, &v.EventID, &v.DateKey, &slotIndex,
		&v.GuestName, &v.GuestEmail, &v.Attempts, &v.ExpiresAt, &consumedAt, &v.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification: %w", err)
	}

	if slotIndex.Valid {
		n := int(slotIndex.Int64)
		v.SlotIndex = &n
	}
	if consumedAt.Valid {
		t := consumedAt.Time
		v.ConsumedAt = &t
	}
	return v, nil
}

// IncrementAttempts records a failed code entry
func (r *VerificationRepository) IncrementAttempts(id string) error {
	query := "UPDATE verifications SET attempts = attempts + 1 WHERE id = ?"
	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to increment attempts: %w", err)
	}
	return nil
}

// Consume marks a verification used. Returns false if it was already
// consumed, so a double-submitted code cannot materialize two signups.
func (r *VerificationRepository) Consume(id string, at time.Time) (bool, error) {
	query := "UPDATE verifications SET consumed_at = ? WHERE id = ? AND consumed_at IS NULL"
	result, err := r.db.Exec(query, at, id)
	if err != nil {
		return false, fmt.Errorf("failed to consume verification: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to consume verification: %w", err)
	}
	return affected > 0, nil
}

// DeleteExpired removes verifications past their TTL plus a grace period
func (r *VerificationRepository) DeleteExpired(before time.Time) (int64, error) {
	query := "DELETE FROM verifications WHERE expires_at < ?"
	result, err := r.db.Exec(query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired verifications: %w", err)
	}
	return result.RowsAffected()
}
