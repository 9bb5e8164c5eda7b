package repository

import (
	"database/sql"
	"fmt"
	"time"

	"gatherly/internal/database"
	"gatherly/internal/models"
	"gatherly/internal/security"
)

// InviteRepository handles database operations for co-host invites
type InviteRepository struct {
	db *database.DB
}

// NewInviteRepository creates a new invite repository
func NewInviteRepository(db *database.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

const inviteColumns = `
	id, event_id, email, token, status, invited_by, expires_at, responded_at, created_at
`

// Create inserts a pending invite with a fresh token. A duplicate active
// invite for the same email surfaces as a unique-constraint violation.
func (r *InviteRepository) Create(eventID int64, email string, invitedBy int64, expiresAt time.Time) (*models.Invite, error) {
	token, err := security.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite token: %w", err)
	}

	query := `
		INSERT INTO invites (event_id, email, token, status, invited_by, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, eventID, email, token, models.InviteStatusPending, invitedBy, expiresAt)
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// GetByID retrieves an invite by ID
func (r *InviteRepository) GetByID(id int64) (*models.Invite, error) {
	query := "SELECT " + inviteColumns + " FROM invites WHERE id = ?"
	return scanInvite(r.db.QueryRow(query, id))
}

// GetByToken retrieves an invite by its emailed token
func (r *InviteRepository) GetByToken(token string) (*models.Invite, error) {
	query := "SELECT " + inviteColumns + " FROM invites WHERE token = ?"
	return scanInvite(r.db.QueryRow(query, token))
}

// ListByEvent retrieves all invites for an event with inviter names
func (r *InviteRepository) ListByEvent(eventID int64) ([]models.Invite, error) {
	query := `
		SELECT i.id, i.event_id, i.email, i.token, i.status, i.invited_by,
			i.expires_at, i.responded_at, i.created_at, u.name
		FROM invites i
		JOIN users u ON u.id = i.invited_by
		WHERE i.event_id = ?
		ORDER BY i.created_at DESC
	`
	rows, err := r.db.Query(query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invites: %w", err)
	}
	defer rows.Close()

	var invites []models.Invite
	for rows.Next() {
		invite := models.Invite{}
		var respondedAt sql.NullTime
		err := rows.Scan(
			&invite.ID, &invite.EventID, &invite.Email, &invite.Token, &invite.Status,
			&invite.InvitedBy, &invite.ExpiresAt, &respondedAt, &invite.CreatedAt, &invite.InviterName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		if respondedAt.Valid {
			t := respondedAt.Time
			invite.RespondedAt = &t
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}

// CountActive returns how many invites consume the event's allowance
func (r *InviteRepository) CountActive(eventID int64) (int, error) {
	query := "SELECT COUNT(*) FROM invites WHERE event_id = ? AND status IN (?, ?)"
	var count int
	err := r.db.QueryRow(query, eventID, models.InviteStatusPending, models.InviteStatusAccepted).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count invites: %w", err)
	}
	return count, nil
}

// UpdateStatus marks an invite accepted, declined or revoked
func (r *InviteRepository) UpdateStatus(id int64, status string, respondedAt time.Time) error {
	query := "UPDATE invites SET status = ?, responded_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, status, respondedAt, id); err != nil {
		return fmt.Errorf("failed to update invite status: %w", err)
	}
	return nil
}

// ExpirePending marks lapsed pending invites expired, freeing their cap slots
func (r *InviteRepository) ExpirePending(now time.Time) (int64, error) {
	query := "UPDATE invites SET status = ? WHERE status = ? AND expires_at < ?"
	result, err := r.db.Exec(query, models.InviteStatusExpired, models.InviteStatusPending, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire invites: %w", err)
	}
	return result.RowsAffected()
}

func scanInvite(row *sql.Row) (*models.Invite, error) {
	invite := &models.Invite{}
	var respondedAt sql.NullTime
	err := row.Scan(
		&invite.ID, &invite.EventID, &invite.Email, &invite.Token, &invite.Status,
		&invite.InvitedBy, &invite.ExpiresAt, &respondedAt, &invite.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	if respondedAt.Valid {
		t := respondedAt.Time
		invite.RespondedAt = &t
	}
	return invite, nil
}
