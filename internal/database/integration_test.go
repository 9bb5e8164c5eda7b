package database

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	// Skip if not in integration test mode
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	// Test that tables were created by migrations
	tables := []string{"users", "sessions", "events", "event_hosts", "event_custom_dates", "rsvps", "claims", "verifications", "invites"}

	for _, table := range tables {
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		var name string
		err := db.QueryRowContext(ctx, query, table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Migrations are idempotent
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Errorf("Re-running migrations failed: %v", err)
	}
}

// TestExecReturningID tests ID generation through the dialect layer
func TestExecReturningID(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)

	id, err := db.ExecReturningID("INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
		"host@example.com", "hashedpass", "Host")
	if err != nil {
		t.Fatalf("ExecReturningID failed: %v", err)
	}
	if id == 0 {
		t.Error("Expected non-zero id")
	}

	id2, err := db.ExecReturningID("INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
		"other@example.com", "hashedpass", "Other")
	if err != nil {
		t.Fatalf("ExecReturningID failed: %v", err)
	}
	if id2 <= id {
		t.Errorf("Expected increasing ids, got %d then %d", id, id2)
	}
}

// TestUniqueViolationDetection tests unique-constraint detection against a real database
func TestUniqueViolationDetection(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)

	_, err := db.Exec("INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
		"dup@example.com", "hashedpass", "First")
	if err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}

	_, err = db.Exec("INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
		"dup@example.com", "hashedpass", "Second")
	if err == nil {
		t.Fatal("Expected unique violation on duplicate email")
	}
	if !db.IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation() = false for %v", err)
	}

	// Partial unique index on active RSVPs
	eventID, err := db.ExecReturningID("INSERT INTO events (host_id, title, start_date, status) VALUES (?, ?, ?, ?)",
		1, "Open Mic", "2026-09-10", "published")
	if err != nil {
		t.Fatalf("Failed to insert event: %v", err)
	}

	_, err = db.Exec("INSERT INTO rsvps (event_id, date_key, guest_email, guest_name, status) VALUES (?, ?, ?, ?, ?)",
		eventID, "2026-09-10", "guest@example.com", "Guest", "confirmed")
	if err != nil {
		t.Fatalf("Failed to insert rsvp: %v", err)
	}

	_, err = db.Exec("INSERT INTO rsvps (event_id, date_key, guest_email, guest_name, status) VALUES (?, ?, ?, ?, ?)",
		eventID, "2026-09-10", "guest@example.com", "Guest", "waitlist")
	if err == nil {
		t.Fatal("Expected unique violation on duplicate active rsvp")
	}
	if !db.IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation() = false for %v", err)
	}

	// A cancelled row does not block a new signup
	_, err = db.Exec("UPDATE rsvps SET status = 'cancelled' WHERE event_id = ? AND guest_email = ?",
		eventID, "guest@example.com")
	if err != nil {
		t.Fatalf("Failed to cancel rsvp: %v", err)
	}
	_, err = db.Exec("INSERT INTO rsvps (event_id, date_key, guest_email, guest_name, status) VALUES (?, ?, ?, ?, ?)",
		eventID, "2026-09-10", "guest@example.com", "Guest", "confirmed")
	if err != nil {
		t.Errorf("Signup after cancellation should succeed: %v", err)
	}
}

// TestDatabaseTransactions tests transaction support
func TestDatabaseTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	ctx := context.Background()

	// Test successful transaction
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}

	_, err = tx.ExecContext(ctx, "INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
		"tx@example.com", "hashedpass", "Tx User")
	if err != nil {
		tx.Rollback()
		t.Fatalf("Failed to insert in transaction: %v", err)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit transaction: %v", err)
	}

	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", "tx@example.com").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query after commit: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 user, got %d", count)
	}

	// Test rollback
	tx2, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin second transaction: %v", err)
	}

	_, err = tx2.ExecContext(ctx, "INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
		"rollback@example.com", "hashedpass", "Rollback User")
	if err != nil {
		tx2.Rollback()
		t.Fatalf("Failed to insert in second transaction: %v", err)
	}

	if err := tx2.Rollback(); err != nil {
		t.Fatalf("Failed to rollback transaction: %v", err)
	}

	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", "rollback@example.com").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query after rollback: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 users after rollback, got %d", count)
	}
}
