package database

import (
	"context"
	"path/filepath"
	"testing"
)

func openMigrated(t *testing.T) *DB {
	t.Helper()

	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
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
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openMigrated(t)
	ctx := context.Background()

	tables := []string{"users", "sessions", "question_cards", "training_sessions", "training_answers", "notification_preferences"}
	for _, table := range tables {
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		var name string
		if err := db.QueryRowContext(ctx, query, table).Scan(&name); err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// A second run is a no-op
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Re-running migrations failed: %v", err)
	}
}

// TestDatabaseTransactions tests transaction support
func TestDatabaseTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openMigrated(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecReturningID(ctx, "INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
			"test@example.com", "hashedpass", "Tester")
		return err
	})
	if err != nil {
		t.Fatalf("Failed to insert in transaction: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", "test@example.com").Scan(&count); err != nil {
		t.Fatalf("Failed to query after commit: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 user, got %d", count)
	}

	tx, err := db.BeginTx(ctx)
	if err != nil {
		t.Fatalf("Failed to begin second transaction: %v", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
		"test2@example.com", "hashedpass", "Tester 2"); err != nil {
		tx.Rollback()
		t.Fatalf("Failed to insert in second transaction: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Failed to rollback transaction: %v", err)
	}

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", "test2@example.com").Scan(&count); err != nil {
		t.Fatalf("Failed to query after rollback: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 users after rollback, got %d", count)
	}
}

// TestUpsertAnswer checks the dialect upsert clause against the answers table
func TestUpsertAnswer(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openMigrated(t)
	ctx := context.Background()

	userID, err := db.ExecReturningID(ctx, "INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
		"upsert@example.com", "hashedpass", "Upsert")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	sessionID, err := db.ExecReturningID(ctx, "INSERT INTO training_sessions (user_id, status, total_questions) VALUES (?, ?, ?)",
		userID, "active", 6)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	query := "INSERT INTO training_answers (user_id, session_id, question_id, content) VALUES (?, ?, ?, ?) " +
		db.Dialect.UpsertClause([]string{"session_id", "question_id"}, []string{"content"})
	for _, content := range []string{"first", "second"} {
		if _, err := db.ExecContext(ctx, query, userID, sessionID, 1, content); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	var count int
	var content string
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*), MAX(content) FROM training_answers WHERE session_id = ?", sessionID).Scan(&count, &content); err != nil {
		t.Fatalf("Failed to read answers: %v", err)
	}
	if count != 1 || content != "second" {
		t.Errorf("got %d rows with content %q, want 1 row with %q", count, content, "second")
	}
}
