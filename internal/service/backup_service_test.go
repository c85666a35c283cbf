package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"moodjournal/internal/models"
	"moodjournal/internal/repository"
)

func TestBackupRoundTrip(t *testing.T) {
	source := newServiceTestDB(t)
	ctx := context.Background()

	user, err := repository.NewUserRepository(source).CreateUser(ctx, "b@example.com", "hash", "Backup")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if _, err := repository.NewQuestionRepository(source).SeedIfEmpty(ctx, []models.QuestionCard{
		{ID: 1, Category: "A", Content: "First"},
		{ID: 2, Category: "B", Content: "Second"},
	}); err != nil {
		t.Fatalf("SeedIfEmpty() error = %v", err)
	}
	sessions := repository.NewTrainingSessionRepository(source)
	session, err := sessions.CreateSession(ctx, user.ID, 2)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if err := repository.NewAnswerRepository(source).UpsertAnswer(ctx, user.ID, session.ID, 1, "answer"); err != nil {
		t.Fatalf("UpsertAnswer() error = %v", err)
	}
	if err := sessions.FinishSession(ctx, session.ID, models.TrainingStatusAbandoned, 1); err != nil {
		t.Fatalf("FinishSession() error = %v", err)
	}
	prefs := repository.DefaultPreferences(user.ID)
	prefs.ReminderTime = "07:30"
	if err := repository.NewPreferencesRepository(source).Save(ctx, prefs); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var buf bytes.Buffer
	exported, err := NewBackupService(source).ExportToWriter(ctx, &buf)
	if err != nil {
		t.Fatalf("ExportToWriter() error = %v", err)
	}
	if len(exported.Users) != 1 || len(exported.Answers) != 1 || len(exported.QuestionCards) != 2 {
		t.Fatalf("ExportToWriter() = %d users, %d answers, %d cards", len(exported.Users), len(exported.Answers), len(exported.QuestionCards))
	}

	target := newServiceTestDB(t)
	if err := NewBackupService(target).ImportFromReader(ctx, &buf); err != nil {
		t.Fatalf("ImportFromReader() error = %v", err)
	}

	restored, err := repository.NewUserRepository(target).GetUserByEmail(ctx, "b@example.com")
	if err != nil || restored == nil {
		t.Fatalf("GetUserByEmail() = %v, %v", restored, err)
	}
	if restored.ID != user.ID || restored.PasswordHash != "hash" {
		t.Errorf("restored user = %+v", restored)
	}

	restoredSession, err := repository.NewTrainingSessionRepository(target).GetSessionByID(ctx, session.ID)
	if err != nil || restoredSession == nil {
		t.Fatalf("GetSessionByID() = %v, %v", restoredSession, err)
	}
	if restoredSession.Status != models.TrainingStatusAbandoned || restoredSession.AnsweredCount != 1 {
		t.Errorf("restored session = %+v", restoredSession)
	}

	restoredPrefs, err := repository.NewPreferencesRepository(target).Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if restoredPrefs.ReminderTime != "07:30" {
		t.Errorf("restored reminder time = %q, want 07:30", restoredPrefs.ReminderTime)
	}

	next, err := repository.NewUserRepository(target).CreateUser(ctx, "after@example.com", "hash", "After")
	if err != nil {
		t.Fatalf("CreateUser() after import error = %v", err)
	}
	if next.ID <= user.ID {
		t.Errorf("new user id = %d, want greater than %d", next.ID, user.ID)
	}
}

func TestBackupRejectsUnknownVersion(t *testing.T) {
	db := newServiceTestDB(t)

	err := NewBackupService(db).ImportFromReader(context.Background(), strings.NewReader(`{"version":"0.1"}`))
	if err == nil || !strings.Contains(err.Error(), "unsupported backup version") {
		t.Errorf("ImportFromReader() error = %v, want unsupported version", err)
	}
}

func TestBackupClear(t *testing.T) {
	db := newServiceTestDB(t)
	ctx := context.Background()

	user, err := repository.NewUserRepository(db).CreateUser(ctx, "c@example.com", "hash", "Clear")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if _, err := repository.NewTrainingSessionRepository(db).CreateSession(ctx, user.ID, 6); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if err := NewBackupService(db).Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	users, err := repository.NewUserRepository(db).GetAllUsers(ctx)
	if err != nil {
		t.Fatalf("GetAllUsers() error = %v", err)
	}
	if len(users) != 0 {
		t.Errorf("GetAllUsers() after Clear() = %d users, want 0", len(users))
	}
}
