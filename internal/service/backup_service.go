package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"moodjournal/internal/database"
	"moodjournal/internal/models"
	"moodjournal/internal/repository"
)

const backupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version          string                           `json:"version"`
	ExportedAt       time.Time                        `json:"exported_at"`
	DatabaseType     string                           `json:"database_type"`
	Users            []UserBackup                     `json:"users"`
	QuestionCards    []models.QuestionCard            `json:"question_cards"`
	TrainingSessions []models.TrainingSession         `json:"training_sessions"`
	Answers          []models.TrainingAnswer          `json:"answers"`
	Preferences      []models.NotificationPreferences `json:"preferences"`
}

// UserBackup represents a user record for backup. Unlike models.User it
// carries the password hash.
type UserBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	log.Println("Starting database export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	backup, err := s.ExportToWriter(ctx, file)
	if err != nil {
		return err
	}

	log.Printf("Database exported successfully to %s", outputPath)
	log.Printf("Exported: %d users, %d question cards, %d training sessions, %d answers, %d preferences",
		len(backup.Users), len(backup.QuestionCards), len(backup.TrainingSessions),
		len(backup.Answers), len(backup.Preferences))
	return nil
}

// ExportToWriter writes the backup as indented JSON and returns what it wrote
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now(),
		DatabaseType: "universal",
	}

	users, err := repository.NewUserRepository(s.db).GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	for _, u := range users {
		backup.Users = append(backup.Users, UserBackup{
			ID:            u.ID,
			Email:         u.Email,
			PasswordHash:  u.PasswordHash,
			Name:          u.Name,
			OAuthProvider: u.OAuthProvider,
			OAuthSubject:  u.OAuthSubject,
			CreatedAt:     u.CreatedAt,
			UpdatedAt:     u.UpdatedAt,
		})
	}

	if backup.QuestionCards, err = repository.NewQuestionRepository(s.db).FetchCatalog(ctx); err != nil {
		return nil, fmt.Errorf("failed to export question cards: %w", err)
	}
	if backup.TrainingSessions, err = repository.NewTrainingSessionRepository(s.db).ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export training sessions: %w", err)
	}
	if backup.Answers, err = repository.NewAnswerRepository(s.db).ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export answers: %w", err)
	}
	if backup.Preferences, err = repository.NewPreferencesRepository(s.db).ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export preferences: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return backup, nil
}

// clearOrder lists tables children first so foreign keys hold while deleting
var clearOrder = []string{
	"training_answers",
	"training_sessions",
	"notification_preferences",
	"sessions",
	"question_cards",
	"users",
}

// Clear deletes every row the backup covers
func (s *BackupService) Clear(ctx context.Context) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, table := range clearOrder {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			log.Printf("Cleared table: %s", table)
		}
		return nil
	})
}

// Import restores a database from a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores a backup inside a single transaction. Rows that
// already exist are overwritten.
func (s *BackupService) ImportFromReader(ctx context.Context, reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		// Import in order of dependencies
		users := repository.NewUserRepository(tx)
		log.Printf("Importing %d users...", len(backup.Users))
		for _, u := range backup.Users {
			if err := users.UpsertUser(ctx, models.User{
				ID:            u.ID,
				Email:         u.Email,
				PasswordHash:  u.PasswordHash,
				Name:          u.Name,
				OAuthProvider: u.OAuthProvider,
				OAuthSubject:  u.OAuthSubject,
				CreatedAt:     u.CreatedAt,
				UpdatedAt:     u.UpdatedAt,
			}); err != nil {
				return err
			}
		}

		questions := repository.NewQuestionRepository(tx)
		log.Printf("Importing %d question cards...", len(backup.QuestionCards))
		for _, card := range backup.QuestionCards {
			if err := questions.UpsertCard(ctx, card); err != nil {
				return err
			}
		}

		sessions := repository.NewTrainingSessionRepository(tx)
		log.Printf("Importing %d training sessions...", len(backup.TrainingSessions))
		for _, session := range backup.TrainingSessions {
			if err := sessions.RestoreSession(ctx, session); err != nil {
				return err
			}
		}

		answers := repository.NewAnswerRepository(tx)
		log.Printf("Importing %d answers...", len(backup.Answers))
		for _, answer := range backup.Answers {
			if err := answers.RestoreAnswer(ctx, answer); err != nil {
				return err
			}
		}

		prefs := repository.NewPreferencesRepository(tx)
		log.Printf("Importing %d preferences...", len(backup.Preferences))
		for i := range backup.Preferences {
			if err := prefs.Save(ctx, &backup.Preferences[i]); err != nil {
				return err
			}
		}

		for _, table := range []string{"users", "training_sessions", "training_answers"} {
			query := tx.GetDialect().ResetSequenceQuery(table)
			if query == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, query); err != nil {
				return fmt.Errorf("failed to reset %s sequence: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to import backup: %w", err)
	}

	log.Println("Database import completed successfully")
	return nil
}
