package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"moodjournal/internal/database"
	"moodjournal/internal/models"
)

// PreferencesRepository stores per-user notification preferences
type PreferencesRepository struct {
	db database.DBTX
}

// NewPreferencesRepository creates a new preferences repository
func NewPreferencesRepository(db database.DBTX) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// DefaultPreferences returns the preferences of a user who never saved any
func DefaultPreferences(userID int64) *models.NotificationPreferences {
	return &models.NotificationPreferences{
		UserID:           userID,
		TrainingReminder: true,
		MoodReminder:     true,
		ReminderTime:     models.DefaultReminderTime,
	}
}

// Get returns the user's preferences, or the defaults when none are stored
func (r *PreferencesRepository) Get(ctx context.Context, userID int64) (*models.NotificationPreferences, error) {
	query := `
		SELECT user_id, training_reminder, mood_reminder, reminder_time, updated_at
		FROM notification_preferences
		WHERE user_id = ?
	`
	prefs := &models.NotificationPreferences{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&prefs.UserID,
		&prefs.TrainingReminder,
		&prefs.MoodReminder,
		&prefs.ReminderTime,
		&prefs.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return DefaultPreferences(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification preferences: %w", err)
	}
	return prefs, nil
}

// Save inserts or replaces the user's preferences
func (r *PreferencesRepository) Save(ctx context.Context, prefs *models.NotificationPreferences) error {
	prefs.UpdatedAt = time.Now()
	query := `
		INSERT INTO notification_preferences (user_id, training_reminder, mood_reminder, reminder_time, updated_at)
		VALUES (?, ?, ?, ?, ?)
	` + r.db.GetDialect().UpsertClause(
		[]string{"user_id"},
		[]string{"training_reminder", "mood_reminder", "reminder_time", "updated_at"},
	)
	_, err := r.db.ExecContext(ctx, query, prefs.UserID, prefs.TrainingReminder, prefs.MoodReminder, prefs.ReminderTime, prefs.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save notification preferences: %w", err)
	}
	return nil
}

// ListAll returns every stored preference row, used by backup export
func (r *PreferencesRepository) ListAll(ctx context.Context) ([]models.NotificationPreferences, error) {
	query := `
		SELECT user_id, training_reminder, mood_reminder, reminder_time, updated_at
		FROM notification_preferences
		ORDER BY user_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification preferences: %w", err)
	}
	defer rows.Close()

	var all []models.NotificationPreferences
	for rows.Next() {
		var p models.NotificationPreferences
		if err := rows.Scan(&p.UserID, &p.TrainingReminder, &p.MoodReminder, &p.ReminderTime, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification preferences: %w", err)
		}
		all = append(all, p)
	}
	return all, rows.Err()
}

const reminderTargetQuery = `
	SELECT u.id, u.email, u.name,
	       COALESCE(p.reminder_time, ?),
	       COALESCE(p.training_reminder, ?),
	       COALESCE(p.mood_reminder, ?)
	FROM users u
	LEFT JOIN notification_preferences p ON p.user_id = u.id
	WHERE (p.user_id IS NULL OR p.training_reminder = ? OR p.mood_reminder = ?)
`

// ListReminderTargets returns users with at least one reminder switched on.
// Users without a stored row get the defaults, which have both reminders on.
func (r *PreferencesRepository) ListReminderTargets(ctx context.Context) ([]models.ReminderTarget, error) {
	return r.queryTargets(ctx, reminderTargetQuery+" ORDER BY u.id")
}

// GetReminderTarget returns the reminder target for one user, or nil when the
// user does not exist or has every reminder switched off
func (r *PreferencesRepository) GetReminderTarget(ctx context.Context, userID int64) (*models.ReminderTarget, error) {
	targets, err := r.queryTargets(ctx, reminderTargetQuery+" AND u.id = ?", userID)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, nil
	}
	return &targets[0], nil
}

func (r *PreferencesRepository) queryTargets(ctx context.Context, query string, extra ...interface{}) ([]models.ReminderTarget, error) {
	args := append([]interface{}{models.DefaultReminderTime, true, true, true, true}, extra...)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder targets: %w", err)
	}
	defer rows.Close()

	var targets []models.ReminderTarget
	for rows.Next() {
		var t models.ReminderTarget
		if err := rows.Scan(&t.UserID, &t.Email, &t.Name, &t.ReminderTime, &t.TrainingReminder, &t.MoodReminder); err != nil {
			return nil, fmt.Errorf("failed to scan reminder target: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}
