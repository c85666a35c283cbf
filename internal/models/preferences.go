package models

import "time"

// DefaultReminderTime is used when a user never picked one
const DefaultReminderTime = "21:00"

// NotificationPreferences holds the reminder switches of a user
type NotificationPreferences struct {
	UserID           int64     `json:"user_id"`
	TrainingReminder bool      `json:"training_reminder"`
	MoodReminder     bool      `json:"mood_reminder"`
	ReminderTime     string    `json:"reminder_time"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ReminderTarget is a user that asked to be reminded
type ReminderTarget struct {
	UserID           int64
	Email            string
	Name             string
	ReminderTime     string
	TrainingReminder bool
	MoodReminder     bool
}
