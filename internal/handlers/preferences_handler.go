package handlers

import (
	"context"
	"log"
	"net/http"

	"moodjournal/internal/models"
	"moodjournal/internal/repository"
	"moodjournal/internal/validation"
)

// ReminderRescheduler re-arms a user's reminder after a preference change
type ReminderRescheduler interface {
	Reschedule(ctx context.Context, userID int64) error
}

// PreferencesHandler reads and updates notification preferences
type PreferencesHandler struct {
	prefsRepo *repository.PreferencesRepository
	scheduler ReminderRescheduler
}

// NewPreferencesHandler creates a new preferences handler. scheduler may be nil.
func NewPreferencesHandler(prefsRepo *repository.PreferencesRepository, scheduler ReminderRescheduler) *PreferencesHandler {
	return &PreferencesHandler{prefsRepo: prefsRepo, scheduler: scheduler}
}

// preferencesRequest carries a partial update; omitted fields keep their value
type preferencesRequest struct {
	TrainingReminder *bool   `json:"training_reminder"`
	MoodReminder     *bool   `json:"mood_reminder"`
	ReminderTime     *string `json:"reminder_time"`
}

// Get returns the caller's preferences, defaults included
func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	prefs, err := h.prefsRepo.Get(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Error loading preferences", err)
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

// Update applies a partial change and reschedules the reminder
func (h *PreferencesHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req preferencesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	prefs, err := h.prefsRepo.Get(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Error loading preferences", err)
		return
	}
	applyPreferences(prefs, req)

	if err := validation.ValidateReminderTime(prefs.ReminderTime); err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	if err := h.prefsRepo.Save(r.Context(), prefs); err != nil {
		respondWithServiceError(w, "Error saving preferences", err)
		return
	}

	if h.scheduler != nil {
		if err := h.scheduler.Reschedule(r.Context(), user.ID); err != nil {
			log.Printf("Failed to reschedule reminder for user %d: %v", user.ID, err)
		}
	}

	respondJSON(w, http.StatusOK, prefs)
}

func applyPreferences(prefs *models.NotificationPreferences, req preferencesRequest) {
	if req.TrainingReminder != nil {
		prefs.TrainingReminder = *req.TrainingReminder
	}
	if req.MoodReminder != nil {
		prefs.MoodReminder = *req.MoodReminder
	}
	if req.ReminderTime != nil {
		prefs.ReminderTime = *req.ReminderTime
	}
}
