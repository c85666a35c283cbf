package handlers

import (
	"net/http"
	"strconv"

	"moodjournal/internal/service"
)

// TrainingHandler exposes the guided questionnaire
type TrainingHandler struct {
	trainingService *service.TrainingService
}

// NewTrainingHandler creates a new training handler
func NewTrainingHandler(trainingService *service.TrainingService) *TrainingHandler {
	return &TrainingHandler{trainingService: trainingService}
}

type answerRequest struct {
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer"`
}

// Start resumes the user's training or begins a new one
func (h *TrainingHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	view, err := h.trainingService.Start(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Error starting training", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Get returns the training in progress
func (h *TrainingHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	view, err := h.trainingService.Get(user.ID)
	if err != nil {
		respondWithServiceError(w, "Error loading training", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// SetAnswer stores the typed answer without submitting it
func (h *TrainingHandler) SetAnswer(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req answerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.trainingService.SetAnswer(user.ID, req.QuestionID, req.Answer)
	if err != nil {
		respondWithServiceError(w, "Error setting answer", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Next moves to the following question
func (h *TrainingHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, service.DirectionNext, 0)
}

// Previous moves to the preceding question
func (h *TrainingHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, service.DirectionPrevious, 0)
}

// GoTo jumps to the question named in the path
func (h *TrainingHandler) GoTo(w http.ResponseWriter, r *http.Request) {
	questionID, err := strconv.ParseInt(r.PathValue("questionId"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid question ID", "", nil)
		return
	}
	h.navigate(w, r, service.DirectionGoTo, questionID)
}

func (h *TrainingHandler) navigate(w http.ResponseWriter, r *http.Request, direction string, questionID int64) {
	user := GetUserFromContext(r.Context())
	view, err := h.trainingService.Navigate(user.ID, direction, questionID)
	if err != nil {
		respondWithServiceError(w, "Error navigating training", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Save submits the answer on screen and advances
func (h *TrainingHandler) Save(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	view, err := h.trainingService.Save(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Error saving answer", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Acknowledge closes a completed training
func (h *TrainingHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	view, err := h.trainingService.Acknowledge(user.ID)
	if err != nil {
		respondWithServiceError(w, "Error acknowledging training", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Abandon drops the training in progress
func (h *TrainingHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	view, err := h.trainingService.Abandon(user.ID)
	if err != nil {
		respondWithServiceError(w, "Error abandoning training", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Catalog lists the questions a new training would ask
func (h *TrainingHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"questions": h.trainingService.Catalog(r.Context()),
	})
}
