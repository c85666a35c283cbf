package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"moodjournal/internal/service"
)

// ProgressHandler reports on past trainings
type ProgressHandler struct {
	progressService *service.ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// Summary returns aggregate progress numbers
func (h *ProgressHandler) Summary(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	summary, err := h.progressService.Summary(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Error loading progress summary", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// History lists recent training sessions, newest first
func (h *ProgressHandler) History(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit", "", nil)
			return
		}
		limit = parsed
	}

	sessions, err := h.progressService.History(r.Context(), user.ID, limit)
	if err != nil {
		respondWithServiceError(w, "Error loading training history", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// Report streams the PDF report of the user's answers
func (h *ProgressHandler) Report(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var buf bytes.Buffer
	if err := h.progressService.WriteReport(r.Context(), user, &buf); err != nil {
		respondWithServiceError(w, "Error building progress report", err)
		return
	}

	filename := fmt.Sprintf("mood-journal-%s.pdf", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
