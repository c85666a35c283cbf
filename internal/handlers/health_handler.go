package handlers

import (
	"net/http"
	"sync"
)

// Startup steps reported by /healthz
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepCatalog    = "Seeding question catalog"
	StepServices   = "Initializing services"
	StepReminders  = "Starting reminders"
	StepReady      = "Server ready"
)

// StartupStep is one stage of server initialization
type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu       sync.RWMutex
	ready    bool
	current  string
	progress int
	steps    []StartupStep
}

type healthResponse struct {
	Status   string        `json:"status"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`
	Active   int           `json:"active_trainings"`
}

// NewStartupStatus creates a status with every step pending
func NewStartupStatus() *StartupStatus {
	names := []string{StepDatabase, StepMigrations, StepCatalog, StepServices, StepReminders, StepReady}
	steps := make([]StartupStep, len(names))
	for i, name := range names {
		steps[i] = StartupStep{Name: name}
	}
	return &StartupStatus{current: "Initializing...", steps: steps}
}

// SetCurrentStep updates the current initialization step
func (s *StartupStatus) SetCurrentStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = step
}

// CompleteStep marks a step as completed and updates progress
func (s *StartupStatus) CompleteStep(stepName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.steps {
		if s.steps[i].Name == stepName {
			s.steps[i].Completed = true
			break
		}
	}

	completed := 0
	for _, step := range s.steps {
		if step.Completed {
			completed++
		}
	}
	s.progress = (completed * 100) / len(s.steps)
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.steps {
		s.steps[i].Completed = true
	}
	s.ready = true
	s.current = StepReady
	s.progress = 100
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// HealthHandler answers liveness and readiness probes
type HealthHandler struct {
	status      *StartupStatus
	activeCount func() int
}

// NewHealthHandler creates a new health handler. activeCount may be nil.
func NewHealthHandler(status *StartupStatus, activeCount func() int) *HealthHandler {
	return &HealthHandler{status: status, activeCount: activeCount}
}

// Health reports 200 once startup finished and 503 before that
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.status.mu.RLock()
	resp := healthResponse{
		Status:   "starting",
		Current:  h.status.current,
		Progress: h.status.progress,
		Steps:    append([]StartupStep(nil), h.status.steps...),
	}
	ready := h.status.ready
	h.status.mu.RUnlock()

	if h.activeCount != nil {
		resp.Active = h.activeCount()
	}

	status := http.StatusServiceUnavailable
	if ready {
		resp.Status = "ok"
		status = http.StatusOK
	}
	respondJSON(w, status, resp)
}
