// Package reminder sends each user a daily reminder at the time they chose.
package reminder

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"moodjournal/internal/models"
)

const sendTimeout = 30 * time.Second

// TargetSource looks up who wants reminders and when
type TargetSource interface {
	ListReminderTargets(ctx context.Context) ([]models.ReminderTarget, error)
	// GetReminderTarget returns nil when the user wants no reminders
	GetReminderTarget(ctx context.Context, userID int64) (*models.ReminderTarget, error)
}

// Sender delivers one reminder
type Sender interface {
	SendReminder(ctx context.Context, target models.ReminderTarget) error
}

// Config controls the scheduler
type Config struct {
	Enabled bool
	// Location is the time zone reminder times are read in
	Location *time.Location
}

type entry struct {
	timer  *time.Timer
	at     time.Time
	target models.ReminderTarget
}

// Scheduler keeps one timer per user that wants reminders. Timers are armed
// by Start and released by Stop.
type Scheduler struct {
	cfg     Config
	targets TargetSource
	sender  Sender
	now     func() time.Time

	mu      sync.Mutex
	timers  map[int64]*entry
	running bool
}

// NewScheduler creates a stopped scheduler
func NewScheduler(cfg Config, targets TargetSource, sender Sender) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Scheduler{
		cfg:     cfg,
		targets: targets,
		sender:  sender,
		now:     time.Now,
		timers:  make(map[int64]*entry),
	}
}

// Start arms a timer for every reminder target
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		log.Println("Reminder scheduler disabled")
		return nil
	}

	targets, err := s.targets.ListReminderTargets(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reminder targets: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = true
	for _, target := range targets {
		s.scheduleLocked(target)
	}
	log.Printf("Reminder scheduler started with %d timers", len(s.timers))
	return nil
}

// Stop releases every timer. Reminders already being sent finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, e := range s.timers {
		e.timer.Stop()
		delete(s.timers, userID)
	}
	s.running = false
}

// Reschedule re-reads the user's preferences and re-arms or drops their timer
func (s *Scheduler) Reschedule(ctx context.Context, userID int64) error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return nil
	}

	target, err := s.targets.GetReminderTarget(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load reminder target %d: %w", userID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(userID)
	if target != nil && s.running {
		s.scheduleLocked(*target)
	}
	return nil
}

// NextRun returns when the user's next reminder fires
func (s *Scheduler) NextRun(userID int64) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.timers[userID]
	if !ok {
		return time.Time{}, false
	}
	return e.at, true
}

// Pending returns the number of armed timers
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Scheduler) scheduleLocked(target models.ReminderTarget) {
	now := s.now()
	at, err := NextOccurrence(now, target.ReminderTime, s.cfg.Location)
	if err != nil {
		log.Printf("Skipping reminder for user %d: %v", target.UserID, err)
		return
	}

	e := &entry{at: at, target: target}
	userID := target.UserID
	e.timer = time.AfterFunc(at.Sub(now), func() { s.fire(userID, e) })
	s.timers[userID] = e
}

func (s *Scheduler) cancelLocked(userID int64) {
	if e, ok := s.timers[userID]; ok {
		e.timer.Stop()
		delete(s.timers, userID)
	}
}

// fire sends one reminder and arms the next day's timer
func (s *Scheduler) fire(userID int64, e *entry) {
	s.mu.Lock()
	if !s.running || s.timers[userID] != e {
		s.mu.Unlock()
		return
	}
	delete(s.timers, userID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	target, err := s.targets.GetReminderTarget(ctx, userID)
	if err != nil {
		// re-arm from the last known preferences
		log.Printf("Failed to load reminder target %d, keeping %s: %v", userID, e.target.ReminderTime, err)
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, rearmed := s.timers[userID]; s.running && !rearmed {
			s.scheduleLocked(e.target)
		}
		return
	}
	if target == nil {
		return
	}

	if err := s.sender.SendReminder(ctx, *target); err != nil {
		log.Printf("Failed to send reminder to user %d: %v", userID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, rearmed := s.timers[userID]; s.running && !rearmed {
		s.scheduleLocked(*target)
	}
}

// NextOccurrence returns the first moment after now at which the wall clock
// in loc reads hhmm ("15:04" layout)
func NextOccurrence(now time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	clock, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reminder time %q: %w", hhmm, err)
	}

	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
	if !next.After(now) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, clock.Hour(), clock.Minute(), 0, 0, loc)
	}
	return next, nil
}
