package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"moodjournal/internal/models"
	"moodjournal/internal/training"
)

var (
	ErrNoActiveTraining = errors.New("no training in progress")
	ErrUnknownDirection = errors.New("unknown navigation direction")
)

// Navigation directions accepted by Navigate
const (
	DirectionNext     = "next"
	DirectionPrevious = "previous"
	DirectionGoTo     = "goto"
)

// Notification levels
const (
	LevelSuccess = "success"
	LevelError   = "error"
)

const finishTimeout = 5 * time.Second

// TrainingSessionStore records training runs
type TrainingSessionStore interface {
	CreateSession(ctx context.Context, userID int64, totalQuestions int) (*models.TrainingSession, error)
	FinishSession(ctx context.Context, sessionID int64, status string, answeredCount int) error
}

// TrainingOptions configures the training service
type TrainingOptions struct {
	// IdleTTL is how long an untouched training stays in memory
	IdleTTL           time.Duration
	SubmitTimeout     time.Duration
	SubmitFinalAnswer bool
}

// Notification is a toast raised while handling a request
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// TrainingView is what the API returns after every training call
type TrainingView struct {
	SessionID     int64             `json:"session_id"`
	Snapshot      training.Snapshot `json:"training"`
	Notifications []Notification    `json:"notifications"`
}

// sessionNotifier buffers engine notifications until the next response
type sessionNotifier struct {
	mu      sync.Mutex
	pending []Notification
}

func (n *sessionNotifier) Success(message string) { n.push(LevelSuccess, message) }
func (n *sessionNotifier) Error(message string)   { n.push(LevelError, message) }

func (n *sessionNotifier) push(level, message string) {
	n.mu.Lock()
	n.pending = append(n.pending, Notification{Level: level, Message: message})
	n.mu.Unlock()
}

func (n *sessionNotifier) drain() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.pending
	n.pending = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

type activeTraining struct {
	session  *models.TrainingSession
	engine   *training.Engine
	notifier *sessionNotifier
}

// TrainingService owns one training engine per user
type TrainingService struct {
	catalogSource training.CatalogSource
	sessions      TrainingSessionStore
	answers       AnswerWriter
	opts          TrainingOptions

	engines *cache.Cache
	startMu sync.Mutex
}

// NewTrainingService creates a new training service. Engines idle for longer
// than opts.IdleTTL are dropped and their session marked abandoned.
func NewTrainingService(catalogSource training.CatalogSource, sessions TrainingSessionStore, answers AnswerWriter, opts TrainingOptions) *TrainingService {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 2 * time.Hour
	}

	s := &TrainingService{
		catalogSource: catalogSource,
		sessions:      sessions,
		answers:       answers,
		opts:          opts,
		engines:       cache.New(opts.IdleTTL, opts.IdleTTL/2),
	}
	s.engines.OnEvicted(s.teardown)
	return s
}

func engineKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Start returns the user's training in progress, or begins a new one
func (s *TrainingService) Start(ctx context.Context, userID int64) (*TrainingView, error) {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	if active, ok := s.lookup(userID); ok {
		return s.view(active), nil
	}

	catalog := training.LoadCatalog(ctx, s.catalogSource)
	session, err := s.sessions.CreateSession(ctx, userID, catalog.Len())
	if err != nil {
		return nil, fmt.Errorf("failed to start training: %w", err)
	}

	active := &activeTraining{session: session, notifier: &sessionNotifier{}}
	gateway := NewAnswerGateway(s.answers, session.ID, s.opts.SubmitTimeout)
	active.engine = training.NewEngine(userID, catalog, gateway, active.notifier, training.Options{
		SubmitFinalAnswer: s.opts.SubmitFinalAnswer,
		OnComplete: func(snap training.Snapshot) {
			s.finish(session.ID, models.TrainingStatusCompleted, snap.AnsweredCount)
		},
	})

	key := engineKey(userID)
	// an expired engine the janitor has not reached yet still needs its teardown
	s.engines.Delete(key)
	s.engines.SetDefault(key, active)
	log.Printf("Training session %d started for user %d with %d questions", session.ID, userID, catalog.Len())
	return s.view(active), nil
}

// Get returns the user's training in progress
func (s *TrainingService) Get(userID int64) (*TrainingView, error) {
	active, ok := s.lookup(userID)
	if !ok {
		return nil, ErrNoActiveTraining
	}
	return s.view(active), nil
}

// SetAnswer replaces the answer of a question. A zero questionID means the
// question on screen.
func (s *TrainingService) SetAnswer(userID, questionID int64, text string) (*TrainingView, error) {
	active, ok := s.lookup(userID)
	if !ok {
		return nil, ErrNoActiveTraining
	}

	var err error
	if questionID == 0 {
		err = active.engine.SetCurrentAnswer(text)
	} else {
		err = active.engine.SetAnswer(questionID, text)
	}
	if err != nil {
		return nil, err
	}
	return s.view(active), nil
}

// Navigate moves the cursor. Moves past either end are ignored.
func (s *TrainingService) Navigate(userID int64, direction string, questionID int64) (*TrainingView, error) {
	active, ok := s.lookup(userID)
	if !ok {
		return nil, ErrNoActiveTraining
	}

	engine := active.engine
	switch direction {
	case DirectionNext:
		engine.GoNext()
	case DirectionPrevious:
		engine.GoPrevious()
	case DirectionGoTo:
		if !engine.Catalog().Contains(questionID) {
			return nil, training.ErrUnknownQuestion
		}
		engine.GoTo(questionID)
	default:
		return nil, ErrUnknownDirection
	}
	return s.view(active), nil
}

// Save submits the answer on screen and advances
func (s *TrainingService) Save(ctx context.Context, userID int64) (*TrainingView, error) {
	active, ok := s.lookup(userID)
	if !ok {
		return nil, ErrNoActiveTraining
	}

	if _, err := active.engine.SaveAndAdvance(ctx); err != nil {
		return nil, err
	}
	return s.view(active), nil
}

// Acknowledge closes a completed training. The next Start begins a new run.
func (s *TrainingService) Acknowledge(userID int64) (*TrainingView, error) {
	active, ok := s.lookup(userID)
	if !ok {
		return nil, ErrNoActiveTraining
	}

	if err := active.engine.Acknowledge(); err != nil {
		return nil, err
	}
	view := s.view(active)
	s.engines.Delete(engineKey(userID))
	return view, nil
}

// Abandon drops the user's answers and closes the run as abandoned
func (s *TrainingService) Abandon(userID int64) (*TrainingView, error) {
	active, ok := s.lookup(userID)
	if !ok {
		return nil, ErrNoActiveTraining
	}

	s.finish(active.session.ID, models.TrainingStatusAbandoned, active.engine.AnsweredCount())
	active.engine.Abandon()
	view := s.view(active)
	s.engines.Delete(engineKey(userID))
	return view, nil
}

// End drops the user's training without changing answers already saved
func (s *TrainingService) End(userID int64) {
	s.engines.Delete(engineKey(userID))
}

// Catalog returns the question cards a new training would use
func (s *TrainingService) Catalog(ctx context.Context) []models.QuestionCard {
	return training.LoadCatalog(ctx, s.catalogSource).Cards()
}

// ActiveCount returns the number of trainings held in memory
func (s *TrainingService) ActiveCount() int {
	return s.engines.ItemCount()
}

// Close tears down every training held in memory
func (s *TrainingService) Close() {
	s.engines.DeleteExpired()
	for key := range s.engines.Items() {
		s.engines.Delete(key)
	}
}

func (s *TrainingService) lookup(userID int64) (*activeTraining, bool) {
	key := engineKey(userID)
	item, ok := s.engines.Get(key)
	if !ok {
		return nil, false
	}
	active := item.(*activeTraining)
	// refresh the idle deadline; Replace fails once the janitor has taken the
	// engine, which is then already torn down
	if err := s.engines.Replace(key, active, cache.DefaultExpiration); err != nil {
		return nil, false
	}
	return active, true
}

func (s *TrainingService) view(active *activeTraining) *TrainingView {
	return &TrainingView{
		SessionID:     active.session.ID,
		Snapshot:      active.engine.Snapshot(),
		Notifications: active.notifier.drain(),
	}
}

// teardown runs when an engine leaves the store. Runs already closed keep
// their status.
func (s *TrainingService) teardown(key string, item interface{}) {
	active, ok := item.(*activeTraining)
	if !ok {
		return
	}
	s.finish(active.session.ID, models.TrainingStatusAbandoned, active.engine.AnsweredCount())
}

func (s *TrainingService) finish(sessionID int64, status string, answered int) {
	ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()
	if err := s.sessions.FinishSession(ctx, sessionID, status, answered); err != nil {
		log.Printf("Failed to close training session %d as %s: %v", sessionID, status, err)
	}
}
