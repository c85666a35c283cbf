package training

import (
	"context"
	"errors"
	"log"
	"sync"

	"moodjournal/internal/models"
)

// State is the phase of the answer submission flow
type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateComplete   State = "complete"
)

var (
	ErrEmptyAnswer        = errors.New("answer is empty")
	ErrSubmissionInFlight = errors.New("an answer is already being saved")
	ErrSessionComplete    = errors.New("training is already complete")
	ErrNotComplete        = errors.New("training is not complete")
)

// Notification messages shown to the user
const (
	MessageSaved      = "답변이 저장되었습니다."
	MessageSaveFailed = "답변 저장에 실패했습니다. 다시 시도해 주세요."
	MessageIncomplete = "아직 답하지 않은 질문이 있어요."
	MessageComplete   = "오늘의 훈련을 모두 마쳤어요!"
)

// Gateway durably records one answer. It may fail independently of local state.
type Gateway interface {
	SubmitAnswer(ctx context.Context, userID, questionID int64, text string) error
}

// Notifier is a fire-and-forget toast sink
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Options tunes the submission flow
type Options struct {
	// SubmitFinalAnswer also sends the last question's answer to the gateway
	// before completing. Off by default.
	SubmitFinalAnswer bool

	// OnComplete is called once each time the session reaches StateComplete
	OnComplete func(Snapshot)
}

// Snapshot is a consistent read of the engine state
type Snapshot struct {
	State         State               `json:"state"`
	Question      models.QuestionCard `json:"question"`
	CurrentIndex  int                 `json:"current_index"`
	Total         int                 `json:"total"`
	Answer        string              `json:"answer"`
	AnsweredCount int                 `json:"answered_count"`
	IsComplete    bool                `json:"is_complete"`
	CanGoPrevious bool                `json:"can_go_previous"`
	CanGoNext     bool                `json:"can_go_next"`
	CanSave       bool                `json:"can_save"`
	AnsweredIDs   []int64             `json:"answered_ids"`
}

// Engine runs one user's guided training session
type Engine struct {
	mu       sync.Mutex
	userID   int64
	catalog  *Catalog
	answers  *AnswerStore
	cursor   *Cursor
	gateway  Gateway
	notifier Notifier
	opts     Options

	state          State
	completionSent bool
	// generation changes on every reset so late submissions don't move the cursor
	generation uint64
}

// NewEngine creates an engine positioned on the first question
func NewEngine(userID int64, catalog *Catalog, gateway Gateway, notifier Notifier, opts Options) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if notifier == nil {
		notifier = discardNotifier{}
	}

	return &Engine{
		userID:   userID,
		catalog:  catalog,
		answers:  NewAnswerStore(),
		cursor:   NewCursor(catalog),
		gateway:  gateway,
		notifier: notifier,
		opts:     opts,
		state:    StateEditing,
	}
}

// UserID returns the owner of the session
func (e *Engine) UserID() int64 {
	return e.userID
}

// Catalog returns the session catalog
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// State returns the current phase
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// CurrentQuestionID returns the id of the displayed question
func (e *Engine) CurrentQuestionID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor.CurrentID()
}

// SetAnswer replaces the answer of a question
func (e *Engine) SetAnswer(questionID int64, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateComplete {
		return ErrSessionComplete
	}
	if !e.catalog.Contains(questionID) {
		return ErrUnknownQuestion
	}

	e.answers.Set(questionID, text)
	return nil
}

// SetCurrentAnswer replaces the answer of the displayed question
func (e *Engine) SetCurrentAnswer(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateComplete {
		return ErrSessionComplete
	}

	e.answers.Set(e.cursor.CurrentID(), text)
	return nil
}

// Answer returns the answer of a question, or ""
func (e *Engine) Answer(questionID int64) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.answers.Get(questionID)
}

// AnsweredCount returns how many catalog questions have an answer
func (e *Engine) AnsweredCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.answers.AnsweredCount(e.catalog)
}

// IsComplete reports whether every catalog question has an answer
func (e *Engine) IsComplete() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.answers.IsComplete(e.catalog)
}

// GoTo jumps to a question by id
func (e *Engine) GoTo(questionID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateComplete {
		return false
	}
	return e.cursor.GoTo(questionID)
}

// GoNext moves to the next question
func (e *Engine) GoNext() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateComplete {
		return false
	}
	return e.cursor.GoNext()
}

// GoPrevious moves to the previous question
func (e *Engine) GoPrevious() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateComplete {
		return false
	}
	return e.cursor.GoPrevious()
}

// SaveAndAdvance submits the displayed answer and moves on.
// The gateway result never blocks progression: failures are reported through
// the notifier and the local answer is kept as is.
func (e *Engine) SaveAndAdvance(ctx context.Context) (Snapshot, error) {
	e.mu.Lock()

	switch e.state {
	case StateSubmitting:
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, ErrSubmissionInFlight
	case StateComplete:
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, ErrSessionComplete
	}

	questionID := e.cursor.CurrentID()
	text := e.answers.Get(questionID)
	if !IsAnswered(text) {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, ErrEmptyAnswer
	}

	last := e.cursor.IsLast()
	if last && !e.opts.SubmitFinalAnswer {
		snap, completed := e.finishLocked()
		e.mu.Unlock()
		e.afterFinish(snap, completed)
		return snap, nil
	}

	e.state = StateSubmitting
	generation := e.generation
	e.mu.Unlock()

	err := e.submit(ctx, questionID, text)
	if err != nil {
		log.Printf("Failed to save answer for user %d question %d: %v", e.userID, questionID, err)
		e.notifier.Error(MessageSaveFailed)
	} else {
		e.notifier.Success(MessageSaved)
	}

	e.mu.Lock()
	if generation != e.generation {
		// abandoned while the answer was in flight
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, nil
	}

	e.state = StateEditing
	if last {
		snap, completed := e.finishLocked()
		e.mu.Unlock()
		e.afterFinish(snap, completed)
		return snap, nil
	}

	if i, ok := e.catalog.IndexOf(questionID); ok && i < e.catalog.Len()-1 {
		e.cursor.GoTo(e.catalog.At(i + 1).ID)
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	return snap, nil
}

// Acknowledge ends the completed session and starts over
func (e *Engine) Acknowledge() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateComplete {
		return ErrNotComplete
	}
	e.resetLocked()
	return nil
}

// Abandon drops every answer and returns to the first question
func (e *Engine) Abandon() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

// Snapshot returns a consistent view of the session
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) submit(ctx context.Context, questionID int64, text string) error {
	if e.gateway == nil {
		return nil
	}
	return e.gateway.SubmitAnswer(ctx, e.userID, questionID, text)
}

// finishLocked enters StateComplete when every question is answered,
// otherwise sends the cursor to the first open question.
func (e *Engine) finishLocked() (Snapshot, bool) {
	if !e.answers.IsComplete(e.catalog) {
		if id, ok := e.answers.FirstUnanswered(e.catalog); ok {
			e.cursor.GoTo(id)
		}
		return e.snapshotLocked(), false
	}

	e.state = StateComplete
	signal := !e.completionSent
	e.completionSent = true
	return e.snapshotLocked(), signal
}

func (e *Engine) afterFinish(snap Snapshot, completed bool) {
	if snap.State != StateComplete {
		e.notifier.Error(MessageIncomplete)
		return
	}
	if !completed {
		return
	}
	e.notifier.Success(MessageComplete)
	if e.opts.OnComplete != nil {
		e.opts.OnComplete(snap)
	}
}

func (e *Engine) resetLocked() {
	e.answers.ClearAll()
	e.cursor.Reset()
	e.state = StateEditing
	e.completionSent = false
	e.generation++
}

func (e *Engine) snapshotLocked() Snapshot {
	index := e.cursor.CurrentIndex()
	card := e.catalog.At(index)
	answer := e.answers.Get(card.ID)

	answered := make([]int64, 0, e.catalog.Len())
	for _, c := range e.catalog.cards {
		if IsAnswered(e.answers.Get(c.ID)) {
			answered = append(answered, c.ID)
		}
	}

	editing := e.state == StateEditing
	return Snapshot{
		State:         e.state,
		Question:      card,
		CurrentIndex:  index,
		Total:         e.catalog.Len(),
		Answer:        answer,
		AnsweredCount: len(answered),
		IsComplete:    len(answered) == e.catalog.Len(),
		CanGoPrevious: e.state != StateComplete && index > 0,
		CanGoNext:     e.state != StateComplete && index < e.catalog.Len()-1,
		CanSave:       editing && IsAnswered(answer),
		AnsweredIDs:   answered,
	}
}

type discardNotifier struct{}

func (discardNotifier) Success(string) {}
func (discardNotifier) Error(string)   {}
