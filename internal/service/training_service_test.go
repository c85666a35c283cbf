package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"moodjournal/internal/models"
	"moodjournal/internal/training"
)

type fakeSessionStore struct {
	mu       sync.Mutex
	nextID   int64
	statuses map[int64]string
	answered map[int64]int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{statuses: map[int64]string{}, answered: map[int64]int{}}
}

func (f *fakeSessionStore) CreateSession(ctx context.Context, userID int64, total int) (*models.TrainingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.statuses[f.nextID] = models.TrainingStatusActive
	return &models.TrainingSession{ID: f.nextID, UserID: userID, Status: models.TrainingStatusActive, TotalQuestions: total}, nil
}

func (f *fakeSessionStore) FinishSession(ctx context.Context, id int64, status string, answered int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statuses[id] != models.TrainingStatusActive {
		return nil
	}
	f.statuses[id] = status
	f.answered[id] = answered
	return nil
}

func (f *fakeSessionStore) status(id int64) (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[id], f.answered[id]
}

type fakeAnswerWriter struct {
	mu    sync.Mutex
	saved map[int64]string
	err   error
}

func (f *fakeAnswerWriter) UpsertAnswer(ctx context.Context, userID, sessionID, questionID int64, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = map[int64]string{}
	}
	f.saved[questionID] = content
	return nil
}

type staticSource []models.QuestionCard

func (s staticSource) FetchCatalog(ctx context.Context) ([]models.QuestionCard, error) {
	return s, nil
}

var twoCards = staticSource{
	{ID: 1, Category: "감정 이해", Content: "Q1", Placeholder: "..."},
	{ID: 2, Category: "감사 표현", Content: "Q2", Placeholder: "..."},
}

func newTestTrainingService(writer AnswerWriter) (*TrainingService, *fakeSessionStore) {
	store := newFakeSessionStore()
	svc := NewTrainingService(twoCards, store, writer, TrainingOptions{IdleTTL: time.Hour, SubmitTimeout: time.Second})
	return svc, store
}

func TestTrainingServiceStartIsIdempotent(t *testing.T) {
	svc, _ := newTestTrainingService(&fakeAnswerWriter{})
	ctx := context.Background()

	first, err := svc.Start(ctx, 7)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	second, err := svc.Start(ctx, 7)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if first.SessionID != second.SessionID {
		t.Errorf("second Start() created session %d, want %d", second.SessionID, first.SessionID)
	}
	if first.Snapshot.Total != 2 || first.Snapshot.Question.ID != 1 {
		t.Errorf("snapshot = %+v, want first of two questions", first.Snapshot)
	}
	if svc.ActiveCount() != 1 {
		t.Errorf("ActiveCount() = %d, want 1", svc.ActiveCount())
	}
}

func TestTrainingServiceRequiresStart(t *testing.T) {
	svc, _ := newTestTrainingService(&fakeAnswerWriter{})

	if _, err := svc.Get(1); !errors.Is(err, ErrNoActiveTraining) {
		t.Errorf("Get() error = %v, want %v", err, ErrNoActiveTraining)
	}
	if _, err := svc.Save(context.Background(), 1); !errors.Is(err, ErrNoActiveTraining) {
		t.Errorf("Save() error = %v, want %v", err, ErrNoActiveTraining)
	}
}

func TestTrainingServiceFullRun(t *testing.T) {
	writer := &fakeAnswerWriter{}
	svc, store := newTestTrainingService(writer)
	ctx := context.Background()

	started, err := svc.Start(ctx, 7)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if _, err := svc.SetAnswer(7, 0, "오늘은 평온했어요"); err != nil {
		t.Fatalf("SetAnswer() error = %v", err)
	}
	view, err := svc.Save(ctx, 7)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if view.Snapshot.Question.ID != 2 {
		t.Errorf("after save on Q1 question = %d, want 2", view.Snapshot.Question.ID)
	}
	if len(view.Notifications) != 1 || view.Notifications[0].Level != LevelSuccess || view.Notifications[0].Message != training.MessageSaved {
		t.Errorf("notifications = %+v, want one saved toast", view.Notifications)
	}
	if writer.saved[1] != "오늘은 평온했어요" {
		t.Errorf("saved answer = %q", writer.saved[1])
	}

	view, err = svc.Get(7)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(view.Notifications) != 0 {
		t.Errorf("notifications should be drained, got %+v", view.Notifications)
	}

	if _, err := svc.SetAnswer(7, 2, "가족에게 고마워요"); err != nil {
		t.Fatalf("SetAnswer() error = %v", err)
	}
	view, err = svc.Save(ctx, 7)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if view.Snapshot.State != training.StateComplete {
		t.Fatalf("state = %v, want complete", view.Snapshot.State)
	}
	if status, answered := store.status(started.SessionID); status != models.TrainingStatusCompleted || answered != 2 {
		t.Errorf("session row = %s/%d, want completed/2", status, answered)
	}

	if _, err := svc.Acknowledge(7); err != nil {
		t.Fatalf("Acknowledge() error = %v", err)
	}
	if _, err := svc.Get(7); !errors.Is(err, ErrNoActiveTraining) {
		t.Errorf("Get() after Acknowledge() error = %v, want %v", err, ErrNoActiveTraining)
	}
	if status, _ := store.status(started.SessionID); status != models.TrainingStatusCompleted {
		t.Errorf("acknowledged session status = %s, want completed", status)
	}

	next, err := svc.Start(ctx, 7)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if next.SessionID == started.SessionID || next.Snapshot.AnsweredCount != 0 {
		t.Errorf("new run = %+v, want a fresh session", next)
	}
}

func TestTrainingServiceSaveFailureStillAdvances(t *testing.T) {
	svc, _ := newTestTrainingService(&fakeAnswerWriter{err: errors.New("db down")})
	ctx := context.Background()

	if _, err := svc.Start(ctx, 1); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := svc.SetAnswer(1, 1, "answer"); err != nil {
		t.Fatalf("SetAnswer() error = %v", err)
	}
	view, err := svc.Save(ctx, 1)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if view.Snapshot.Question.ID != 2 {
		t.Errorf("question = %d, want 2", view.Snapshot.Question.ID)
	}
	if len(view.Notifications) != 1 || view.Notifications[0].Level != LevelError {
		t.Errorf("notifications = %+v, want one error toast", view.Notifications)
	}
}

func TestTrainingServiceNavigate(t *testing.T) {
	svc, _ := newTestTrainingService(&fakeAnswerWriter{})
	if _, err := svc.Start(context.Background(), 1); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	tests := []struct {
		name       string
		direction  string
		questionID int64
		wantID     int64
		wantErr    error
	}{
		{name: "previous at start is ignored", direction: DirectionPrevious, wantID: 1},
		{name: "next", direction: DirectionNext, wantID: 2},
		{name: "next at end is ignored", direction: DirectionNext, wantID: 2},
		{name: "goto", direction: DirectionGoTo, questionID: 1, wantID: 1},
		{name: "goto unknown", direction: DirectionGoTo, questionID: 99, wantErr: training.ErrUnknownQuestion},
		{name: "bad direction", direction: "sideways", wantErr: ErrUnknownDirection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.Navigate(1, tt.direction, tt.questionID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Navigate() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && view.Snapshot.Question.ID != tt.wantID {
				t.Errorf("question = %d, want %d", view.Snapshot.Question.ID, tt.wantID)
			}
		})
	}
}

func TestTrainingServiceAbandon(t *testing.T) {
	svc, store := newTestTrainingService(&fakeAnswerWriter{})
	started, err := svc.Start(context.Background(), 1)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := svc.SetAnswer(1, 1, "half way"); err != nil {
		t.Fatalf("SetAnswer() error = %v", err)
	}

	view, err := svc.Abandon(1)
	if err != nil {
		t.Fatalf("Abandon() error = %v", err)
	}
	if view.Snapshot.AnsweredCount != 0 || view.Snapshot.Question.ID != 1 {
		t.Errorf("snapshot after Abandon() = %+v, want cleared", view.Snapshot)
	}
	if status, answered := store.status(started.SessionID); status != models.TrainingStatusAbandoned || answered != 1 {
		t.Errorf("session row = %s/%d, want abandoned/1", status, answered)
	}
	if svc.ActiveCount() != 0 {
		t.Errorf("ActiveCount() = %d, want 0", svc.ActiveCount())
	}
}

func TestTrainingServiceCloseAbandonsOpenRuns(t *testing.T) {
	svc, store := newTestTrainingService(&fakeAnswerWriter{})
	started, err := svc.Start(context.Background(), 3)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	svc.Close()

	if status, _ := store.status(started.SessionID); status != models.TrainingStatusAbandoned {
		t.Errorf("status after Close() = %s, want abandoned", status)
	}
	if svc.ActiveCount() != 0 {
		t.Errorf("ActiveCount() = %d, want 0", svc.ActiveCount())
	}
}

func waitForStatus(t *testing.T, store *fakeSessionStore, id int64, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		status, _ := store.status(id)
		if status == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("session %d status = %s, want %s", id, status, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTrainingServiceIdleExpiry(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewTrainingService(twoCards, store, &fakeAnswerWriter{}, TrainingOptions{IdleTTL: 20 * time.Millisecond, SubmitTimeout: time.Second})
	defer svc.Close()

	started, err := svc.Start(context.Background(), 1)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitForStatus(t, store, started.SessionID, models.TrainingStatusAbandoned)

	if _, err := svc.Get(1); !errors.Is(err, ErrNoActiveTraining) {
		t.Errorf("Get() after expiry error = %v, want ErrNoActiveTraining", err)
	}
	if _, err := svc.Navigate(1, DirectionNext, 0); !errors.Is(err, ErrNoActiveTraining) {
		t.Errorf("Navigate() after expiry error = %v, want ErrNoActiveTraining", err)
	}
	if svc.ActiveCount() != 0 {
		t.Errorf("ActiveCount() = %d, want 0", svc.ActiveCount())
	}
}

func TestTrainingServiceRestartAfterExpiry(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewTrainingService(twoCards, store, &fakeAnswerWriter{}, TrainingOptions{IdleTTL: 20 * time.Millisecond, SubmitTimeout: time.Second})
	defer svc.Close()

	first, err := svc.Start(context.Background(), 1)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	second, err := svc.Start(context.Background(), 1)
	if err != nil {
		t.Fatalf("Start() after expiry error = %v", err)
	}
	if second.SessionID == first.SessionID {
		t.Fatalf("Start() after expiry reused session %d", first.SessionID)
	}
	waitForStatus(t, store, first.SessionID, models.TrainingStatusAbandoned)
	if status, _ := store.status(second.SessionID); status != models.TrainingStatusActive {
		t.Errorf("new session status = %s, want active", status)
	}
}

func TestAnswerGatewayValidation(t *testing.T) {
	writer := &fakeAnswerWriter{}
	gw := NewAnswerGateway(writer, 5, time.Second)
	ctx := context.Background()

	long := make([]rune, training.MaxAnswerLength+1)
	for i := range long {
		long[i] = '가'
	}

	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{name: "blank", text: "  ", wantErr: ErrAnswerEmpty},
		{name: "too long", text: string(long), wantErr: ErrAnswerTooLong},
		{name: "at the limit", text: string(long[:training.MaxAnswerLength])},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := gw.SubmitAnswer(ctx, 1, 1, tt.text); !errors.Is(err, tt.wantErr) {
				t.Errorf("SubmitAnswer() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAnswerGatewayOutlivesCancelledCaller(t *testing.T) {
	writer := &fakeAnswerWriter{}
	gw := NewAnswerGateway(writer, 5, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := gw.SubmitAnswer(ctx, 1, 3, "still saved"); err != nil {
		t.Fatalf("SubmitAnswer() error = %v", err)
	}
	if writer.saved[3] != "still saved" {
		t.Errorf("saved = %q", writer.saved[3])
	}
}
