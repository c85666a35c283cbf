package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/jung-kurt/gofpdf"

	"moodjournal/internal/models"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	reportFontFamily    = "report"
)

// ProgressStore reads aggregated training history
type ProgressStore interface {
	Summary(ctx context.Context, userID int64) (*models.ProgressSummary, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.TrainingSession, error)
}

// AnswerLister reads saved answers with their questions
type AnswerLister interface {
	ListWithQuestions(ctx context.Context, userID int64) ([]models.AnswerWithQuestion, error)
}

// ProgressService reports on a user's past trainings
type ProgressService struct {
	store    ProgressStore
	answers  AnswerLister
	fontPath string
}

// NewProgressService creates a new progress service. fontPath names a TTF
// font with Hangul glyphs for the PDF report; without it the report falls
// back to a core font.
func NewProgressService(store ProgressStore, answers AnswerLister, fontPath string) *ProgressService {
	return &ProgressService{store: store, answers: answers, fontPath: fontPath}
}

// Summary returns session count, answer count and average completion
func (s *ProgressService) Summary(ctx context.Context, userID int64) (*models.ProgressSummary, error) {
	summary, err := s.store.Summary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress summary: %w", err)
	}
	return summary, nil
}

// History returns the user's most recent training sessions
func (s *ProgressService) History(ctx context.Context, userID int64, limit int) ([]models.TrainingSession, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	sessions, err := s.store.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load training history: %w", err)
	}
	if sessions == nil {
		sessions = []models.TrainingSession{}
	}
	return sessions, nil
}

// WriteReport renders the user's summary and saved answers as a PDF
func (s *ProgressService) WriteReport(ctx context.Context, user *models.User, w io.Writer) error {
	summary, err := s.Summary(ctx, user.ID)
	if err != nil {
		return err
	}
	answers, err := s.answers.ListWithQuestions(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load answers for report: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	family, tr := s.reportFont(pdf)

	pdf.AddPage()
	pdf.SetFont(family, "", 18)
	pdf.Cell(0, 10, tr(fmt.Sprintf("Mood Journal - %s", user.Name)))
	pdf.Ln(12)

	pdf.SetFont(family, "", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Generated %s", time.Now().Format("2006-01-02 15:04"))))
	pdf.Ln(7)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Training sessions: %d", summary.TotalSessions)))
	pdf.Ln(7)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Saved answers: %d", summary.CompletedAnswers)))
	pdf.Ln(7)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Average completion: %.0f%%", summary.AverageCompletionPercent)))
	pdf.Ln(12)

	var lastSession int64
	for _, item := range answers {
		if item.Answer.SessionID != lastSession {
			lastSession = item.Answer.SessionID
			pdf.SetFont(family, "", 13)
			pdf.Cell(0, 9, tr(fmt.Sprintf("Session %d - %s", lastSession, item.Answer.CreatedAt.Format("2006-01-02"))))
			pdf.Ln(10)
		}

		pdf.SetFont(family, "", 10)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("[%s] %s", item.Category, item.Question)), "", "L", false)
		pdf.SetFont(family, "", 11)
		pdf.MultiCell(0, 6, tr(item.Answer.Content), "", "L", false)
		pdf.Ln(4)
	}

	if len(answers) == 0 {
		pdf.Cell(0, 7, tr("No saved answers yet."))
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// reportFont registers the configured UTF-8 font, falling back to Arial
func (s *ProgressService) reportFont(pdf *gofpdf.Fpdf) (string, func(string) string) {
	if s.fontPath != "" {
		pdf.AddUTF8Font(reportFontFamily, "", s.fontPath)
		if pdf.Ok() {
			return reportFontFamily, func(text string) string { return text }
		}
		log.Printf("Warning: failed to load report font %s: %v", s.fontPath, pdf.Error())
		pdf.ClearError()
	}
	return "Arial", pdf.UnicodeTranslatorFromDescriptor("")
}
