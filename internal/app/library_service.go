package app

import (
	"context"
	"fmt"
	"time"

	"exam-review-service/internal/domain"
)

// QuestionCatalog is the read/write surface of the question bank used by the
// practice and review flows.
type QuestionCatalog interface {
	GetQuestion(ctx context.Context, id int64) (domain.Question, error)
	ListQuestions(ctx context.Context, categoryID int64) ([]domain.Question, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	PendingQuestions(ctx context.Context) ([]domain.Question, error)
	ApproveQuestion(ctx context.Context, id int64) error
	DeleteQuestion(ctx context.Context, id int64) error
}

// HistoryRecorder appends practice answers to the study history.
type HistoryRecorder interface {
	MarkAnswered(ctx context.Context, questionID int64, correct bool, at time.Time) error
}

// BookmarkStore manages per-question bookmarks.
type BookmarkStore interface {
	ToggleBookmark(ctx context.Context, questionID int64, at time.Time) (bool, error)
	RemoveBookmark(ctx context.Context, questionID int64) error
	BookmarkedQuestions(ctx context.Context) ([]domain.Question, error)
}

// StatsProvider aggregates study activity.
type StatsProvider interface {
	StudyStatistics(ctx context.Context) (domain.StudyStatistics, error)
	PerformanceByCategory(ctx context.Context) ([]domain.CategoryPerformance, error)
}

// ResultHistory enumerates persisted attempts, most recent first.
type ResultHistory interface {
	ListPast(ctx context.Context) ([]domain.QuizResult, error)
}

// PracticeFeedback is returned for a single untimed answer.
type PracticeFeedback struct {
	Correct         bool   `json:"correct"`
	CorrectOptionID string `json:"correctOptionId"`
	Explanation     string `json:"explanation"`
}

// LibraryService covers everything around the timed session: the practice
// mode, bookmarks, statistics, past results, and review of pending
// AI-generated questions.
type LibraryService struct {
	catalog   QuestionCatalog
	history   HistoryRecorder
	bookmarks BookmarkStore
	stats     StatsProvider
	results   ResultHistory
	now       func() time.Time
}

func NewLibraryService(catalog QuestionCatalog, history HistoryRecorder, bookmarks BookmarkStore, stats StatsProvider, results ResultHistory) *LibraryService {
	return &LibraryService{
		catalog:   catalog,
		history:   history,
		bookmarks: bookmarks,
		stats:     stats,
		results:   results,
		now:       time.Now,
	}
}

// AnswerPractice scores a single untimed answer by option ID and records it
// in the study history. Unlike session answers, practice answers always
// return the correct option and explanation for immediate review.
func (s *LibraryService) AnswerPractice(ctx context.Context, questionID int64, optionID string) (PracticeFeedback, error) {
	question, err := s.catalog.GetQuestion(ctx, questionID)
	if err != nil {
		return PracticeFeedback{}, err
	}
	opt, ok := question.OptionByID(optionID)
	if !ok {
		return PracticeFeedback{}, fmt.Errorf("question %d: %w", questionID, domain.ErrOptionNotFound)
	}
	correct := opt.ID == question.CorrectOptionID
	if err := s.history.MarkAnswered(ctx, questionID, correct, s.now()); err != nil {
		// History is best-effort; the verdict is still usable.
		return PracticeFeedback{
			Correct:         correct,
			CorrectOptionID: question.CorrectOptionID,
			Explanation:     question.Explanation,
		}, fmt.Errorf("record practice answer: %w", err)
	}
	return PracticeFeedback{
		Correct:         correct,
		CorrectOptionID: question.CorrectOptionID,
		Explanation:     question.Explanation,
	}, nil
}

func (s *LibraryService) Question(ctx context.Context, id int64) (domain.Question, error) {
	return s.catalog.GetQuestion(ctx, id)
}

func (s *LibraryService) Questions(ctx context.Context, categoryID int64) ([]domain.Question, error) {
	return s.catalog.ListQuestions(ctx, categoryID)
}

func (s *LibraryService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.catalog.Categories(ctx)
}

// ToggleBookmark flips the bookmark for a question and reports the new state.
func (s *LibraryService) ToggleBookmark(ctx context.Context, questionID int64) (bool, error) {
	if _, err := s.catalog.GetQuestion(ctx, questionID); err != nil {
		return false, err
	}
	return s.bookmarks.ToggleBookmark(ctx, questionID, s.now())
}

func (s *LibraryService) RemoveBookmark(ctx context.Context, questionID int64) error {
	return s.bookmarks.RemoveBookmark(ctx, questionID)
}

func (s *LibraryService) BookmarkedQuestions(ctx context.Context) ([]domain.Question, error) {
	return s.bookmarks.BookmarkedQuestions(ctx)
}

func (s *LibraryService) StudyStatistics(ctx context.Context) (domain.StudyStatistics, error) {
	return s.stats.StudyStatistics(ctx)
}

func (s *LibraryService) PerformanceByCategory(ctx context.Context) ([]domain.CategoryPerformance, error) {
	return s.stats.PerformanceByCategory(ctx)
}

func (s *LibraryService) PastResults(ctx context.Context) ([]domain.QuizResult, error) {
	return s.results.ListPast(ctx)
}

func (s *LibraryService) PendingQuestions(ctx context.Context) ([]domain.Question, error) {
	return s.catalog.PendingQuestions(ctx)
}

// ReviewQuestion approves a pending AI-generated question or deletes it.
func (s *LibraryService) ReviewQuestion(ctx context.Context, questionID int64, approved bool) error {
	if approved {
		return s.catalog.ApproveQuestion(ctx, questionID)
	}
	return s.catalog.DeleteQuestion(ctx, questionID)
}
