package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"exam-review-service/internal/domain"
)

func TestResolveDrawsApprovedQuestions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	def, questions, err := store.Resolve(ctx, 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if def.Title != "Quick Practice" || def.TimeLimitMinutes != 10 {
		t.Fatalf("unexpected definition: %+v", def)
	}
	if len(questions) == 0 || len(questions) > def.QuestionCount {
		t.Fatalf("unexpected draw size %d for target %d", len(questions), def.QuestionCount)
	}
	for _, q := range questions {
		if !q.Approved {
			t.Fatalf("unapproved question drawn: %+v", q)
		}
		if _, ok := q.OptionByID(q.CorrectOptionID); !ok {
			t.Fatalf("correct option %q not in options: %+v", q.CorrectOptionID, q)
		}
	}

	if _, _, err := store.Resolve(ctx, 999); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz-not-found, got %v", err)
	}
}

func TestResolveFiltersByCategory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// Quiz 5 is the Philippine Constitution preset.
	_, questions, err := store.Resolve(ctx, 5)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for _, q := range questions {
		if q.CategoryID != 5 {
			t.Fatalf("expected category 5 only, got %+v", q)
		}
	}
}

func TestResultRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		result := domain.QuizResult{
			QuizID:             1,
			Score:              60 + i,
			CompletedQuestions: 4,
			CorrectAnswers:     3,
			TotalQuestions:     5,
			TimeSpentSeconds:   260,
			CompletedAt:        base.Add(time.Duration(i) * time.Hour),
		}
		if _, err := store.Save(ctx, result); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	past, err := store.ListPast(ctx)
	if err != nil {
		t.Fatalf("list past: %v", err)
	}
	if len(past) != 3 {
		t.Fatalf("expected 3 results, got %d", len(past))
	}
	if past[0].Score != 62 || past[2].Score != 60 {
		t.Fatalf("expected most recent first, got %+v", past)
	}
	if past[0].TimeSpentSeconds != 260 || !past[0].CompletedAt.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("result did not round-trip: %+v", past[0])
	}
}

func TestBookmarkToggle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	questionID := firstQuestionID(t, store)

	now := time.Now()
	marked, err := store.ToggleBookmark(ctx, questionID, now)
	if err != nil || !marked {
		t.Fatalf("expected bookmark added, got marked=%v err=%v", marked, err)
	}
	bookmarked, err := store.BookmarkedQuestions(ctx)
	if err != nil {
		t.Fatalf("list bookmarks: %v", err)
	}
	if len(bookmarked) != 1 || bookmarked[0].ID != questionID {
		t.Fatalf("expected one bookmarked question, got %+v", bookmarked)
	}

	marked, err = store.ToggleBookmark(ctx, questionID, now)
	if err != nil || marked {
		t.Fatalf("expected bookmark removed, got marked=%v err=%v", marked, err)
	}
	bookmarked, _ = store.BookmarkedQuestions(ctx)
	if len(bookmarked) != 0 {
		t.Fatalf("expected no bookmarks, got %+v", bookmarked)
	}
}

func TestStatisticsAggregation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	questions, err := store.ListQuestions(ctx, 0)
	if err != nil || len(questions) < 3 {
		t.Fatalf("need at least 3 questions, got %d err=%v", len(questions), err)
	}

	day1 := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	// 2 correct, 1 wrong across two days: rate rounds to 67.
	if err := store.MarkAnswered(ctx, questions[0].ID, true, day1); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := store.MarkAnswered(ctx, questions[1].ID, true, day1); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := store.MarkAnswered(ctx, questions[2].ID, false, day2); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if _, err := store.Save(ctx, domain.QuizResult{QuizID: 1, TotalQuestions: 5, CompletedAt: day2}); err != nil {
		t.Fatalf("save result: %v", err)
	}

	stats, err := store.StudyStatistics(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.QuestionsAnswered != 3 || stats.QuizzesTaken != 1 || stats.StudyDays != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.CorrectRate != 67 {
		t.Fatalf("expected rounded rate 67, got %d", stats.CorrectRate)
	}

	perf, err := store.PerformanceByCategory(ctx)
	if err != nil {
		t.Fatalf("performance: %v", err)
	}
	if len(perf) == 0 {
		t.Fatalf("expected per-category rows")
	}
}

func TestPendingReviewFlow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	pendingID, err := store.InsertQuestion(ctx, domain.Question{
		Text: "Generated question?",
		Options: []domain.Option{
			{ID: "a", Text: "Yes"},
			{ID: "b", Text: "No"},
		},
		CorrectOptionID: "a",
		Explanation:     "Because.",
		CategoryID:      1,
		CategoryName:    "Numerical Ability",
		Difficulty:      domain.DifficultyEasy,
		AIGenerated:     true,
		Approved:        false,
	})
	if err != nil {
		t.Fatalf("insert pending: %v", err)
	}

	// Unapproved questions are invisible to practice and quizzes.
	if _, err := store.GetQuestion(ctx, pendingID); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected pending question hidden, got %v", err)
	}
	pending, err := store.PendingQuestions(ctx)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one pending question, got %d err=%v", len(pending), err)
	}

	if err := store.ApproveQuestion(ctx, pendingID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := store.GetQuestion(ctx, pendingID); err != nil {
		t.Fatalf("approved question must be visible: %v", err)
	}

	if err := store.DeleteQuestion(ctx, pendingID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeleteQuestion(ctx, pendingID); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not-found on double delete, got %v", err)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func firstQuestionID(t *testing.T, store *Store) int64 {
	t.Helper()
	questions, err := store.ListQuestions(context.Background(), 0)
	if err != nil || len(questions) == 0 {
		t.Fatalf("list questions: %v", err)
	}
	return questions[0].ID
}
