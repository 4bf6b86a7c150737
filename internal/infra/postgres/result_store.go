package postgres

import (
	"context"
	"fmt"
	"time"

	"exam-review-service/internal/domain"
	"github.com/uptrace/bun"
)

// ResultStore persists completed attempts in Postgres via bun.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

type resultRow struct {
	bun.BaseModel `bun:"table:quiz_results"`

	ID                 int64     `bun:"id,pk,autoincrement"`
	QuizID             int64     `bun:"quiz_id"`
	Score              int       `bun:"score"`
	CompletedQuestions int       `bun:"completed_questions"`
	CorrectAnswers     int       `bun:"correct_answers"`
	TotalQuestions     int       `bun:"total_questions"`
	TimeSpentSeconds   int       `bun:"time_spent"`
	CompletedAt        time.Time `bun:"completed_at"`
}

func (s *ResultStore) Save(ctx context.Context, result domain.QuizResult) (int64, error) {
	row := &resultRow{
		QuizID:             result.QuizID,
		Score:              result.Score,
		CompletedQuestions: result.CompletedQuestions,
		CorrectAnswers:     result.CorrectAnswers,
		TotalQuestions:     result.TotalQuestions,
		TimeSpentSeconds:   result.TimeSpentSeconds,
		CompletedAt:        result.CompletedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert quiz result: %w", err)
	}
	return row.ID, nil
}

func (s *ResultStore) ListPast(ctx context.Context) ([]domain.QuizResult, error) {
	var rows []resultRow
	if err := s.db.NewSelect().Model(&rows).Order("completed_at DESC", "id DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quiz results: %w", err)
	}
	out := make([]domain.QuizResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.QuizResult{
			ID:                 row.ID,
			QuizID:             row.QuizID,
			Score:              row.Score,
			CompletedQuestions: row.CompletedQuestions,
			CorrectAnswers:     row.CorrectAnswers,
			TotalQuestions:     row.TotalQuestions,
			TimeSpentSeconds:   row.TimeSpentSeconds,
			CompletedAt:        row.CompletedAt,
		})
	}
	return out, nil
}
