package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"exam-review-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionLoader loads quiz content from Postgres. Each quiz row carries its
// definition and fixed question list as one JSONB document.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

type quizDocument struct {
	Definition domain.QuizDefinition `json:"definition"`
	Questions  []domain.Question     `json:"questions"`
}

func (l *QuestionLoader) Resolve(ctx context.Context, quizID int64) (domain.QuizDefinition, []domain.Question, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizDefinition{}, nil, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizDefinition{}, nil, fmt.Errorf("load quiz %d: %w", quizID, err)
	}
	var doc quizDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.QuizDefinition{}, nil, fmt.Errorf("unmarshal quiz %d: %w", quizID, err)
	}
	if len(doc.Questions) == 0 {
		return domain.QuizDefinition{}, nil, domain.ErrNoQuestions
	}
	return doc.Definition, doc.Questions, nil
}
