package memory

import (
	"context"
	"sync"

	"exam-review-service/internal/domain"
)

// ResultStore keeps completed attempts in memory, most recent first.
type ResultStore struct {
	mu      sync.Mutex
	nextID  int64
	results []domain.QuizResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{nextID: 1}
}

func (s *ResultStore) Save(_ context.Context, result domain.QuizResult) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result.ID = s.nextID
	s.nextID++
	s.results = append([]domain.QuizResult{result}, s.results...)
	return result.ID, nil
}

func (s *ResultStore) ListPast(_ context.Context) ([]domain.QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.QuizResult, len(s.results))
	copy(out, s.results)
	return out, nil
}
