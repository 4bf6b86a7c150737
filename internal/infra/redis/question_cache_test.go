package redis

import (
	"context"
	"testing"
	"time"

	"exam-review-service/internal/domain"
	"exam-review-service/internal/engine"
	"exam-review-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuestionCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	source := &countingSource{QuestionSource: sampleSource()}
	cache := NewQuestionCache(client, source, time.Minute)

	def, questions, err := cache.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if def.ID != 1 || len(questions) != 1 {
		t.Fatalf("unexpected resolve: def=%+v questions=%d", def, len(questions))
	}
	if source.calls != 1 {
		t.Fatalf("expected source called once, got %d", source.calls)
	}
	if !mr.Exists("quiz:1:questions") {
		t.Fatalf("expected cache key to be set")
	}

	// Second call should hit Redis, source not incremented.
	_, questions, err = cache.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("resolve 2: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected cache hit, source calls=%d", source.calls)
	}
	if questions[0].CorrectOptionID != "b" {
		t.Fatalf("cached payload must round-trip the full question, got %+v", questions[0])
	}
}

func TestQuestionCacheSurvivesRedisOutage(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close() // cache unreachable from the start

	source := &countingSource{QuestionSource: sampleSource()}
	cache := NewQuestionCache(client, source, time.Minute)

	_, questions, err := cache.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("resolve must fall through to source: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected questions from source, got %d", len(questions))
	}
}

type countingSource struct {
	engine.QuestionSource
	calls int
}

func (s *countingSource) Resolve(ctx context.Context, quizID int64) (domain.QuizDefinition, []domain.Question, error) {
	s.calls++
	return s.QuestionSource.Resolve(ctx, quizID)
}

func sampleSource() *memory.StaticQuestionSource {
	return memory.NewStaticQuestionSource(
		map[int64]domain.QuizDefinition{
			1: {ID: 1, Title: "Quick Practice", TimeLimitMinutes: 10, QuestionCount: 1},
		},
		[]domain.Question{
			{
				ID:   101,
				Text: "What is 2 + 2?",
				Options: []domain.Option{
					{ID: "a", Text: "3"},
					{ID: "b", Text: "4"},
					{ID: "c", Text: "5"},
				},
				CorrectOptionID: "b",
				CategoryID:      1,
				CategoryName:    "Numerical Ability",
				Difficulty:      domain.DifficultyEasy,
				Approved:        true,
			},
		},
	)
}
