package memory

import (
	"context"
	"math/rand"
	"time"

	"exam-review-service/internal/domain"
)

// StaticQuestionSource serves quiz definitions and questions from in-memory
// maps (useful for tests/demos). The question draw mirrors the real stores:
// filter by category and difficulty, random order, capped at the quiz's
// target count.
type StaticQuestionSource struct {
	defs      map[int64]domain.QuizDefinition
	questions []domain.Question
	rnd       *rand.Rand
}

func NewStaticQuestionSource(defs map[int64]domain.QuizDefinition, questions []domain.Question) *StaticQuestionSource {
	return &StaticQuestionSource{
		defs:      defs,
		questions: questions,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *StaticQuestionSource) Resolve(_ context.Context, quizID int64) (domain.QuizDefinition, []domain.Question, error) {
	def, ok := s.defs[quizID]
	if !ok {
		return domain.QuizDefinition{}, nil, domain.ErrQuizNotFound
	}

	matched := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if !q.Approved {
			continue
		}
		if def.CategoryID != 0 && q.CategoryID != def.CategoryID {
			continue
		}
		if def.Difficulty != "" && q.Difficulty != def.Difficulty {
			continue
		}
		matched = append(matched, q)
	}
	if len(matched) == 0 {
		return domain.QuizDefinition{}, nil, domain.ErrNoQuestions
	}

	s.rnd.Shuffle(len(matched), func(i, j int) {
		matched[i], matched[j] = matched[j], matched[i]
	})
	if def.QuestionCount > 0 && len(matched) > def.QuestionCount {
		matched = matched[:def.QuestionCount]
	}
	return def, matched, nil
}
