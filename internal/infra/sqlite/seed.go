package sqlite

import (
	"context"
	"fmt"

	"exam-review-service/internal/domain"
)

// Seed installs the quiz presets and, when the bank is empty, a starter set
// of questions so the service is usable out of the box.
func (s *Store) Seed(ctx context.Context) error {
	for _, quiz := range defaultQuizzes() {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO quizzes (id, title, time_limit_min, question_count, category_id, difficulty)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			quiz.ID, quiz.Title, quiz.TimeLimitMinutes, quiz.QuestionCount, quiz.CategoryID, string(quiz.Difficulty))
		if err != nil {
			return fmt.Errorf("seed quiz %q: %w", quiz.Title, err)
		}
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count); err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, q := range starterQuestions() {
		if _, err := s.InsertQuestion(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func defaultQuizzes() []domain.QuizDefinition {
	return []domain.QuizDefinition{
		{ID: 1, Title: "Quick Practice", TimeLimitMinutes: 10, QuestionCount: 10},
		{ID: 2, Title: "Full Mock Exam", TimeLimitMinutes: 150, QuestionCount: 100},
		{ID: 3, Title: "Verbal Ability Focus", TimeLimitMinutes: 30, QuestionCount: 25, CategoryID: 2},
		{ID: 4, Title: "Numerical Skills", TimeLimitMinutes: 30, QuestionCount: 20, CategoryID: 1},
		{ID: 5, Title: "Philippine Constitution", TimeLimitMinutes: 20, QuestionCount: 15, CategoryID: 5},
	}
}

func starterQuestions() []domain.Question {
	abcd := func(texts ...string) []domain.Option {
		ids := []string{"a", "b", "c", "d"}
		opts := make([]domain.Option, len(texts))
		for i, text := range texts {
			opts[i] = domain.Option{ID: ids[i], Text: text}
		}
		return opts
	}
	return []domain.Question{
		{
			Text:            "What article of the Philippine Constitution guarantees the Bill of Rights?",
			Options:         abcd("Article I", "Article II", "Article III", "Article IV"),
			CorrectOptionID: "c",
			Explanation:     "Article III of the Philippine Constitution contains the Bill of Rights, which guarantees the fundamental rights and liberties of Filipino citizens.",
			CategoryID:      5,
			CategoryName:    "Philippine Constitution",
			Difficulty:      domain.DifficultyMedium,
			Topic:           "Bill of Rights",
			Approved:        true,
		},
		{
			Text: "Which statement is true about the writ of habeas data in the Philippines?",
			Options: abcd(
				"It protects one's right against illegal searches and seizures",
				"It protects a person's right to privacy in information",
				"It is used to produce a detained person in court",
				"It is used to stop an ongoing construction",
			),
			CorrectOptionID: "b",
			Explanation:     "The writ of habeas data is a remedy available to any person whose right to privacy in life, liberty, or security is violated or threatened by an unlawful act involving the gathering or storing of data about the person.",
			CategoryID:      5,
			CategoryName:    "Philippine Constitution",
			Difficulty:      domain.DifficultyHard,
			Topic:           "Writs",
			Approved:        true,
		},
		{
			Text:            "If x² + 9x + c = 0 has equal roots, what is the value of c?",
			Options:         abcd("20.25", "18", "20", "9"),
			CorrectOptionID: "a",
			Explanation:     "For equal roots the discriminant must be zero: 9² - 4(1)(c) = 0, which gives c = 81/4 = 20.25.",
			CategoryID:      1,
			CategoryName:    "Numerical Ability",
			Difficulty:      domain.DifficultyMedium,
			Topic:           "Quadratic Equations",
			Approved:        true,
		},
		{
			Text: "Which of the following is NOT one of the three branches of the Philippine government?",
			Options: abcd(
				"Executive Branch",
				"Legislative Branch",
				"Judicial Branch",
				"Administrative Branch",
			),
			CorrectOptionID: "d",
			Explanation:     "The three branches are the Executive, Legislative, and Judicial branches. There is no Administrative Branch.",
			CategoryID:      5,
			CategoryName:    "Philippine Constitution",
			Difficulty:      domain.DifficultyEasy,
			Topic:           "Government Structure",
			Approved:        true,
		},
		{
			Text:            "Which figure of speech is used in the sentence: 'The clouds sailed across the sky'?",
			Options:         abcd("Simile", "Metaphor", "Personification", "Hyperbole"),
			CorrectOptionID: "c",
			Explanation:     "Personification attributes human characteristics to non-human objects; here clouds are described as sailing.",
			CategoryID:      2,
			CategoryName:    "Verbal Ability",
			Difficulty:      domain.DifficultyEasy,
			Topic:           "Figures of Speech",
			Approved:        true,
		},
	}
}
