package domain

import "time"

// Difficulty is the fixed difficulty scale for questions and quizzes.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Option is one selectable answer for a question. Options carry stable IDs;
// selection and correctness checks run on the ID, never on the display text,
// so two options with identical text stay distinguishable.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is an immutable multiple-choice question.
type Question struct {
	ID              int64      `json:"id"`
	Text            string     `json:"text"`
	Options         []Option   `json:"options"`
	CorrectOptionID string     `json:"correctOptionId"`
	Explanation     string     `json:"explanation"`
	CategoryID      int64      `json:"categoryId"`
	CategoryName    string     `json:"categoryName"`
	Difficulty      Difficulty `json:"difficulty"`
	Topic           string     `json:"topic,omitempty"`
	AIGenerated     bool       `json:"aiGenerated,omitempty"`
	Approved        bool       `json:"approved"`
}

// OptionByID returns the option with the given ID, if any.
func (q Question) OptionByID(id string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// Category groups questions; the catalog is supplied statically by the
// question source.
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// QuizDefinition describes a quiz preset: how many questions to draw, from
// which category (0 means all), and the time budget in whole minutes.
type QuizDefinition struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	TimeLimitMinutes int        `json:"timeLimitMinutes"`
	QuestionCount    int        `json:"questionCount"`
	CategoryID       int64      `json:"categoryId,omitempty"`
	Difficulty       Difficulty `json:"difficulty,omitempty"`
}

// TimeLimit returns the quiz time budget as a duration.
func (d QuizDefinition) TimeLimit() time.Duration {
	return time.Duration(d.TimeLimitMinutes) * time.Minute
}

// AnswerRecord is the immutable record of one response within a session.
// At most one exists per question per session.
type AnswerRecord struct {
	QuestionID   int64  `json:"questionId"`
	OptionID     string `json:"optionId"`
	SelectedText string `json:"selectedText"`
	Correct      bool   `json:"correct"`
}

// QuizResult is derived once from a submitted session and never mutated.
type QuizResult struct {
	ID                 int64     `json:"id,omitempty"`
	QuizID             int64     `json:"quizId"`
	Score              int       `json:"score"`
	CompletedQuestions int       `json:"completedQuestions"`
	CorrectAnswers     int       `json:"correctAnswers"`
	TotalQuestions     int       `json:"totalQuestions"`
	TimeSpentSeconds   int       `json:"timeSpentSeconds"`
	CompletedAt        time.Time `json:"completedAt"`
}

// Bookmark marks a question for later review.
type Bookmark struct {
	QuestionID int64     `json:"questionId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// HistoryEntry records one practice answer outside of timed sessions.
type HistoryEntry struct {
	QuestionID int64     `json:"questionId"`
	Correct    bool      `json:"correct"`
	AnsweredAt time.Time `json:"answeredAt"`
}

// StudyStatistics aggregates practice and quiz activity.
type StudyStatistics struct {
	QuestionsAnswered int `json:"questionsAnswered"`
	QuizzesTaken      int `json:"quizzesTaken"`
	StudyDays         int `json:"studyDays"`
	CorrectRate       int `json:"correctRate"`
}

// CategoryPerformance is the per-category correct rate, as a whole percent.
type CategoryPerformance struct {
	CategoryID   int64  `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	CorrectRate  int    `json:"correctRate"`
}
