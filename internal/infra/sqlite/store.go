// Package sqlite is the app's local relational store: the question bank,
// attempt history, bookmarks, and study statistics, backed by a single
// database file through the pure-Go sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"exam-review-service/internal/domain"
	_ "modernc.org/sqlite" // driver: sqlite
)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the schema
// and the static category catalog exist.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "exam-review.db"
	}
	dsn := "file:" + path + "?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the handle for seeding and tests.
func (s *Store) DB() *sql.DB { return s.db }

const schema = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS categories (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  color TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  question_text TEXT NOT NULL,
  options TEXT NOT NULL,
  correct_option_id TEXT NOT NULL,
  explanation TEXT NOT NULL,
  category_id INTEGER NOT NULL,
  category_name TEXT NOT NULL,
  difficulty TEXT NOT NULL,
  topic TEXT,
  ai_generated INTEGER DEFAULT 0,
  approved INTEGER DEFAULT 1
);

CREATE TABLE IF NOT EXISTS quizzes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  time_limit_min INTEGER NOT NULL,
  question_count INTEGER NOT NULL,
  category_id INTEGER NOT NULL DEFAULT 0,
  difficulty TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS question_history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  question_id INTEGER NOT NULL,
  correct INTEGER NOT NULL,
  timestamp TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS quiz_results (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  quiz_id INTEGER NOT NULL,
  score INTEGER NOT NULL,
  completed_questions INTEGER NOT NULL,
  correct_answers INTEGER NOT NULL,
  total_questions INTEGER NOT NULL,
  time_spent INTEGER NOT NULL,
  date TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS bookmarks (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  question_id INTEGER NOT NULL UNIQUE,
  timestamp TEXT NOT NULL
);

INSERT OR IGNORE INTO categories (id, name, color) VALUES
  (1, 'Numerical Ability', '#0F3460'),
  (2, 'Verbal Ability', '#950101'),
  (3, 'Analytical Ability', '#38598B'),
  (4, 'General Information', '#113F67'),
  (5, 'Philippine Constitution', '#5C6D70');
`

// Resolve draws the question set for a quiz: approved questions, filtered by
// the quiz's category and difficulty, random order, capped at the target
// count. The draw happens once per session start.
func (s *Store) Resolve(ctx context.Context, quizID int64) (domain.QuizDefinition, []domain.Question, error) {
	var def domain.QuizDefinition
	var difficulty string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, time_limit_min, question_count, category_id, difficulty FROM quizzes WHERE id=?`, quizID).
		Scan(&def.ID, &def.Title, &def.TimeLimitMinutes, &def.QuestionCount, &def.CategoryID, &difficulty)
	if err == sql.ErrNoRows {
		return domain.QuizDefinition{}, nil, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizDefinition{}, nil, fmt.Errorf("load quiz %d: %w", quizID, err)
	}
	def.Difficulty = domain.Difficulty(difficulty)

	query := `SELECT id, question_text, options, correct_option_id, explanation,
	  category_id, category_name, difficulty, COALESCE(topic,''), ai_generated, approved
	  FROM questions WHERE approved = 1`
	args := []any{}
	if def.CategoryID != 0 {
		query += ` AND category_id = ?`
		args = append(args, def.CategoryID)
	}
	if def.Difficulty != "" {
		query += ` AND difficulty = ?`
		args = append(args, string(def.Difficulty))
	}
	query += ` ORDER BY RANDOM() LIMIT ?`
	args = append(args, def.QuestionCount)

	questions, err := s.queryQuestions(ctx, query, args...)
	if err != nil {
		return domain.QuizDefinition{}, nil, err
	}
	if len(questions) == 0 {
		return domain.QuizDefinition{}, nil, domain.ErrNoQuestions
	}
	return def, questions, nil
}

// Save persists a completed attempt and returns the generated row ID.
func (s *Store) Save(ctx context.Context, result domain.QuizResult) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO quiz_results (quiz_id, score, completed_questions, correct_answers, total_questions, time_spent, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.QuizID, result.Score, result.CompletedQuestions, result.CorrectAnswers,
		result.TotalQuestions, result.TimeSpentSeconds, result.CompletedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert quiz result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("quiz result id: %w", err)
	}
	return id, nil
}

// ListPast returns attempts most recent first.
func (s *Store) ListPast(ctx context.Context) ([]domain.QuizResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, quiz_id, score, completed_questions, correct_answers, total_questions, time_spent, date
		 FROM quiz_results ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list quiz results: %w", err)
	}
	defer rows.Close()

	var out []domain.QuizResult
	for rows.Next() {
		var r domain.QuizResult
		var date string
		if err := rows.Scan(&r.ID, &r.QuizID, &r.Score, &r.CompletedQuestions,
			&r.CorrectAnswers, &r.TotalQuestions, &r.TimeSpentSeconds, &date); err != nil {
			return nil, fmt.Errorf("scan quiz result: %w", err)
		}
		r.CompletedAt, _ = time.Parse(time.RFC3339, date)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	questions, err := s.queryQuestions(ctx,
		`SELECT id, question_text, options, correct_option_id, explanation,
		 category_id, category_name, difficulty, COALESCE(topic,''), ai_generated, approved
		 FROM questions WHERE id = ? AND approved = 1`, id)
	if err != nil {
		return domain.Question{}, err
	}
	if len(questions) == 0 {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return questions[0], nil
}

// ListQuestions returns approved questions, optionally filtered by category
// (0 means all).
func (s *Store) ListQuestions(ctx context.Context, categoryID int64) ([]domain.Question, error) {
	query := `SELECT id, question_text, options, correct_option_id, explanation,
	  category_id, category_name, difficulty, COALESCE(topic,''), ai_generated, approved
	  FROM questions WHERE approved = 1`
	args := []any{}
	if categoryID != 0 {
		query += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	return s.queryQuestions(ctx, query, args...)
}

func (s *Store) Categories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.QuizDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, time_limit_min, question_count, category_id, difficulty FROM quizzes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var out []domain.QuizDefinition
	for rows.Next() {
		var d domain.QuizDefinition
		var difficulty string
		if err := rows.Scan(&d.ID, &d.Title, &d.TimeLimitMinutes, &d.QuestionCount, &d.CategoryID, &difficulty); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		d.Difficulty = domain.Difficulty(difficulty)
		out = append(out, d)
	}
	return out, rows.Err()
}

// MarkAnswered appends one practice answer to the study history.
func (s *Store) MarkAnswered(ctx context.Context, questionID int64, correct bool, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO question_history (question_id, correct, timestamp) VALUES (?, ?, ?)`,
		questionID, boolToInt(correct), at.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// ToggleBookmark flips the bookmark for a question and reports whether it is
// now bookmarked.
func (s *Store) ToggleBookmark(ctx context.Context, questionID int64, at time.Time) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookmarks WHERE question_id = ?`, questionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check bookmark: %w", err)
	}
	if exists > 0 {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE question_id = ?`, questionID); err != nil {
			return false, fmt.Errorf("remove bookmark: %w", err)
		}
		return false, nil
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO bookmarks (question_id, timestamp) VALUES (?, ?)`,
		questionID, at.UTC().Format(time.RFC3339)); err != nil {
		return false, fmt.Errorf("add bookmark: %w", err)
	}
	return true, nil
}

func (s *Store) RemoveBookmark(ctx context.Context, questionID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE question_id = ?`, questionID); err != nil {
		return fmt.Errorf("remove bookmark: %w", err)
	}
	return nil
}

// BookmarkedQuestions lists bookmarked questions, most recently marked first.
func (s *Store) BookmarkedQuestions(ctx context.Context) ([]domain.Question, error) {
	return s.queryQuestions(ctx,
		`SELECT q.id, q.question_text, q.options, q.correct_option_id, q.explanation,
		 q.category_id, q.category_name, q.difficulty, COALESCE(q.topic,''), q.ai_generated, q.approved
		 FROM questions q
		 INNER JOIN bookmarks b ON q.id = b.question_id
		 ORDER BY b.timestamp DESC`)
}

// InsertQuestion adds a question to the bank. AI-generated questions enter
// unapproved and stay out of quizzes and practice until reviewed.
func (s *Store) InsertQuestion(ctx context.Context, q domain.Question) (int64, error) {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return 0, fmt.Errorf("marshal options: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO questions (question_text, options, correct_option_id, explanation,
		 category_id, category_name, difficulty, topic, ai_generated, approved)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.Text, string(options), q.CorrectOptionID, q.Explanation,
		q.CategoryID, q.CategoryName, string(q.Difficulty), q.Topic,
		boolToInt(q.AIGenerated), boolToInt(q.Approved))
	if err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("question id: %w", err)
	}
	return id, nil
}

// PendingQuestions lists AI-generated questions awaiting review.
func (s *Store) PendingQuestions(ctx context.Context) ([]domain.Question, error) {
	return s.queryQuestions(ctx,
		`SELECT id, question_text, options, correct_option_id, explanation,
		 category_id, category_name, difficulty, COALESCE(topic,''), ai_generated, approved
		 FROM questions WHERE ai_generated = 1 AND approved = 0`)
}

func (s *Store) ApproveQuestion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE questions SET approved = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("approve question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// StudyStatistics aggregates practice and quiz activity.
func (s *Store) StudyStatistics(ctx context.Context) (domain.StudyStatistics, error) {
	var stats domain.StudyStatistics
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM question_history`).Scan(&stats.QuestionsAnswered)
	if err != nil {
		return stats, fmt.Errorf("count history: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quiz_results`).Scan(&stats.QuizzesTaken); err != nil {
		return stats, fmt.Errorf("count results: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT DATE(timestamp)) FROM question_history`).Scan(&stats.StudyDays); err != nil {
		return stats, fmt.Errorf("count study days: %w", err)
	}
	var rate sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		`SELECT AVG(correct) * 100 FROM question_history`).Scan(&rate); err != nil {
		return stats, fmt.Errorf("correct rate: %w", err)
	}
	if rate.Valid {
		stats.CorrectRate = int(math.Round(rate.Float64))
	}
	return stats, nil
}

// PerformanceByCategory reports the practice correct rate per category.
func (s *Store) PerformanceByCategory(ctx context.Context) ([]domain.CategoryPerformance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT q.category_id, q.category_name, AVG(h.correct) * 100
		 FROM question_history h
		 JOIN questions q ON h.question_id = q.id
		 GROUP BY q.category_id
		 ORDER BY q.category_id`)
	if err != nil {
		return nil, fmt.Errorf("performance by category: %w", err)
	}
	defer rows.Close()

	var out []domain.CategoryPerformance
	for rows.Next() {
		var p domain.CategoryPerformance
		var rate sql.NullFloat64
		if err := rows.Scan(&p.CategoryID, &p.CategoryName, &rate); err != nil {
			return nil, fmt.Errorf("scan performance: %w", err)
		}
		if rate.Valid {
			p.CorrectRate = int(math.Round(rate.Float64))
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) queryQuestions(ctx context.Context, query string, args ...any) ([]domain.Question, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var q domain.Question
		var options string
		var aiGenerated, approved int
		var difficulty string
		if err := rows.Scan(&q.ID, &q.Text, &options, &q.CorrectOptionID, &q.Explanation,
			&q.CategoryID, &q.CategoryName, &difficulty, &q.Topic, &aiGenerated, &approved); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options for question %d: %w", q.ID, err)
		}
		q.Difficulty = domain.Difficulty(difficulty)
		q.AIGenerated = aiGenerated == 1
		q.Approved = approved == 1
		out = append(out, q)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
