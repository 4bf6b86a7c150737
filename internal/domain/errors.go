package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz identifier is unknown to the source.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNoQuestions is returned when a quiz resolves to an empty question list;
	// a session never starts against it.
	ErrNoQuestions = errors.New("quiz has no questions")
	// ErrQuestionNotFound indicates a question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a selected option is not part of the current question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrSessionNotFound is returned when a session ID is unknown to the manager.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionNotRunning rejects operations outside the Running state.
	ErrSessionNotRunning = errors.New("quiz session is not running")
	// ErrCategoryNotFound indicates an unknown category identifier.
	ErrCategoryNotFound = errors.New("category not found")
)
