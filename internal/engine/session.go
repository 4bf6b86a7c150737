package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"exam-review-service/internal/domain"
)

// QuestionSource resolves a quiz definition and its fixed question list.
// The list is resolved once at session start and never reshuffled.
type QuestionSource interface {
	Resolve(ctx context.Context, quizID int64) (domain.QuizDefinition, []domain.Question, error)
}

// ResultStore persists completed attempts.
type ResultStore interface {
	Save(ctx context.Context, result domain.QuizResult) (int64, error)
}

// State is the session lifecycle phase.
type State int

const (
	StateLoading State = iota
	StateRunning
	StateSubmitted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateRunning:
		return "running"
	case StateSubmitted:
		return "submitted"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Session owns the lifecycle of one timed quiz attempt: Loading -> Running ->
// Submitted, with Cancel as the discard path. Ticks and caller operations are
// serialized on one mutex; the countdown task exists exactly while the
// session is Running and is released on every exit path.
type Session struct {
	source QuestionSource
	store  ResultStore

	now      func() time.Time
	tickEach time.Duration
	tickFn   func(remaining int)
	timeUpFn func(result domain.QuizResult, storeErr error)

	mu        sync.Mutex
	state     State
	def       domain.QuizDefinition
	questions []domain.Question
	index     int
	remaining int
	answers   []domain.AnswerRecord
	answered  map[int64]int
	result    domain.QuizResult
	storeErr  error
	stop      chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithClock makes timestamps deterministic in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithTickInterval overrides the one-second countdown interval (tests only).
func WithTickInterval(d time.Duration) Option {
	return func(s *Session) { s.tickEach = d }
}

// WithTickFunc registers a callback invoked after every countdown tick with
// the remaining seconds. Called outside the session lock.
func WithTickFunc(fn func(remaining int)) Option {
	return func(s *Session) { s.tickFn = fn }
}

// WithTimeUpFunc registers a callback invoked when the countdown reaching
// zero forces submission. Called outside the session lock.
func WithTimeUpFunc(fn func(result domain.QuizResult, storeErr error)) Option {
	return func(s *Session) { s.timeUpFn = fn }
}

// NewSession builds a session in the Loading state. Nothing runs until Start.
func NewSession(source QuestionSource, store ResultStore, opts ...Option) *Session {
	s := &Session{
		source:   source,
		store:    store,
		now:      time.Now,
		tickEach: time.Second,
		state:    StateLoading,
		answered: make(map[int64]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start resolves the quiz and transitions Loading -> Running. On any failure
// the session is left exactly as if it had never started: no timer, no state.
func (s *Session) Start(ctx context.Context, quizID int64) error {
	s.mu.Lock()
	if s.state != StateLoading {
		s.mu.Unlock()
		return fmt.Errorf("start: session already %s", s.state)
	}
	s.mu.Unlock()

	def, questions, err := s.source.Resolve(ctx, quizID)
	if err != nil {
		return fmt.Errorf("resolve quiz %d: %w", quizID, err)
	}
	if len(questions) == 0 {
		return fmt.Errorf("resolve quiz %d: %w", quizID, domain.ErrNoQuestions)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoading {
		return fmt.Errorf("start: session already %s", s.state)
	}
	s.def = def
	s.questions = questions
	s.index = 0
	s.remaining = def.TimeLimitMinutes * 60
	s.state = StateRunning
	s.startTimerLocked()
	return nil
}

// SelectOption records the answer for the current question and reports
// correctness. A repeat call on an already-answered question is a no-op that
// returns the recorded correctness; no second record is ever created.
func (s *Session) SelectOption(optionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return false, domain.ErrSessionNotRunning
	}
	q := s.questions[s.index]
	if i, ok := s.answered[q.ID]; ok {
		return s.answers[i].Correct, nil
	}
	opt, ok := q.OptionByID(optionID)
	if !ok {
		return false, fmt.Errorf("question %d: %w", q.ID, domain.ErrOptionNotFound)
	}
	record := domain.AnswerRecord{
		QuestionID:   q.ID,
		OptionID:     opt.ID,
		SelectedText: opt.Text,
		Correct:      opt.ID == q.CorrectOptionID,
	}
	s.answered[q.ID] = len(s.answers)
	s.answers = append(s.answers, record)
	return record.Correct, nil
}

// Advance moves to the next question, or submits when the current question is
// the last. Skipping an unanswered question is allowed; no record is created
// for it. Returns true when the call submitted the session.
func (s *Session) Advance(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return false, domain.ErrSessionNotRunning
	}
	if s.index < len(s.questions)-1 {
		s.index++
		return false, nil
	}
	s.submitLocked(ctx)
	return true, s.storeErr
}

// Submit terminates the session and persists the result. Idempotent: once
// Submitted, further calls return the already-computed result without
// touching the store. A persistence failure is non-fatal; the in-memory
// result is returned alongside the wrapped error.
func (s *Session) Submit(ctx context.Context) (domain.QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitted {
		return s.result, nil
	}
	if s.state != StateRunning {
		return domain.QuizResult{}, domain.ErrSessionNotRunning
	}
	s.submitLocked(ctx)
	return s.result, s.storeErr
}

// Cancel stops the countdown and discards the attempt. No result is computed
// and nothing is persisted.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return domain.ErrSessionNotRunning
	}
	s.state = StateCancelled
	s.stopTimerLocked()
	s.questions = nil
	s.answers = nil
	s.answered = map[int64]int{}
	return nil
}

// submitLocked computes the result, releases the timer, and persists.
// Callers hold s.mu and have verified the Running state.
func (s *Session) submitLocked(ctx context.Context) {
	total := len(s.questions)
	correct := 0
	for _, a := range s.answers {
		if a.Correct {
			correct++
		}
	}
	s.result = domain.QuizResult{
		QuizID:             s.def.ID,
		Score:              int(math.Round(100 * float64(correct) / float64(total))),
		CompletedQuestions: len(s.answers),
		CorrectAnswers:     correct,
		TotalQuestions:     total,
		TimeSpentSeconds:   s.def.TimeLimitMinutes*60 - s.remaining,
		CompletedAt:        s.now(),
	}
	s.state = StateSubmitted
	s.stopTimerLocked()

	if id, err := s.store.Save(ctx, s.result); err != nil {
		s.storeErr = fmt.Errorf("persist result: %w", err)
	} else {
		s.result.ID = id
	}
}

func (s *Session) startTimerLocked() {
	stop := make(chan struct{})
	s.stop = stop
	go s.runTimer(stop)
}

// stopTimerLocked releases the countdown task. Safe to call on every exit
// path; the channel is nilled so a second stop is a no-op.
func (s *Session) stopTimerLocked() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

func (s *Session) runTimer(stop <-chan struct{}) {
	ticker := time.NewTicker(s.tickEach)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if done := s.tick(); done {
				return
			}
		}
	}
}

// tick decrements the countdown by one second and forces submission at zero.
// The in-flight question counts as skipped if it has no record yet.
func (s *Session) tick() bool {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return true
	}
	s.remaining--
	if s.remaining > 0 {
		remaining := s.remaining
		fn := s.tickFn
		s.mu.Unlock()
		if fn != nil {
			fn(remaining)
		}
		return false
	}
	s.remaining = 0
	// No caller is waiting on a timeout submit.
	s.submitLocked(context.Background())
	result, storeErr := s.result, s.storeErr
	tickFn, timeUpFn := s.tickFn, s.timeUpFn
	s.mu.Unlock()
	if tickFn != nil {
		tickFn(0)
	}
	if timeUpFn != nil {
		timeUpFn(result, storeErr)
	}
	return true
}

// State reports the lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Terminal reports whether the session reached Submitted or was cancelled.
func (s *Session) Terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateSubmitted || s.state == StateCancelled
}

// CurrentIndex is the zero-based position within the question list.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// CurrentQuestion returns the question at the current index while Running.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return domain.Question{}, false
	}
	return s.questions[s.index], true
}

// RemainingSeconds is the countdown value, floored at zero.
func (s *Session) RemainingSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// QuestionCount is the length of the resolved question list.
func (s *Session) QuestionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions)
}

// Definition returns the quiz definition resolved at start.
func (s *Session) Definition() domain.QuizDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.def
}

// QuestionSnapshot returns a copy of the resolved question list. Empty once
// the session is cancelled.
func (s *Session) QuestionSnapshot() []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Answers returns a copy of the records collected so far, in answer order.
func (s *Session) Answers() []domain.AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AnswerRecord, len(s.answers))
	copy(out, s.answers)
	return out
}

// Result returns the computed result once the session is Submitted.
func (s *Session) Result() (domain.QuizResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSubmitted {
		return domain.QuizResult{}, false
	}
	return s.result, true
}
