package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"exam-review-service/internal/app"
	"exam-review-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

// QuizLister enumerates the quiz catalog shown on the home screen.
type QuizLister interface {
	ListQuizzes(ctx context.Context) ([]domain.QuizDefinition, error)
}

// QuestionGenerator produces one new pending question on demand.
type QuestionGenerator interface {
	Generate(ctx context.Context) (domain.Question, error)
}

// RESTHandler serves everything outside the live session: the quiz catalog,
// practice answers, bookmarks, statistics, past results, and the review queue.
type RESTHandler struct {
	library   *app.LibraryService
	quizzes   QuizLister
	generator QuestionGenerator // nil when generation is not configured
}

func NewRESTHandler(library *app.LibraryService, quizzes QuizLister, generator QuestionGenerator) *RESTHandler {
	return &RESTHandler{library: library, quizzes: quizzes, generator: generator}
}

func (h *RESTHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.quizzes.ListQuizzes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *RESTHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.library.Categories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// ListQuestions returns the bank, optionally filtered by ?categoryId=.
func (h *RESTHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	var categoryID int64
	if raw := r.URL.Query().Get("categoryId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid categoryId", http.StatusBadRequest)
			return
		}
		categoryID = parsed
	}
	questions, err := h.library.Questions(r.Context(), categoryID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *RESTHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	question, err := h.library.Question(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

// AnswerPractice scores one untimed answer and returns immediate feedback.
func (h *RESTHandler) AnswerPractice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		OptionID string `json:"optionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.OptionID == "" {
		http.Error(w, "missing optionId", http.StatusBadRequest)
		return
	}
	feedback, err := h.library.AnswerPractice(r.Context(), id, body.OptionID)
	if err != nil {
		if errors.Is(err, domain.ErrQuestionNotFound) || errors.Is(err, domain.ErrOptionNotFound) {
			writeError(w, err)
			return
		}
		// History write failed but the answer was scored.
		log.Printf("practice answer for question %d: %v", id, err)
	}
	writeJSON(w, http.StatusOK, feedback)
}

func (h *RESTHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	bookmarked, err := h.library.ToggleBookmark(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"bookmarked": bookmarked})
}

func (h *RESTHandler) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.library.RemoveBookmark(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RESTHandler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	questions, err := h.library.BookmarkedQuestions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *RESTHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.library.StudyStatistics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *RESTHandler) GetCategoryPerformance(w http.ResponseWriter, r *http.Request) {
	performance, err := h.library.PerformanceByCategory(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, performance)
}

func (h *RESTHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.library.PastResults(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *RESTHandler) ListPendingQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.library.PendingQuestions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

// ReviewQuestion approves or deletes a pending AI-generated question.
func (h *RESTHandler) ReviewQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Approved bool `json:"approved"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid review payload", http.StatusBadRequest)
		return
	}
	if err := h.library.ReviewQuestion(r.Context(), id, body.Approved); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"approved": body.Approved})
}

func (h *RESTHandler) GenerateQuestion(w http.ResponseWriter, r *http.Request) {
	if h.generator == nil {
		http.Error(w, "question generation is not configured", http.StatusServiceUnavailable)
		return
	}
	question, err := h.generator.Generate(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrCategoryNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrOptionNotFound):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
