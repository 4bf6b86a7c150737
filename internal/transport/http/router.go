package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the REST API under /api and the live session socket at /ws.
func NewRouter(rest *RESTHandler, ws *WSHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/quizzes", rest.ListQuizzes)
		r.Get("/categories", rest.ListCategories)
		r.Get("/results", rest.ListResults)

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", rest.ListQuestions)
			r.Get("/{id}", rest.GetQuestion)
			r.Post("/{id}/answer", rest.AnswerPractice)
			r.Post("/{id}/bookmark", rest.ToggleBookmark)
			r.Delete("/{id}/bookmark", rest.RemoveBookmark)
		})

		r.Get("/bookmarks", rest.ListBookmarks)

		r.Route("/stats", func(r chi.Router) {
			r.Get("/", rest.GetStatistics)
			r.Get("/categories", rest.GetCategoryPerformance)
		})

		r.Route("/review", func(r chi.Router) {
			r.Get("/pending", rest.ListPendingQuestions)
			r.Post("/{id}", rest.ReviewQuestion)
			r.Post("/generate", rest.GenerateQuestion)
		})
	})

	r.Get("/ws", ws.ServeWS)

	return r
}
