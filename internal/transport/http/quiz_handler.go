package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quiz-web-service/internal/access"
	"quiz-web-service/internal/app"
	"quiz-web-service/internal/auth"
	"quiz-web-service/internal/domain"
)

type QuizHandler struct {
	quizzes *app.QuizService
}

func NewQuizHandler(quizzes *app.QuizService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes}
}

func (h *QuizHandler) RegisterRoutes(r chi.Router) {
	r.With(Require(access.OpListQuizzes)).Get("/all", h.list)
	r.With(Require(access.OpQuizzesByCat)).Get("/category/{category}", h.byCategory)
	r.With(Require(access.OpSubmitQuiz)).Post("/submit", h.submit)
	r.With(Require(access.OpMyResults)).Get("/my-results", h.myResults)
	r.With(Require(access.OpGetQuiz)).Get("/{id}", h.get)
}

// pathID parses a positive numeric path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("Invalid %s", name)
	}
	return id, nil
}

func (h *QuizHandler) list(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.quizzes.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, newQuizViews(access.OpListQuizzes, auth.PrincipalFromContext(r.Context()), quizzes), "")
}

func (h *QuizHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	quiz, err := h.quizzes.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, newQuizView(access.OpGetQuiz, auth.PrincipalFromContext(r.Context()), quiz), "")
}

func (h *QuizHandler) byCategory(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.quizzes.ByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, newQuizViews(access.OpQuizzesByCat, auth.PrincipalFromContext(r.Context()), quizzes), "")
}

func (h *QuizHandler) submit(w http.ResponseWriter, r *http.Request) {
	var in app.SubmissionInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err)
		return
	}
	result, err := h.quizzes.Submit(r.Context(), principal(r), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, newResultView(result), "Quiz submitted successfully!")
}

func (h *QuizHandler) myResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.quizzes.MyResults(r.Context(), principal(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, newResultViews(results), "")
}
