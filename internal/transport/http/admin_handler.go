package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"quiz-web-service/internal/access"
	"quiz-web-service/internal/app"
	"quiz-web-service/internal/auth"
)

type AdminHandler struct {
	admin *app.AdminService
}

func NewAdminHandler(admin *app.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.With(Require(access.OpAdminUsers)).Get("/users", h.users)
	r.With(Require(access.OpAdminQuizzes)).Get("/quizzes", h.quizzes)
	r.With(Require(access.OpAdminGetQuiz)).Get("/quiz/{id}", h.quiz)
	r.With(Require(access.OpAdminCreateQuiz)).Post("/quiz", h.createQuiz)
	r.With(Require(access.OpAdminUpdateQuiz)).Put("/quiz/{id}", h.updateQuiz)
	r.With(Require(access.OpAdminDeleteQuiz)).Delete("/quiz/{id}", h.deleteQuiz)
	r.With(Require(access.OpAdminResults)).Get("/results", h.results)
	r.With(Require(access.OpAdminDeleteUser)).Delete("/user/{id}", h.deleteUser)
	r.With(Require(access.OpAdminStats)).Get("/stats", h.stats)
}

func (h *AdminHandler) users(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.Users(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]userView, len(users))
	for i, u := range users {
		out[i] = newUserView(u)
	}
	respondOK(w, out, "")
}

func (h *AdminHandler) quizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.admin.Quizzes(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, newQuizViews(access.OpAdminQuizzes, auth.PrincipalFromContext(r.Context()), quizzes), "")
}

func (h *AdminHandler) quiz(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	quiz, err := h.admin.Quiz(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, newQuizView(access.OpAdminGetQuiz, auth.PrincipalFromContext(r.Context()), quiz), "")
}

func (h *AdminHandler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var in app.QuizInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err)
		return
	}
	quiz, err := h.admin.CreateQuiz(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, newQuizView(access.OpAdminCreateQuiz, auth.PrincipalFromContext(r.Context()), quiz), "Quiz created successfully!")
}

func (h *AdminHandler) updateQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var in app.QuizInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err)
		return
	}
	quiz, err := h.admin.UpdateQuiz(r.Context(), id, in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, newQuizView(access.OpAdminUpdateQuiz, auth.PrincipalFromContext(r.Context()), quiz), "Quiz updated successfully!")
}

func (h *AdminHandler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.admin.DeleteQuiz(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, nil, "Quiz deleted successfully!")
}

func (h *AdminHandler) results(w http.ResponseWriter, r *http.Request) {
	results, err := h.admin.Results(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, newResultViews(results), "")
}

func (h *AdminHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.admin.DeleteUser(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, nil, "User deleted successfully!")
}

func (h *AdminHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, stats, "")
}
