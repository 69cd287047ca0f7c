package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"quiz-web-service/internal/access"
	"quiz-web-service/internal/app"
)

type AuthHandler struct {
	auth *app.AuthService
}

func NewAuthHandler(auth *app.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.With(Require(access.OpRegister)).Post("/register", h.register)
	r.With(Require(access.OpLogin)).Post("/login", h.login)
	r.With(Require(access.OpMe)).Get("/me", h.me)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var in app.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err)
		return
	}
	if _, err := h.auth.Register(r.Context(), in); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, nil, "User registered successfully!")
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in app.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, err)
		return
	}
	session, err := h.auth.Login(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	u := session.User
	respondOK(w, jwtResponse{
		Token:     session.Token,
		Type:      "Bearer",
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Roles:     u.Roles.Strings(),
		Score:     u.Score,
	}, "Login successful")
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.auth.Me(r.Context(), principal(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, newUserView(u), "")
}
