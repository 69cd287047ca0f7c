package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quiz-web-service/internal/domain"
)

// envelope is the uniform body of every API response.
type envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

func respondOK(w http.ResponseWriter, data any, message string) {
	respondJSON(w, http.StatusOK, envelope{Success: true, Data: data, Message: message})
}

func respondError(w http.ResponseWriter, err error) {
	status := HTTPStatusFromError(err)
	body := envelope{Message: errorMessage(err)}

	var verr *domain.ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		body.Message = ""
		body.Errors = verr.Fields
	}
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
	}
	respondJSON(w, status, body)
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

var errorMessages = []struct {
	err     error
	message string
}{
	{domain.ErrInvalidCredentials, "Invalid email or password"},
	{domain.ErrInvalidToken, "Invalid or expired token"},
	{domain.ErrUnauthorized, "Full authentication is required to access this resource"},
	{domain.ErrForbidden, "Access denied"},
	{domain.ErrEmailTaken, "Email is already in use!"},
	{domain.ErrQuizNotFound, "Quiz not found"},
	{domain.ErrQuestionNotFound, "Question not found"},
	{domain.ErrUserNotFound, "User not found"},
	{domain.ErrNotFound, "Not found"},
	{domain.ErrInvalidQuiz, "Quiz has no questions"},
	{domain.ErrConflict, "Conflict"},
}

func errorMessage(err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return m.message
		}
	}
	return "An unexpected error occurred"
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewValidationError("Invalid request payload")
	}
	return nil
}
