package http

import (
	"net/http"
	"strings"

	"quiz-web-service/internal/access"
	"quiz-web-service/internal/auth"
)

// Authenticate attaches the principal of a valid bearer token to the request.
// Missing or invalid tokens leave the request anonymous; Require decides whether that is enough.
func Authenticate(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			p, err := tokens.Verify(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// Require rejects requests whose principal may not invoke op.
func Require(op access.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := access.Authorize(op, auth.PrincipalFromContext(r.Context())); err != nil {
				respondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// principal is only called behind Require for authenticated operations.
func principal(r *http.Request) auth.Principal {
	if p := auth.PrincipalFromContext(r.Context()); p != nil {
		return *p
	}
	return auth.Principal{}
}
