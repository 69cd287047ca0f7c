package auth

import (
	"context"

	"quiz-web-service/internal/domain"
)

// Principal is the verified identity attached to a request.
type Principal struct {
	UserID int64
	Email  string
	Roles  domain.RoleSet
}

// IsAdmin reports whether the principal holds ROLE_ADMIN.
func (p Principal) IsAdmin() bool {
	return p.Roles.IsAdmin()
}

type ctxKey string

const principalKey ctxKey = "principal"

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns nil for anonymous requests.
func PrincipalFromContext(ctx context.Context) *Principal {
	if v, ok := ctx.Value(principalKey).(Principal); ok {
		return &v
	}
	return nil
}
