// Package auth carries the authenticated caller through request contexts.
package auth

import (
	"context"

	"retail-ledger/internal/domain"
)

type contextKey string

const principalKey = contextKey("principal")

// Principal is the identity an operation runs as.
type Principal struct {
	UserID string
	Role   domain.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == domain.RoleAdmin
}

// PrincipalFor builds the principal of a stored user.
func PrincipalFor(user domain.User) Principal {
	return Principal{UserID: user.ID, Role: user.Role}
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext returns the caller, if one was authenticated.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	if !ok || p.UserID == "" {
		return Principal{}, false
	}
	return p, true
}
