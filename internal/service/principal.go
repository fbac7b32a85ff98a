package service

import (
	"context"

	"retail-ledger/internal/auth"
	"retail-ledger/internal/errors"
)

func requirePrincipal(ctx context.Context) (auth.Principal, error) {
	p, ok := auth.FromContext(ctx)
	if !ok {
		return auth.Principal{}, errors.ErrUnauthorized.WithDetails("no authenticated user")
	}
	return p, nil
}

// requireAdmin gates the operations that only administrators may call.
func requireAdmin(ctx context.Context) (auth.Principal, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return p, err
	}
	if !p.IsAdmin() {
		return p, errors.ErrForbidden
	}
	return p, nil
}
