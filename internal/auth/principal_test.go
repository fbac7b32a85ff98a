package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"retail-ledger/internal/domain"
)

func TestPrincipalRoundTrip(t *testing.T) {
	p := PrincipalFor(domain.User{ID: "admin", Role: domain.RoleAdmin})

	got, ok := FromContext(WithPrincipal(context.Background(), p))

	assert.True(t, ok)
	assert.Equal(t, "admin", got.UserID)
	assert.True(t, got.IsAdmin())
}

func TestFromContextWithoutPrincipal(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	_, ok = FromContext(WithPrincipal(context.Background(), Principal{Role: domain.RoleCustomer}))
	assert.False(t, ok, "a principal without a user id is anonymous")
}
