package repository

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-ledger/internal/domain"
	apperrors "retail-ledger/internal/errors"
)

func TestUserStore(t *testing.T) {
	repo := NewUserStore(slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, repo.CreateUser(&domain.User{ID: "john_doe", Password: "password123", Role: domain.RoleCustomer}))
	require.NoError(t, repo.CreateUser(&domain.User{ID: "admin", Password: "admin123", Role: domain.RoleAdmin}))

	err := repo.CreateUser(&domain.User{ID: "john_doe", Password: "other"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateUser)

	user, err := repo.GetUser("john_doe")
	require.NoError(t, err)
	assert.Equal(t, "password123", user.Password)
	assert.False(t, user.CreatedAt.IsZero())

	_, err = repo.GetUser("ghost")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	users := repo.ListUsers()
	require.Len(t, users, 2)
	assert.Equal(t, "john_doe", users[0].ID)
	assert.Equal(t, "admin", users[1].ID)

	updated, err := repo.UpdateUser("john_doe", func(u *domain.User) error {
		u.FirstName = "John"
		u.Role = domain.RoleAdmin
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "John", updated.FirstName)
	assert.Equal(t, domain.RoleCustomer, updated.Role, "role is not changed through profile updates")

	_, err = repo.UpdateUser("john_doe", func(u *domain.User) error {
		u.LastName = "Discarded"
		return apperrors.ErrInvalidInput
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	stored, _ := repo.GetUser("john_doe")
	assert.Empty(t, stored.LastName, "a failed update leaves the user untouched")

	_, err = repo.UpdateUser("ghost", func(*domain.User) error { return nil })
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserStoreConcurrentUpdatesKeepEveryField(t *testing.T) {
	repo := NewUserStore(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, repo.CreateUser(&domain.User{ID: "jane", Password: "pw", Role: domain.RoleCustomer}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateUser("jane", func(u *domain.User) error {
				u.FirstName = "Jane"
				return nil
			})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := repo.UpdateUser("jane", func(u *domain.User) error {
				u.Email = "jane@example.com"
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	user, err := repo.GetUser("jane")
	require.NoError(t, err)
	assert.Equal(t, "Jane", user.FirstName)
	assert.Equal(t, "jane@example.com", user.Email)
}
