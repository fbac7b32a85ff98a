package repository

import (
	"log/slog"
	"sync"
	"time"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/errors"
)

type userStore struct {
	mu     sync.RWMutex
	users  map[string]domain.User
	order  []string
	now    func() time.Time
	logger *slog.Logger
}

// NewUserStore creates an empty in-memory user repository.
func NewUserStore(logger *slog.Logger) domain.UserRepository {
	return &userStore{
		users:  make(map[string]domain.User),
		now:    time.Now,
		logger: logger,
	}
}

func (r *userStore) CreateUser(user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.ID]; exists {
		r.logger.Warn("Duplicate user registration attempt", "user_id", user.ID)
		return errors.ErrDuplicateUser.WithDetails(user.ID)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now()
	}
	r.users[user.ID] = *user
	r.order = append(r.order, user.ID)

	r.logger.Info("User registered", "user_id", user.ID, "role", user.Role)
	return nil
}

func (r *userStore) GetUser(id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, errors.ErrUserNotFound.WithDetails(id)
	}
	return &user, nil
}

// ListUsers returns users in registration order.
func (r *userStore) ListUsers() []domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.users[id])
	}
	return out
}

// UpdateUser runs the read-modify-write of a profile under the store lock.
// Identity, role and registration time cannot be changed by fn.
func (r *userStore) UpdateUser(id string, fn func(*domain.User) error) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[id]
	if !ok {
		return nil, errors.ErrUserNotFound.WithDetails(id)
	}
	updated := existing
	if err := fn(&updated); err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.Role = existing.Role
	r.users[id] = updated

	r.logger.Info("User profile updated", "user_id", id)
	return &updated, nil
}
