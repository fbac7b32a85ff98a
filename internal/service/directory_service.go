package service

import (
	"context"
	"log/slog"
	"strings"

	"retail-ledger/internal/auth"
	"retail-ledger/internal/domain"
	"retail-ledger/internal/errors"
)

// DirectoryService manages users and answers identity lookups for the ledger.
type DirectoryService struct {
	users  domain.UserRepository
	logger *slog.Logger
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(users domain.UserRepository, logger *slog.Logger) *DirectoryService {
	return &DirectoryService{
		users:  users,
		logger: logger,
	}
}

type RegisterRequest struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
}

// Register creates a customer. Usernames are unique.
func (s *DirectoryService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	return s.create(ctx, req, domain.RoleCustomer)
}

// CreateAdmin registers an administrator. It is only reachable from
// bootstrap code, never from the HTTP shell.
func (s *DirectoryService) CreateAdmin(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	return s.create(ctx, req, domain.RoleAdmin)
}

func (s *DirectoryService) create(_ context.Context, req RegisterRequest, role domain.Role) (*domain.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, errors.ErrInvalidInput.WithDetails("username is required")
	}
	if req.Password == "" {
		return nil, errors.ErrInvalidInput.WithDetails("password is required")
	}

	user := &domain.User{
		ID:        username,
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Role:      role,
	}
	if err := s.users.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate compares credentials in plaintext.
func (s *DirectoryService) Authenticate(_ context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetUser(username)
	if err != nil || user.Password != password {
		s.logger.Warn("Authentication failed", "user_id", username)
		return nil, errors.ErrUnauthorized
	}
	return user, nil
}

// GetUser returns a profile to its owner or to an administrator.
func (s *DirectoryService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID && !p.IsAdmin() {
		return nil, errors.ErrUserNotFound.WithDetails(userID)
	}
	return s.users.GetUser(userID)
}

func (s *DirectoryService) ListUsers(ctx context.Context) ([]domain.User, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.users.ListUsers(), nil
}

// ResolveOwnerName returns the display name of a user, or false when the
// user is unknown.
func (s *DirectoryService) ResolveOwnerName(_ context.Context, userID string) (string, bool) {
	user, err := s.users.GetUser(userID)
	if err != nil {
		return "", false
	}
	name := user.DisplayName()
	if name == "" {
		name = user.ID
	}
	return name, true
}

// UpdateProfile applies the caller's own profile changes. A password change
// needs the current password and a matching confirmation.
func (s *DirectoryService) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.User, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	return s.users.UpdateUser(p.UserID, func(user *domain.User) error {
		if update.NewPassword != nil {
			if update.CurrentPassword != user.Password {
				return errors.ErrUnauthorized.WithDetails("incorrect current password")
			}
			if *update.NewPassword == "" {
				return errors.ErrInvalidInput.WithDetails("new password is required")
			}
			if *update.NewPassword != update.ConfirmPassword {
				return errors.ErrInvalidInput.WithDetails("passwords do not match")
			}
			user.Password = *update.NewPassword
		}
		if update.FirstName != nil {
			user.FirstName = strings.TrimSpace(*update.FirstName)
		}
		if update.LastName != nil {
			user.LastName = strings.TrimSpace(*update.LastName)
		}
		if update.Email != nil {
			user.Email = strings.TrimSpace(*update.Email)
		}
		return nil
	})
}

// PrincipalFor authenticates and returns the identity to run requests as.
func (s *DirectoryService) PrincipalFor(ctx context.Context, username, password string) (auth.Principal, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return auth.Principal{}, err
	}
	return auth.PrincipalFor(*user), nil
}
