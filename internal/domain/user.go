package domain

import (
	"strings"
	"time"
)

// Role is closed: a user is either a customer or an administrator.
type Role uint8

const (
	RoleCustomer Role = iota + 1
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleCustomer:
		return "CUSTOMER"
	case RoleAdmin:
		return "ADMIN"
	default:
		return "UNKNOWN"
	}
}

// ParseRole accepts the role names case-insensitively.
func ParseRole(s string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CUSTOMER":
		return RoleCustomer, true
	case "ADMIN":
		return RoleAdmin, true
	default:
		return 0, false
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

type User struct {
	ID        string    `json:"user_id"`
	Password  string    `json:"-"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName is the first and last name joined, as shown in listings.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ProfileUpdate carries the optional profile changes a user can make.
type ProfileUpdate struct {
	FirstName       *string
	LastName        *string
	Email           *string
	CurrentPassword string
	NewPassword     *string
	ConfirmPassword string
}

type UserRepository interface {
	CreateUser(user *User) error
	GetUser(id string) (*User, error)
	ListUsers() []User
	// UpdateUser applies fn to the stored user under the repository lock and
	// saves the result unless fn fails.
	UpdateUser(id string, fn func(*User) error) (*User, error)
}
