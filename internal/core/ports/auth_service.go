package ports

import (
	"context"

	"github.com/demopark/parking-api/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, actor domain.Actor, username, password string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}

// ChangePasswordInput carries the password change form.
type ChangePasswordInput struct {
	Current string
	New     string
	Confirm string
}

// UserService manages user accounts after registration.
type UserService interface {
	GetByID(ctx context.Context, actor domain.Actor, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	ChangePassword(ctx context.Context, actor domain.Actor, id string, in ChangePasswordInput) error
	// EnsureAdmin creates the administrator account if it does not exist yet.
	EnsureAdmin(ctx context.Context, username, password string) error
}
