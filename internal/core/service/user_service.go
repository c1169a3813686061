package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/demopark/parking-api/internal/core/domain"
	"github.com/demopark/parking-api/internal/core/ports"
)

type UserService struct {
	repo   ports.UserRepository
	logger zerolog.Logger
}

func NewUserService(repo ports.UserRepository, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// GetByID returns a user. Clients may only read their own account.
func (s *UserService) GetByID(ctx context.Context, actor domain.Actor, id string) (*domain.User, error) {
	if !actor.IsAdmin() && actor.UserID != id {
		return nil, domain.ErrForbidden
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ChangePassword replaces the password of the actor's own account after
// checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, actor domain.Actor, id string, in ports.ChangePasswordInput) error {
	if actor.UserID != id {
		return domain.ErrForbidden
	}
	if in.New != in.Confirm {
		return domain.ErrPasswordMismatch
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Current)) != nil {
		return domain.ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.New), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("change password: hash: %w", err)
	}
	user.PasswordHash = string(hash)
	user.Stamp(actor, time.Now().UTC())

	if _, err := s.repo.Update(ctx, user); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	s.logger.Info().Str("user_id", id).Msg("password changed")
	return nil
}

func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	existing, err := s.repo.FindByUsername(ctx, normalizeUsername(username))
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			s.logger.Warn().Str("username", existing.Username).Msg("bootstrap admin username belongs to a non-admin account")
		}
		return nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return fmt.Errorf("ensure admin: %w", err)
	}

	user, err := newUser(domain.SystemActor, username, password, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if _, err := s.repo.Create(ctx, user); err != nil {
		// another replica won the race
		if errors.Is(err, domain.ErrUserExists) {
			return nil
		}
		return fmt.Errorf("ensure admin: %w", err)
	}
	s.logger.Info().Str("username", user.Username).Msg("admin account created")
	return nil
}
