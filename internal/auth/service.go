package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fieldline-crm/fieldline-crm/internal/rbac"
	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

// ErrEmailTaken is returned when registering an email that already exists.
var ErrEmailTaken = errors.New("email already registered")

// Service wraps authentication business rules.
type Service struct {
	repo  Repository
	roles *rbac.Service
}

// NewService constructs a new Service.
func NewService(repo Repository, roles *rbac.Service) *Service {
	return &Service{repo: repo, roles: roles}
}

// Authenticate validates email/password credentials. On the first successful
// sign-in the user receives the default role assignment.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if s.roles != nil {
		if err := s.roles.EnsureDefaultRole(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("auth: ensure role: %w", err)
		}
	}
	return user, nil
}

// Register creates a new account with the default role assignment.
func (s *Service) Register(ctx context.Context, email, name, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	id, err := s.repo.CreateUser(ctx, email, name, string(hash))
	if err != nil {
		return nil, err
	}
	if s.roles != nil {
		if err := s.roles.EnsureDefaultRole(ctx, id); err != nil {
			return nil, fmt.Errorf("auth: ensure role: %w", err)
		}
	}
	return &User{ID: id, Email: email, Name: name, IsActive: true}, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
