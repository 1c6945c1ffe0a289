package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

// ErrOnlyAdmins is returned when a non-admin attempts role administration.
var ErrOnlyAdmins = errors.New("only admins can set user roles")

// ErrUnknownRole is returned when an assignment names a role outside the
// closed role set.
var ErrUnknownRole = errors.New("unknown role")

// Service resolves and administers role assignments.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetUserRole returns the role assigned to a user. A missing assignment is a
// normal deny case and resolves to the empty role, not an error.
func (s *Service) GetUserRole(ctx context.Context, userID int64) (string, error) {
	role, err := s.repo.GetUserRole(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("rbac: get user role: %w", err)
	}
	return role, nil
}

// EnsureDefaultRole assigns the default role to a user that has no assignment
// yet. Called on first sign-in; an existing assignment is left untouched.
func (s *Service) EnsureDefaultRole(ctx context.Context, userID int64) error {
	_, err := s.repo.GetUserRole(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("rbac: ensure default role: %w", err)
	}
	if err := s.repo.UpsertUserRole(ctx, userID, RoleUser); err != nil {
		return fmt.Errorf("rbac: assign default role: %w", err)
	}
	return nil
}

// SetUserRole replaces the assignment for userID. Only admins may do this.
func (s *Service) SetUserRole(ctx context.Context, actorRole string, userID int64, role string) error {
	if actorRole != RoleAdmin {
		return ErrOnlyAdmins
	}
	if !KnownRole(role) {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	if err := s.repo.UpsertUserRole(ctx, userID, role); err != nil {
		return fmt.Errorf("rbac: set user role: %w", err)
	}
	return nil
}

// ListUsers returns all users with their assignments. Only admins may list.
func (s *Service) ListUsers(ctx context.Context, actorRole string) ([]UserWithRole, error) {
	if actorRole != RoleAdmin {
		return nil, ErrOnlyAdmins
	}
	users, err := s.repo.ListUsersWithRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("rbac: list users: %w", err)
	}
	return users, nil
}
