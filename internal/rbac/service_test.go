package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

type mockRepo struct {
	assignments map[int64]string
	users       []UserWithRole
	getErr      error
	upsertErr   error
}

func newMockRepo() *mockRepo {
	return &mockRepo{assignments: make(map[int64]string)}
}

func (m *mockRepo) GetUserRole(ctx context.Context, userID int64) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	role, ok := m.assignments[userID]
	if !ok {
		return "", shared.ErrNotFound
	}
	return role, nil
}

func (m *mockRepo) UpsertUserRole(ctx context.Context, userID int64, role string) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.assignments[userID] = role
	return nil
}

func (m *mockRepo) ListUsersWithRoles(ctx context.Context) ([]UserWithRole, error) {
	return m.users, nil
}

func TestGetUserRoleMissingAssignmentIsEmptyNotError(t *testing.T) {
	svc := NewService(newMockRepo())

	role, err := svc.GetUserRole(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, role)
}

func TestEnsureDefaultRole(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	require.NoError(t, svc.EnsureDefaultRole(context.Background(), 7))
	assert.Equal(t, RoleUser, repo.assignments[7])

	// Existing assignment survives a repeat sign-in.
	repo.assignments[7] = RoleManager
	require.NoError(t, svc.EnsureDefaultRole(context.Background(), 7))
	assert.Equal(t, RoleManager, repo.assignments[7])
}

func TestSetUserRoleAdminOnly(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	for _, actor := range []string{RoleManager, RoleTechnician, RoleUser, "", "superuser"} {
		err := svc.SetUserRole(context.Background(), actor, 9, RoleTechnician)
		require.ErrorIs(t, err, ErrOnlyAdmins, "actor %q", actor)
	}
	assert.Empty(t, repo.assignments)

	require.NoError(t, svc.SetUserRole(context.Background(), RoleAdmin, 9, RoleTechnician))
	assert.Equal(t, RoleTechnician, repo.assignments[9])
}

func TestSetUserRoleRejectsUnknownRole(t *testing.T) {
	svc := NewService(newMockRepo())

	err := svc.SetUserRole(context.Background(), RoleAdmin, 9, "superuser")
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestListUsersAdminOnly(t *testing.T) {
	repo := newMockRepo()
	repo.users = []UserWithRole{{ID: 1, Email: "a@b.c", Role: RoleAdmin}}
	svc := NewService(repo)

	_, err := svc.ListUsers(context.Background(), RoleManager)
	require.ErrorIs(t, err, ErrOnlyAdmins)

	users, err := svc.ListUsers(context.Background(), RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
