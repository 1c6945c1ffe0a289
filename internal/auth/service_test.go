package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldline-crm/fieldline-crm/internal/auth"
	"github.com/fieldline-crm/fieldline-crm/internal/rbac"
	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

type stubRepo struct {
	users    map[string]*auth.User
	nextID   int64
	sessions map[string]int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: make(map[string]*auth.User), nextID: 1, sessions: make(map[string]int64)}
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) CreateUser(ctx context.Context, email, name, passwordHash string) (int64, error) {
	if _, ok := s.users[email]; ok {
		return 0, auth.ErrEmailTaken
	}
	id := s.nextID
	s.nextID++
	s.users[email] = &auth.User{ID: id, Email: email, Name: name, PasswordHash: passwordHash, IsActive: true}
	return id, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type stubRoleRepo struct {
	assignments map[int64]string
}

func (s *stubRoleRepo) GetUserRole(ctx context.Context, userID int64) (string, error) {
	role, ok := s.assignments[userID]
	if !ok {
		return "", shared.ErrNotFound
	}
	return role, nil
}

func (s *stubRoleRepo) UpsertUserRole(ctx context.Context, userID int64, role string) error {
	s.assignments[userID] = role
	return nil
}

func (s *stubRoleRepo) ListUsersWithRoles(ctx context.Context) ([]rbac.UserWithRole, error) {
	return nil, nil
}

func newService(t *testing.T) (*auth.Service, *stubRepo, *stubRoleRepo) {
	t.Helper()
	repo := newStubRepo()
	roleRepo := &stubRoleRepo{assignments: make(map[int64]string)}
	return auth.NewService(repo, rbac.NewService(roleRepo)), repo, roleRepo
}

func TestAuthenticate(t *testing.T) {
	svc, repo, roleRepo := newService(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.users["jo@fieldline.local"] = &auth.User{ID: 3, Email: "jo@fieldline.local", PasswordHash: string(hash), IsActive: true}

	user, err := svc.Authenticate(context.Background(), "jo@fieldline.local", "correct horse")
	require.NoError(t, err)
	assert.EqualValues(t, 3, user.ID)

	// First sign-in assigns the default role.
	assert.Equal(t, rbac.RoleUser, roleRepo.assignments[3])
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc, repo, _ := newService(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.DefaultCost)
	repo.users["jo@fieldline.local"] = &auth.User{ID: 3, Email: "jo@fieldline.local", PasswordHash: string(hash), IsActive: true}

	_, err := svc.Authenticate(context.Background(), "jo@fieldline.local", "battery staple")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	svc, repo, _ := newService(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.DefaultCost)
	repo.users["jo@fieldline.local"] = &auth.User{ID: 3, Email: "jo@fieldline.local", PasswordHash: string(hash), IsActive: false}

	_, err := svc.Authenticate(context.Background(), "jo@fieldline.local", "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRegister(t *testing.T) {
	svc, _, roleRepo := newService(t)

	user, err := svc.Register(context.Background(), "new@fieldline.local", "New User", "longenough")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleUser, roleRepo.assignments[user.ID])

	_, err = svc.Register(context.Background(), "new@fieldline.local", "Dup", "longenough")
	require.ErrorIs(t, err, auth.ErrEmailTaken)
}
