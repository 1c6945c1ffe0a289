package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

// Repository defines persistence for role assignments.
type Repository interface {
	GetUserRole(ctx context.Context, userID int64) (string, error)
	UpsertUserRole(ctx context.Context, userID int64, role string) error
	ListUsersWithRoles(ctx context.Context) ([]UserWithRole, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetUserRole returns the role assigned to the user.
func (r *PGRepository) GetUserRole(ctx context.Context, userID int64) (string, error) {
	var role string
	err := r.pool.QueryRow(ctx, `SELECT role FROM user_roles WHERE user_id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return role, nil
}

// UpsertUserRole creates or replaces the single assignment for a user.
func (r *PGRepository) UpsertUserRole(ctx context.Context, userID int64, role string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = NOW()`,
		userID, role)
	return err
}

// ListUsersWithRoles returns every user joined with its role assignment.
func (r *PGRepository) ListUsersWithRoles(ctx context.Context) ([]UserWithRole, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.email, u.name, u.is_active, COALESCE(ur.role, ''), u.created_at
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserWithRole
	for rows.Next() {
		var u UserWithRole
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.IsActive, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
