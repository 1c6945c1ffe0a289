package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("account not found")

type Repository interface {
	Get(ctx context.Context, id int64) (*Account, error)
	FindByName(ctx context.Context, name string) (*Account, error)
	List(ctx context.Context, req ListAccountsRequest) ([]Account, int, error)
	Create(ctx context.Context, account Account) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const accountColumns = `id, name, industry, website, phone, email,
       address_line1, address_line2, city, state, postal_code, notes,
       created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Account, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM accounts WHERE id = $1", accountColumns), id)
	return scanAccount(row)
}

func (r *repository) FindByName(ctx context.Context, name string) (*Account, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM accounts WHERE lower(name) = lower($1) ORDER BY id LIMIT 1", accountColumns), name)
	return scanAccount(row)
}

func (r *repository) List(ctx context.Context, req ListAccountsRequest) ([]Account, int, error) {
	whereClause := ""
	var args []interface{}
	argPos := 1

	if req.Search != nil && *req.Search != "" {
		whereClause = fmt.Sprintf("WHERE (name ILIKE $%d OR email ILIKE $%d OR city ILIKE $%d)", argPos, argPos, argPos)
		args = append(args, "%"+*req.Search+"%")
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM accounts %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM accounts %s ORDER BY name LIMIT $%d OFFSET $%d",
		accountColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		a, err := scanAccountRow(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, account Account) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (name, industry, website, phone, email,
			address_line1, address_line2, city, state, postal_code, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		account.Name, account.Industry, account.Website, account.Phone, account.Email,
		account.AddressLine1, account.AddressLine2, account.City, account.State,
		account.PostalCode, account.Notes, account.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE accounts SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"name", "industry", "website", "phone", "email",
		"address_line1", "address_line2", "city", "state", "postal_code", "notes"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM accounts WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	a, err := scanAccountRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func scanAccountRow(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(
		&a.ID, &a.Name, &a.Industry, &a.Website, &a.Phone, &a.Email,
		&a.AddressLine1, &a.AddressLine2, &a.City, &a.State, &a.PostalCode, &a.Notes,
		&a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
