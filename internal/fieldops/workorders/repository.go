package workorders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("work order not found")

type Repository interface {
	Get(ctx context.Context, id int64) (*WorkOrder, error)
	List(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error)
	Create(ctx context.Context, wo WorkOrder) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	NextNumber(ctx context.Context) (string, error)
	CountOpen(ctx context.Context) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const workOrderColumns = `id, number, contact_id, account_id, quote_id, technician_id,
       title, description, status, scheduled_at, started_at, completed_at,
       invoice_id, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*WorkOrder, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM work_orders WHERE id = $1", workOrderColumns), id)
	wo, err := scanWorkOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return wo, nil
}

func (r *repository) List(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Status != nil && *req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.TechnicianID != nil {
		conditions = append(conditions, fmt.Sprintf("technician_id = $%d", argPos))
		args = append(args, *req.TechnicianID)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(number ILIKE $%d OR title ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+*req.Search+"%")
		argPos++
	}

	whereClause := ""
	for i, cond := range conditions {
		if i == 0 {
			whereClause = "WHERE " + cond
		} else {
			whereClause += " AND " + cond
		}
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM work_orders %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM work_orders %s ORDER BY scheduled_at NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d",
		workOrderColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *wo)
	}
	return orders, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, wo WorkOrder) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO work_orders (number, contact_id, account_id, quote_id, title,
			description, status, scheduled_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		wo.Number, wo.ContactID, wo.AccountID, wo.QuoteID, wo.Title,
		wo.Description, wo.Status, wo.ScheduledAt, wo.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE work_orders SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"title", "description", "status", "scheduled_at",
		"started_at", "completed_at", "technician_id", "invoice_id"} {
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

func (r *repository) NextNumber(ctx context.Context) (string, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM work_orders").Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("WO-%05d", count+1), nil
}

func (r *repository) CountOpen(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT count(*) FROM work_orders WHERE status IN ($1, $2)",
		StatusScheduled, StatusInProgress).Scan(&count)
	return count, err
}

func scanWorkOrder(row pgx.Row) (*WorkOrder, error) {
	var wo WorkOrder
	err := row.Scan(
		&wo.ID, &wo.Number, &wo.ContactID, &wo.AccountID, &wo.QuoteID, &wo.TechnicianID,
		&wo.Title, &wo.Description, &wo.Status, &wo.ScheduledAt, &wo.StartedAt,
		&wo.CompletedAt, &wo.InvoiceID, &wo.CreatedBy, &wo.CreatedAt, &wo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &wo, nil
}
