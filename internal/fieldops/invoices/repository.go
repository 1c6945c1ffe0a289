package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fieldline-crm/fieldline-crm/internal/fieldops/money"
	"github.com/fieldline-crm/fieldline-crm/internal/platform/db"
)

var ErrNotFound = errors.New("invoice not found")

type Repository interface {
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
	Create(ctx context.Context, invoice Invoice) (int64, error)
	ReplaceHeaderAndLines(ctx context.Context, invoice Invoice) error
	UpdateStatus(ctx context.Context, id int64, status string, stamp string, at time.Time) error
	SetDueAt(ctx context.Context, id int64, dueAt time.Time) error
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
	SumOutstanding(ctx context.Context) (decimal.Decimal, error)
	NextNumber(ctx context.Context) (string, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const invoiceColumns = `id, number, contact_id, account_id, work_order_id, title, status, notes,
       tax_rate::text, subtotal::text, tax_amount::text, total::text,
       issued_at, due_at, paid_at, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM invoices WHERE id = $1", invoiceColumns), id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lines, err := r.lines(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Lines = lines
	return inv, nil
}

func (r *repository) lines(ctx context.Context, invoiceID int64) ([]Line, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, position, description, quantity::text, unit_price::text, amount::text
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY position`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		var qty, unit, amount string
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Position, &l.Description, &qty, &unit, &amount); err != nil {
			return nil, err
		}
		if l.Quantity, err = money.FromText(qty); err != nil {
			return nil, err
		}
		if l.UnitPrice, err = money.FromText(unit); err != nil {
			return nil, err
		}
		if l.Amount, err = money.FromText(amount); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Status != nil && *req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.ContactID != nil {
		conditions = append(conditions, fmt.Sprintf("contact_id = $%d", argPos))
		args = append(args, *req.ContactID)
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
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM invoices %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM invoices %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		invoiceColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, invoice Invoice) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO invoices (number, contact_id, account_id, work_order_id, title,
				status, notes, tax_rate, subtotal, tax_amount, total, due_at, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id`,
			invoice.Number, invoice.ContactID, invoice.AccountID, invoice.WorkOrderID,
			invoice.Title, invoice.Status, invoice.Notes, invoice.TaxRate.String(),
			invoice.Subtotal.String(), invoice.TaxAmount.String(), invoice.Total.String(),
			invoice.DueAt, invoice.CreatedBy,
		).Scan(&id)
		if err != nil {
			return err
		}
		return insertLines(ctx, tx, id, invoice.Lines)
	})
	return id, err
}

func (r *repository) ReplaceHeaderAndLines(ctx context.Context, invoice Invoice) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE invoices
			SET title = $1, notes = $2, tax_rate = $3, subtotal = $4,
			    tax_amount = $5, total = $6, due_at = $7, updated_at = NOW()
			WHERE id = $8`,
			invoice.Title, invoice.Notes, invoice.TaxRate.String(), invoice.Subtotal.String(),
			invoice.TaxAmount.String(), invoice.Total.String(), invoice.DueAt, invoice.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, "DELETE FROM invoice_lines WHERE invoice_id = $1", invoice.ID); err != nil {
			return err
		}
		return insertLines(ctx, tx, invoice.ID, invoice.Lines)
	})
}

func insertLines(ctx context.Context, tx pgx.Tx, invoiceID int64, lines []Line) error {
	for i, line := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO invoice_lines (invoice_id, position, description, quantity, unit_price, amount)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			invoiceID, i+1, line.Description, line.Quantity.String(),
			line.UnitPrice.String(), line.Amount.String())
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status string, stamp string, at time.Time) error {
	query := "UPDATE invoices SET status = $1, updated_at = NOW()"
	args := []interface{}{status}
	switch stamp {
	case "issued_at":
		query += ", issued_at = $2 WHERE id = $3"
		args = append(args, at, id)
	case "paid_at":
		query += ", paid_at = $2 WHERE id = $3"
		args = append(args, at, id)
	case "":
		query += " WHERE id = $2"
		args = append(args, id)
	default:
		return fmt.Errorf("invoices: unknown stamp column %q", stamp)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SetDueAt(ctx context.Context, id int64, dueAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE invoices SET due_at = $1, updated_at = NOW() WHERE id = $2", dueAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkOverdue sweeps sent invoices whose due date has passed.
func (r *repository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND due_at IS NOT NULL AND due_at < $3`,
		StatusOverdue, StatusSent, asOf)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) SumOutstanding(ctx context.Context) (decimal.Decimal, error) {
	var sum string
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0)::text FROM invoices WHERE status IN ($1, $2)`,
		StatusSent, StatusOverdue).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return money.FromText(sum)
}

func (r *repository) NextNumber(ctx context.Context) (string, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM invoices").Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%05d", count+1), nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM invoices WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var taxRate, subtotal, taxAmount, total string
	err := row.Scan(
		&inv.ID, &inv.Number, &inv.ContactID, &inv.AccountID, &inv.WorkOrderID,
		&inv.Title, &inv.Status, &inv.Notes,
		&taxRate, &subtotal, &taxAmount, &total,
		&inv.IssuedAt, &inv.DueAt, &inv.PaidAt, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if inv.TaxRate, err = money.FromText(taxRate); err != nil {
		return nil, err
	}
	if inv.Subtotal, err = money.FromText(subtotal); err != nil {
		return nil, err
	}
	if inv.TaxAmount, err = money.FromText(taxAmount); err != nil {
		return nil, err
	}
	if inv.Total, err = money.FromText(total); err != nil {
		return nil, err
	}
	return &inv, nil
}
