package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldline-crm/fieldline-crm/internal/fieldops/money"
	"github.com/fieldline-crm/fieldline-crm/internal/platform/db"
)

var ErrNotFound = errors.New("quote not found")

type Repository interface {
	Get(ctx context.Context, id int64) (*Quote, error)
	List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error)
	Create(ctx context.Context, quote Quote) (int64, error)
	ReplaceHeaderAndLines(ctx context.Context, quote Quote) error
	UpdateStatus(ctx context.Context, id int64, status string, stamp string, at time.Time) error
	NextNumber(ctx context.Context) (string, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const quoteColumns = `id, number, contact_id, account_id, title, status, notes,
       tax_rate::text, subtotal::text, tax_amount::text, total::text,
       valid_until, sent_at, decided_at, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Quote, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM quotes WHERE id = $1", quoteColumns), id)
	q, err := scanQuote(row)
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
	q.Lines = lines
	return q, nil
}

func (r *repository) lines(ctx context.Context, quoteID int64) ([]Line, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, quote_id, position, description, quantity::text, unit_price::text, amount::text
		FROM quote_lines WHERE quote_id = $1 ORDER BY position`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		var qty, unit, amount string
		if err := rows.Scan(&l.ID, &l.QuoteID, &l.Position, &l.Description, &qty, &unit, &amount); err != nil {
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

func (r *repository) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
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
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM quotes %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM quotes %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		quoteColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, 0, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, quote Quote) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO quotes (number, contact_id, account_id, title, status, notes,
				tax_rate, subtotal, tax_amount, total, valid_until, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id`,
			quote.Number, quote.ContactID, quote.AccountID, quote.Title, quote.Status,
			quote.Notes, quote.TaxRate.String(), quote.Subtotal.String(),
			quote.TaxAmount.String(), quote.Total.String(), quote.ValidUntil, quote.CreatedBy,
		).Scan(&id)
		if err != nil {
			return err
		}
		return insertLines(ctx, tx, id, quote.Lines)
	})
	return id, err
}

func (r *repository) ReplaceHeaderAndLines(ctx context.Context, quote Quote) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE quotes
			SET title = $1, notes = $2, tax_rate = $3, subtotal = $4,
			    tax_amount = $5, total = $6, valid_until = $7, updated_at = NOW()
			WHERE id = $8`,
			quote.Title, quote.Notes, quote.TaxRate.String(), quote.Subtotal.String(),
			quote.TaxAmount.String(), quote.Total.String(), quote.ValidUntil, quote.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, "DELETE FROM quote_lines WHERE quote_id = $1", quote.ID); err != nil {
			return err
		}
		return insertLines(ctx, tx, quote.ID, quote.Lines)
	})
}

func insertLines(ctx context.Context, tx pgx.Tx, quoteID int64, lines []Line) error {
	for i, line := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO quote_lines (quote_id, position, description, quantity, unit_price, amount)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			quoteID, i+1, line.Description, line.Quantity.String(),
			line.UnitPrice.String(), line.Amount.String())
		if err != nil {
			return err
		}
	}
	return nil
}

// UpdateStatus sets the status and optionally stamps a timestamp column
// (sent_at or decided_at).
func (r *repository) UpdateStatus(ctx context.Context, id int64, status string, stamp string, at time.Time) error {
	query := "UPDATE quotes SET status = $1, updated_at = NOW()"
	args := []interface{}{status}
	switch stamp {
	case "sent_at":
		query += ", sent_at = $2 WHERE id = $3"
		args = append(args, at, id)
	case "decided_at":
		query += ", decided_at = $2 WHERE id = $3"
		args = append(args, at, id)
	case "":
		query += " WHERE id = $2"
		args = append(args, id)
	default:
		return fmt.Errorf("quotes: unknown stamp column %q", stamp)
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

func (r *repository) NextNumber(ctx context.Context) (string, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM quotes").Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("Q-%05d", count+1), nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM quotes WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	var taxRate, subtotal, taxAmount, total string
	err := row.Scan(
		&q.ID, &q.Number, &q.ContactID, &q.AccountID, &q.Title, &q.Status, &q.Notes,
		&taxRate, &subtotal, &taxAmount, &total,
		&q.ValidUntil, &q.SentAt, &q.DecidedAt, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if q.TaxRate, err = money.FromText(taxRate); err != nil {
		return nil, err
	}
	if q.Subtotal, err = money.FromText(subtotal); err != nil {
		return nil, err
	}
	if q.TaxAmount, err = money.FromText(taxAmount); err != nil {
		return nil, err
	}
	if q.Total, err = money.FromText(total); err != nil {
		return nil, err
	}
	return &q, nil
}
