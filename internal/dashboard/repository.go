package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fieldline-crm/fieldline-crm/internal/fieldops/money"
)

// EmailFailure is a recent delivery problem surfaced on the dashboard.
type EmailFailure struct {
	Recipient    string    `json:"recipient"`
	Subject      string    `json:"subject"`
	Status       string    `json:"status"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	At           time.Time `json:"at"`
}

type Repository interface {
	LeadCountsByStatus(ctx context.Context) (map[string]int, error)
	CountOpenWorkOrders(ctx context.Context) (int, error)
	OutstandingInvoiceTotal(ctx context.Context) (decimal.Decimal, error)
	RecentEmailFailures(ctx context.Context, limit int) ([]EmailFailure, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) LeadCountsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, "SELECT status, count(*) FROM leads GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *repository) CountOpenWorkOrders(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT count(*) FROM work_orders WHERE status IN ('scheduled', 'in_progress')").Scan(&count)
	return count, err
}

func (r *repository) OutstandingInvoiceTotal(ctx context.Context) (decimal.Decimal, error) {
	var sum string
	err := r.pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(total), 0)::text FROM invoices WHERE status IN ('sent', 'overdue')").Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return money.FromText(sum)
}

func (r *repository) RecentEmailFailures(ctx context.Context, limit int) ([]EmailFailure, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT recipient, subject, status, error_message, updated_at
		FROM email_history
		WHERE status IN ('bounced', 'complained')
		ORDER BY updated_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []EmailFailure
	for rows.Next() {
		var f EmailFailure
		if err := rows.Scan(&f.Recipient, &f.Subject, &f.Status, &f.ErrorMessage, &f.At); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}
