package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

// StatusPatch describes a single status transition applied to a history row.
type StatusPatch struct {
	Status       string
	StampColumn  string
	At           time.Time
	ErrorMessage *string
}

// stampColumns is the closed set of timestamp columns a patch may touch.
var stampColumns = map[string]struct{}{
	"delivered_at":  {},
	"opened_at":     {},
	"clicked_at":    {},
	"bounced_at":    {},
	"complained_at": {},
	"delayed_at":    {},
}

// Repository defines persistence for email history records.
type Repository interface {
	Insert(ctx context.Context, h History) (int64, error)
	FindByProviderEmailID(ctx context.Context, providerEmailID string) (*History, error)
	ApplyPatch(ctx context.Context, id int64, patch StatusPatch) error
	ListForDocument(ctx context.Context, documentType string, documentID int64) ([]History, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert creates a history record for a freshly dispatched email.
func (r *PGRepository) Insert(ctx context.Context, h History) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO email_history (document_type, document_id, recipient, subject, provider_email_id, status, sent_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id`,
		h.DocumentType, h.DocumentID, h.Recipient, h.Subject, h.ProviderEmailID, h.Status, h.SentAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("mailer: insert history: %w", err)
	}
	return id, nil
}

const historyColumns = `id, document_type, document_id, recipient, subject, provider_email_id, status,
	error_message, sent_at, delivered_at, opened_at, clicked_at, bounced_at, complained_at, delayed_at,
	created_at, updated_at`

// FindByProviderEmailID returns the first record matching the provider id.
// The id is expected to be unique; first-match is a documented assumption,
// not an enforced invariant.
func (r *PGRepository) FindByProviderEmailID(ctx context.Context, providerEmailID string) (*History, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+historyColumns+` FROM email_history WHERE provider_email_id = $1 ORDER BY id LIMIT 1`,
		providerEmailID)
	h, err := scanHistory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

// ApplyPatch updates status, stamps the transition timestamp and optionally
// records an error message. The single UPDATE relies on the store's
// per-record atomicity; no cross-event ordering is enforced.
func (r *PGRepository) ApplyPatch(ctx context.Context, id int64, patch StatusPatch) error {
	if _, ok := stampColumns[patch.StampColumn]; !ok {
		return fmt.Errorf("mailer: invalid stamp column %q", patch.StampColumn)
	}
	query := fmt.Sprintf(
		`UPDATE email_history SET status = $1, %s = $2, error_message = COALESCE($3, error_message), updated_at = NOW() WHERE id = $4`,
		patch.StampColumn)
	_, err := r.pool.Exec(ctx, query, patch.Status, patch.At, patch.ErrorMessage, id)
	if err != nil {
		return fmt.Errorf("mailer: apply patch: %w", err)
	}
	return nil
}

// ListForDocument returns history records for one owning document.
func (r *PGRepository) ListForDocument(ctx context.Context, documentType string, documentID int64) ([]History, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+historyColumns+` FROM email_history WHERE document_type = $1 AND document_id = $2 ORDER BY id DESC`,
		documentType, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []History
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

func scanHistory(row pgx.Row) (*History, error) {
	var h History
	err := row.Scan(
		&h.ID, &h.DocumentType, &h.DocumentID, &h.Recipient, &h.Subject, &h.ProviderEmailID, &h.Status,
		&h.ErrorMessage, &h.SentAt, &h.DeliveredAt, &h.OpenedAt, &h.ClickedAt, &h.BouncedAt, &h.ComplainedAt, &h.DelayedAt,
		&h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

var _ Repository = (*PGRepository)(nil)
