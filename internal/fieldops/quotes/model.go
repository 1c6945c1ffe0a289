package quotes

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote statuses. Draft quotes are editable; sent quotes await a customer
// decision.
const (
	StatusDraft    = "draft"
	StatusSent     = "sent"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
)

// Quote is a priced proposal sent to a contact.
type Quote struct {
	ID         int64           `json:"id"`
	Number     string          `json:"number"`
	ContactID  int64           `json:"contact_id"`
	AccountID  *int64          `json:"account_id,omitempty"`
	Title      string          `json:"title"`
	Status     string          `json:"status"`
	Notes      *string         `json:"notes,omitempty"`
	TaxRate    decimal.Decimal `json:"tax_rate"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxAmount  decimal.Decimal `json:"tax_amount"`
	Total      decimal.Decimal `json:"total"`
	ValidUntil *time.Time      `json:"valid_until,omitempty"`
	SentAt     *time.Time      `json:"sent_at,omitempty"`
	DecidedAt  *time.Time      `json:"decided_at,omitempty"`
	CreatedBy  int64           `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Lines      []Line          `json:"lines,omitempty"`
}

// Line is a single priced item on a quote.
type Line struct {
	ID          int64           `json:"id"`
	QuoteID     int64           `json:"quote_id"`
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}
