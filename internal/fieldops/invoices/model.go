package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice statuses. Sent invoices past their due date are swept to overdue by
// a background job.
const (
	StatusDraft   = "draft"
	StatusSent    = "sent"
	StatusPaid    = "paid"
	StatusOverdue = "overdue"
)

// DefaultTermsDays is the payment window applied when an invoice is sent
// without an explicit due date.
const DefaultTermsDays = 30

// Invoice bills a contact for completed work.
type Invoice struct {
	ID          int64           `json:"id"`
	Number      string          `json:"number"`
	ContactID   int64           `json:"contact_id"`
	AccountID   *int64          `json:"account_id,omitempty"`
	WorkOrderID *int64          `json:"work_order_id,omitempty"`
	Title       string          `json:"title"`
	Status      string          `json:"status"`
	Notes       *string         `json:"notes,omitempty"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Total       decimal.Decimal `json:"total"`
	IssuedAt    *time.Time      `json:"issued_at,omitempty"`
	DueAt       *time.Time      `json:"due_at,omitempty"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	CreatedBy   int64           `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Lines       []Line          `json:"lines,omitempty"`
}

// Line is a single billed item on an invoice.
type Line struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}
