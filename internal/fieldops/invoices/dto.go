package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineInput is a billed item supplied by the client.
type LineInput struct {
	Description string          `json:"description" validate:"required,max=300"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type CreateInvoiceRequest struct {
	ContactID   int64           `json:"contact_id" validate:"required,gt=0"`
	AccountID   *int64          `json:"account_id,omitempty" validate:"omitempty,gt=0"`
	WorkOrderID *int64          `json:"work_order_id,omitempty" validate:"omitempty,gt=0"`
	Title       string          `json:"title" validate:"required,max=200"`
	Notes       *string         `json:"notes,omitempty"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	DueAt       *time.Time      `json:"due_at,omitempty"`
	Lines       []LineInput     `json:"lines,omitempty" validate:"omitempty,dive"`
}

type UpdateInvoiceRequest struct {
	Title   *string          `json:"title,omitempty" validate:"omitempty,max=200"`
	Notes   *string          `json:"notes,omitempty"`
	TaxRate *decimal.Decimal `json:"tax_rate,omitempty"`
	DueAt   *time.Time       `json:"due_at,omitempty"`
	Lines   []LineInput      `json:"lines,omitempty" validate:"omitempty,dive"`
}

type ListInvoicesRequest struct {
	Status    *string `json:"status,omitempty"`
	ContactID *int64  `json:"contact_id,omitempty"`
	Search    *string `json:"search,omitempty"`
	Limit     int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int     `json:"offset" validate:"gte=0"`
}
