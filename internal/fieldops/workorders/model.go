package workorders

import "time"

// Work order statuses.
const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// WorkOrder is a scheduled field job, optionally born from an accepted quote.
type WorkOrder struct {
	ID           int64      `json:"id"`
	Number       string     `json:"number"`
	ContactID    int64      `json:"contact_id"`
	AccountID    *int64     `json:"account_id,omitempty"`
	QuoteID      *int64     `json:"quote_id,omitempty"`
	TechnicianID *int64     `json:"technician_id,omitempty"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	Status       string     `json:"status"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	InvoiceID    *int64     `json:"invoice_id,omitempty"`
	CreatedBy    int64      `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
