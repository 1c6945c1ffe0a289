package workorders

import "time"

type CreateWorkOrderRequest struct {
	ContactID   int64      `json:"contact_id" validate:"required,gt=0"`
	AccountID   *int64     `json:"account_id,omitempty" validate:"omitempty,gt=0"`
	QuoteID     *int64     `json:"quote_id,omitempty" validate:"omitempty,gt=0"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description *string    `json:"description,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

type UpdateWorkOrderRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string    `json:"description,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

type AssignRequest struct {
	TechnicianID int64 `json:"technician_id" validate:"required,gt=0"`
}

// CompleteRequest controls what happens when a job is closed out.
type CompleteRequest struct {
	GenerateInvoice bool `json:"generate_invoice"`
}

type ListWorkOrdersRequest struct {
	Status       *string `json:"status,omitempty"`
	TechnicianID *int64  `json:"technician_id,omitempty"`
	Search       *string `json:"search,omitempty"`
	Limit        int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset       int     `json:"offset" validate:"gte=0"`
}
