// Package mailer dispatches outbound email and tracks each message's delivery
// lifecycle as reported back by the provider's webhooks.
package mailer

import "time"

// Email lifecycle statuses. The set mirrors the provider's event taxonomy and
// is not a strict linear order: events may arrive out of order and each one
// overwrites the current status (last write wins).
const (
	StatusSent       = "sent"
	StatusDelivered  = "delivered"
	StatusOpened     = "opened"
	StatusClicked    = "clicked"
	StatusBounced    = "bounced"
	StatusComplained = "complained"
	StatusDelayed    = "delayed"
)

// History represents one outbound email and its delivery lifecycle. The
// record is created when the email is dispatched and mutated in place as
// verified webhook events arrive.
type History struct {
	ID              int64      `json:"id"`
	DocumentType    string     `json:"document_type"`
	DocumentID      int64      `json:"document_id"`
	Recipient       string     `json:"recipient"`
	Subject         string     `json:"subject"`
	ProviderEmailID string     `json:"provider_email_id"`
	Status          string     `json:"status"`
	ErrorMessage    *string    `json:"error_message,omitempty"`
	SentAt          time.Time  `json:"sent_at"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`
	OpenedAt        *time.Time `json:"opened_at,omitempty"`
	ClickedAt       *time.Time `json:"clicked_at,omitempty"`
	BouncedAt       *time.Time `json:"bounced_at,omitempty"`
	ComplainedAt    *time.Time `json:"complained_at,omitempty"`
	DelayedAt       *time.Time `json:"delayed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Outbound describes an email to dispatch.
type Outbound struct {
	DocumentType string
	DocumentID   int64
	To           string
	Subject      string
	HTML         string
}
