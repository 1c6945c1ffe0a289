package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

// Provider webhook event types. The taxonomy is owned by the provider and may
// grow; unrecognized types must be skipped, never failed on.
const (
	EventSent       = "email.sent"
	EventDelivered  = "email.delivered"
	EventOpened     = "email.opened"
	EventClicked    = "email.clicked"
	EventBounced    = "email.bounced"
	EventComplained = "email.complained"
	EventDelayed    = "email.delivery_delayed"
)

const defaultBounceMessage = "email delivery failed"

// Event is the verified webhook envelope.
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData carries the provider payload fields this system consumes.
type EventData struct {
	EmailID string `json:"email_id"`
	Reason  string `json:"reason,omitempty"`
}

// Reducer applies verified provider events to stored history records.
type Reducer struct {
	repo   Repository
	logger *slog.Logger
}

// NewReducer constructs a Reducer.
func NewReducer(repo Repository, logger *slog.Logger) *Reducer {
	return &Reducer{repo: repo, logger: logger}
}

// Apply locates the history record matching the event's provider email id and
// applies the corresponding status transition. Lookup misses and unknown
// event types are logged no-ops: a webhook for an email this system has no
// record of is unreportable, not an error. Transitions are not validated
// against an ordering; each event overwrites status with its own value.
func (r *Reducer) Apply(ctx context.Context, evt Event) error {
	if evt.Data.EmailID == "" {
		r.logger.Warn("webhook event without email id", slog.String("type", evt.Type))
		return nil
	}

	record, err := r.repo.FindByProviderEmailID(ctx, evt.Data.EmailID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			r.logger.Info("webhook event for unknown email",
				slog.String("type", evt.Type),
				slog.String("provider_email_id", evt.Data.EmailID))
			return nil
		}
		return fmt.Errorf("mailer: lookup history: %w", err)
	}

	now := time.Now().UTC()
	var patch StatusPatch
	switch evt.Type {
	case EventSent:
		// Dispatch already recorded the sent state; nothing to advance.
		return nil
	case EventDelivered:
		patch = StatusPatch{Status: StatusDelivered, StampColumn: "delivered_at", At: now}
	case EventOpened:
		patch = StatusPatch{Status: StatusOpened, StampColumn: "opened_at", At: now}
	case EventClicked:
		patch = StatusPatch{Status: StatusClicked, StampColumn: "clicked_at", At: now}
	case EventBounced:
		reason := evt.Data.Reason
		if reason == "" {
			reason = defaultBounceMessage
		}
		patch = StatusPatch{Status: StatusBounced, StampColumn: "bounced_at", At: now, ErrorMessage: &reason}
	case EventComplained:
		patch = StatusPatch{Status: StatusComplained, StampColumn: "complained_at", At: now}
	case EventDelayed:
		patch = StatusPatch{Status: StatusDelayed, StampColumn: "delayed_at", At: now}
	default:
		r.logger.Info("skipping unrecognized webhook event type",
			slog.String("type", evt.Type),
			slog.String("provider_email_id", evt.Data.EmailID))
		return nil
	}

	if err := r.repo.ApplyPatch(ctx, record.ID, patch); err != nil {
		return fmt.Errorf("mailer: apply event %s: %w", evt.Type, err)
	}
	return nil
}
