package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fieldline-crm/fieldline-crm/internal/dashboard"
	"github.com/fieldline-crm/fieldline-crm/internal/fieldops/invoices"
	jobmetrics "github.com/fieldline-crm/fieldline-crm/internal/jobs"
	"github.com/fieldline-crm/fieldline-crm/internal/mailer"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendMail dispatches one outbound email.
	TaskTypeSendMail = "mail:send"
	// TaskTypeMarkOverdue sweeps sent invoices past their due date.
	TaskTypeMarkOverdue = "invoices:mark_overdue"
	// TaskTypeDashboardWarmup recomputes the dashboard cache.
	TaskTypeDashboardWarmup = "dashboard:warmup"
)

// SendMailPayload carries an outbound email through the queue.
type SendMailPayload struct {
	DocumentType string `json:"document_type"`
	DocumentID   int64  `json:"document_id"`
	To           string `json:"to"`
	Subject      string `json:"subject"`
	HTML         string `json:"html"`
}

// NewSendMailTask constructs the queue task for an outbound email.
func NewSendMailTask(out mailer.Outbound) (*asynq.Task, error) {
	data, err := json.Marshal(SendMailPayload{
		DocumentType: out.DocumentType,
		DocumentID:   out.DocumentID,
		To:           out.To,
		Subject:      out.Subject,
		HTML:         out.HTML,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendMail, data), nil
}

// NewMarkOverdueTask constructs the nightly overdue sweep task.
func NewMarkOverdueTask() *asynq.Task {
	return asynq.NewTask(TaskTypeMarkOverdue, nil)
}

// NewDashboardWarmupTask constructs the dashboard cache warmup task.
func NewDashboardWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeDashboardWarmup, nil)
}

// NewSendMailHandler processes mail:send tasks through the mailer service.
func NewSendMailHandler(svc *mailer.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskTypeSendMail)
		var payload SendMailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Error("send mail payload", slog.Any("error", err))
			_ = tracker.End(err)
			return asynq.SkipRetry
		}
		history, err := svc.Dispatch(ctx, mailer.Outbound{
			DocumentType: payload.DocumentType,
			DocumentID:   payload.DocumentID,
			To:           payload.To,
			Subject:      payload.Subject,
			HTML:         payload.HTML,
		})
		if err != nil {
			logger.Error("send mail", slog.Any("error", err), slog.String("to", payload.To))
			return tracker.End(err)
		}
		logger.Info("mail dispatched",
			slog.String("to", payload.To),
			slog.String("provider_email_id", history.ProviderEmailID))
		return tracker.End(nil)
	}
}

// NewMarkOverdueHandler sweeps sent invoices whose due date has passed.
func NewMarkOverdueHandler(svc *invoices.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskTypeMarkOverdue)
		start := time.Now()
		swept, err := svc.SweepOverdue(ctx)
		if err != nil {
			logger.Error("mark overdue", slog.Any("error", err))
			return tracker.End(err)
		}
		logger.Info("overdue sweep complete",
			slog.Int64("swept", swept),
			slog.Duration("took", time.Since(start)))
		return tracker.End(nil)
	}
}

// NewDashboardWarmupHandler refreshes the dashboard aggregate cache.
func NewDashboardWarmupHandler(svc *dashboard.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskTypeDashboardWarmup)
		if err := svc.Warm(ctx); err != nil {
			logger.Error("dashboard warmup", slog.Any("error", err))
			return tracker.End(err)
		}
		return tracker.End(nil)
	}
}
