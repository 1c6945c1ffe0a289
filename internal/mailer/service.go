package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service dispatches outbound email and records its history.
type Service struct {
	driver Driver
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(driver Driver, repo Repository, logger *slog.Logger) *Service {
	return &Service{driver: driver, repo: repo, logger: logger}
}

// Dispatch sends the email and records a history row in the "sent" state.
func (s *Service) Dispatch(ctx context.Context, out Outbound) (*History, error) {
	providerID, err := s.driver.Send(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("mailer: dispatch: %w", err)
	}

	h := History{
		DocumentType:    out.DocumentType,
		DocumentID:      out.DocumentID,
		Recipient:       out.To,
		Subject:         out.Subject,
		ProviderEmailID: providerID,
		Status:          StatusSent,
		SentAt:          time.Now().UTC(),
	}
	id, err := s.repo.Insert(ctx, h)
	if err != nil {
		// The email is already on its way; surfacing a history write failure
		// would make the job queue retry the task and send the message twice.
		s.logger.Error("record email history", slog.Any("error", err), slog.String("provider_email_id", providerID))
		return &h, nil
	}
	h.ID = id
	return &h, nil
}

// HistoryForDocument lists dispatch history for one owning document.
func (s *Service) HistoryForDocument(ctx context.Context, documentType string, documentID int64) ([]History, error) {
	return s.repo.ListForDocument(ctx, documentType, documentID)
}
