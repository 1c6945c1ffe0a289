package quotes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldline-crm/fieldline-crm/internal/crm/contacts"
	"github.com/fieldline-crm/fieldline-crm/internal/fieldops/money"
	"github.com/fieldline-crm/fieldline-crm/internal/mailer"
	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

var (
	ErrInvalidTransition = errors.New("invalid quote status transition")
	ErrNotEditable       = errors.New("only draft quotes can be edited")
	ErrInvalidLine       = errors.New("quote line needs a positive quantity and non-negative price")
	ErrNoRecipient       = errors.New("contact has no email address")
)

// ContactDirectory resolves the contact a quote is addressed to.
type ContactDirectory interface {
	Get(ctx context.Context, id int64) (*contacts.Contact, error)
}

// MailEnqueuer hands outbound document email to the background queue.
type MailEnqueuer interface {
	EnqueueMail(ctx context.Context, out mailer.Outbound) error
}

type Service struct {
	repo     Repository
	contacts ContactDirectory
	mail     MailEnqueuer
	audit    *shared.AuditLogger
}

func NewService(repo Repository, contacts ContactDirectory, mail MailEnqueuer, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, contacts: contacts, mail: mail, audit: audit}
}

func (s *Service) Create(ctx context.Context, req CreateQuoteRequest, createdBy int64) (*Quote, error) {
	if _, err := s.contacts.Get(ctx, req.ContactID); err != nil {
		return nil, fmt.Errorf("resolve quote contact: %w", err)
	}

	lines, subtotal, err := buildLines(req.Lines)
	if err != nil {
		return nil, err
	}
	taxAmount := money.Tax(subtotal, req.TaxRate)

	number, err := s.repo.NextNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate quote number: %w", err)
	}

	quote := Quote{
		Number:     number,
		ContactID:  req.ContactID,
		AccountID:  req.AccountID,
		Title:      req.Title,
		Status:     StatusDraft,
		Notes:      req.Notes,
		TaxRate:    req.TaxRate,
		Subtotal:   subtotal,
		TaxAmount:  taxAmount,
		Total:      subtotal.Add(taxAmount),
		ValidUntil: req.ValidUntil,
		CreatedBy:  createdBy,
		Lines:      lines,
	}

	id, err := s.repo.Create(ctx, quote)
	if err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}

	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  createdBy,
		Action:   "quote.created",
		Entity:   "quote",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"number": number, "total": quote.Total.StringFixed(2)},
	})
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateQuoteRequest, actorID int64) (*Quote, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusDraft {
		return nil, ErrNotEditable
	}

	if req.Title != nil {
		existing.Title = *req.Title
	}
	if req.Notes != nil {
		existing.Notes = req.Notes
	}
	if req.TaxRate != nil {
		existing.TaxRate = *req.TaxRate
	}
	if req.ValidUntil != nil {
		existing.ValidUntil = req.ValidUntil
	}
	if req.Lines != nil {
		lines, subtotal, err := buildLines(req.Lines)
		if err != nil {
			return nil, err
		}
		existing.Lines = lines
		existing.Subtotal = subtotal
	}
	existing.TaxAmount = money.Tax(existing.Subtotal, existing.TaxRate)
	existing.Total = existing.Subtotal.Add(existing.TaxAmount)

	if err := s.repo.ReplaceHeaderAndLines(ctx, *existing); err != nil {
		return nil, fmt.Errorf("update quote: %w", err)
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "quote.updated",
		Entity:   "quote",
		EntityID: strconv.FormatInt(id, 10),
	})
	return s.repo.Get(ctx, id)
}

// Send emails the quote to its contact and moves a draft to sent. Re-sending
// an already-sent quote is allowed and does not change status.
func (s *Service) Send(ctx context.Context, id int64, actorID int64) (*Quote, error) {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != StatusDraft && quote.Status != StatusSent {
		return nil, ErrInvalidTransition
	}

	contact, err := s.contacts.Get(ctx, quote.ContactID)
	if err != nil {
		return nil, fmt.Errorf("resolve quote contact: %w", err)
	}
	if contact.Email == nil || *contact.Email == "" {
		return nil, ErrNoRecipient
	}

	out := mailer.Outbound{
		DocumentType: "quote",
		DocumentID:   quote.ID,
		To:           *contact.Email,
		Subject:      fmt.Sprintf("Quote %s — %s", quote.Number, quote.Title),
		HTML: fmt.Sprintf("<p>Hi %s,</p><p>Your quote %s for %s comes to a total of %s.</p>",
			contact.FirstName, quote.Number, quote.Title, quote.Total.StringFixed(2)),
	}
	if err := s.mail.EnqueueMail(ctx, out); err != nil {
		return nil, fmt.Errorf("enqueue quote email: %w", err)
	}

	if quote.Status == StatusDraft {
		if err := s.repo.UpdateStatus(ctx, id, StatusSent, "sent_at", time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("mark quote sent: %w", err)
		}
	}

	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "quote.sent",
		Entity:   "quote",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"recipient": *contact.Email},
	})
	return s.repo.Get(ctx, id)
}

func (s *Service) Accept(ctx context.Context, id int64, actorID int64) (*Quote, error) {
	return s.decide(ctx, id, StatusAccepted, "quote.accepted", actorID)
}

func (s *Service) Decline(ctx context.Context, id int64, actorID int64) (*Quote, error) {
	return s.decide(ctx, id, StatusDeclined, "quote.declined", actorID)
}

func (s *Service) decide(ctx context.Context, id int64, status, action string, actorID int64) (*Quote, error) {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != StatusSent {
		return nil, ErrInvalidTransition
	}
	if err := s.repo.UpdateStatus(ctx, id, status, "decided_at", time.Now().UTC()); err != nil {
		return nil, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "quote",
		EntityID: strconv.FormatInt(id, 10),
	})
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Quote, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if quote.Status != StatusDraft {
		return ErrNotEditable
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "quote.deleted",
		Entity:   "quote",
		EntityID: strconv.FormatInt(id, 10),
	})
	return nil
}

func buildLines(inputs []LineInput) ([]Line, decimal.Decimal, error) {
	lines := make([]Line, 0, len(inputs))
	subtotal := decimal.Zero
	for i, in := range inputs {
		if !in.Quantity.IsPositive() || in.UnitPrice.IsNegative() {
			return nil, decimal.Zero, fmt.Errorf("%w: line %d", ErrInvalidLine, i+1)
		}
		amount := money.Line(in.Quantity, in.UnitPrice)
		lines = append(lines, Line{
			Position:    i + 1,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Amount:      amount,
		})
		subtotal = subtotal.Add(amount)
	}
	return lines, subtotal, nil
}
