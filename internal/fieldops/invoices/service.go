package invoices

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
	ErrInvalidTransition = errors.New("invalid invoice status transition")
	ErrNotEditable       = errors.New("only draft invoices can be edited")
	ErrInvalidLine       = errors.New("invoice line needs a positive quantity and non-negative price")
	ErrNoRecipient       = errors.New("contact has no email address")
)

// ContactDirectory resolves the contact an invoice bills.
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

func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest, createdBy int64) (*Invoice, error) {
	if _, err := s.contacts.Get(ctx, req.ContactID); err != nil {
		return nil, fmt.Errorf("resolve invoice contact: %w", err)
	}

	lines, subtotal, err := buildLines(req.Lines)
	if err != nil {
		return nil, err
	}
	taxAmount := money.Tax(subtotal, req.TaxRate)

	number, err := s.repo.NextNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate invoice number: %w", err)
	}

	invoice := Invoice{
		Number:      number,
		ContactID:   req.ContactID,
		AccountID:   req.AccountID,
		WorkOrderID: req.WorkOrderID,
		Title:       req.Title,
		Status:      StatusDraft,
		Notes:       req.Notes,
		TaxRate:     req.TaxRate,
		Subtotal:    subtotal,
		TaxAmount:   taxAmount,
		Total:       subtotal.Add(taxAmount),
		DueAt:       req.DueAt,
		CreatedBy:   createdBy,
		Lines:       lines,
	}

	id, err := s.repo.Create(ctx, invoice)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  createdBy,
		Action:   "invoice.created",
		Entity:   "invoice",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"number": number, "total": invoice.Total.StringFixed(2)},
	})
	return s.repo.Get(ctx, id)
}

// CreateDraftForJob produces an empty draft invoice for a completed work
// order. Lines are filled in before sending.
func (s *Service) CreateDraftForJob(ctx context.Context, contactID int64, accountID *int64, workOrderID int64, title string, actorID int64) (int64, error) {
	invoice, err := s.Create(ctx, CreateInvoiceRequest{
		ContactID:   contactID,
		AccountID:   accountID,
		WorkOrderID: &workOrderID,
		Title:       title,
	}, actorID)
	if err != nil {
		return 0, err
	}
	return invoice.ID, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateInvoiceRequest, actorID int64) (*Invoice, error) {
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
	if req.DueAt != nil {
		existing.DueAt = req.DueAt
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
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "invoice.updated",
		Entity:   "invoice",
		EntityID: strconv.FormatInt(id, 10),
	})
	return s.repo.Get(ctx, id)
}

// Send emails the invoice and moves a draft to sent, stamping the issue date
// and defaulting the due date to net 30 when unset.
func (s *Service) Send(ctx context.Context, id int64, actorID int64) (*Invoice, error) {
	invoice, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != StatusDraft && invoice.Status != StatusSent && invoice.Status != StatusOverdue {
		return nil, ErrInvalidTransition
	}

	contact, err := s.contacts.Get(ctx, invoice.ContactID)
	if err != nil {
		return nil, fmt.Errorf("resolve invoice contact: %w", err)
	}
	if contact.Email == nil || *contact.Email == "" {
		return nil, ErrNoRecipient
	}

	now := time.Now().UTC()
	if invoice.DueAt == nil {
		due := now.AddDate(0, 0, DefaultTermsDays)
		if err := s.repo.SetDueAt(ctx, id, due); err != nil {
			return nil, fmt.Errorf("set invoice due date: %w", err)
		}
	}

	out := mailer.Outbound{
		DocumentType: "invoice",
		DocumentID:   invoice.ID,
		To:           *contact.Email,
		Subject:      fmt.Sprintf("Invoice %s — %s", invoice.Number, invoice.Title),
		HTML: fmt.Sprintf("<p>Hi %s,</p><p>Invoice %s for %s is ready. Amount due: %s.</p>",
			contact.FirstName, invoice.Number, invoice.Title, invoice.Total.StringFixed(2)),
	}
	if err := s.mail.EnqueueMail(ctx, out); err != nil {
		return nil, fmt.Errorf("enqueue invoice email: %w", err)
	}

	if invoice.Status == StatusDraft {
		if err := s.repo.UpdateStatus(ctx, id, StatusSent, "issued_at", now); err != nil {
			return nil, fmt.Errorf("mark invoice sent: %w", err)
		}
	}

	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "invoice.sent",
		Entity:   "invoice",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"recipient": *contact.Email},
	})
	return s.repo.Get(ctx, id)
}

func (s *Service) MarkPaid(ctx context.Context, id int64, actorID int64) (*Invoice, error) {
	invoice, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != StatusSent && invoice.Status != StatusOverdue {
		return nil, ErrInvalidTransition
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusPaid, "paid_at", time.Now().UTC()); err != nil {
		return nil, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "invoice.paid",
		Entity:   "invoice",
		EntityID: strconv.FormatInt(id, 10),
	})
	return s.repo.Get(ctx, id)
}

// SweepOverdue marks past-due sent invoices overdue. Called by the scheduler.
func (s *Service) SweepOverdue(ctx context.Context) (int64, error) {
	return s.repo.MarkOverdue(ctx, time.Now().UTC())
}

// OutstandingTotal sums sent and overdue invoice totals.
func (s *Service) OutstandingTotal(ctx context.Context) (decimal.Decimal, error) {
	return s.repo.SumOutstanding(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	invoice, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if invoice.Status != StatusDraft {
		return ErrNotEditable
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "invoice.deleted",
		Entity:   "invoice",
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
