package workorders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fieldline-crm/fieldline-crm/internal/rbac"
	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

var (
	ErrInvalidTransition = errors.New("invalid work order status transition")
	ErrNotTechnician     = errors.New("assignee must hold the technician role or higher")
	ErrClosed            = errors.New("work order is closed")
)

// RoleResolver looks up the role held by a prospective assignee.
type RoleResolver interface {
	GetUserRole(ctx context.Context, userID int64) (string, error)
}

// InvoiceCreator produces a draft invoice when a job is completed.
type InvoiceCreator interface {
	CreateDraftForJob(ctx context.Context, contactID int64, accountID *int64, workOrderID int64, title string, actorID int64) (int64, error)
}

type Service struct {
	repo     Repository
	roles    RoleResolver
	invoices InvoiceCreator
	audit    *shared.AuditLogger
}

func NewService(repo Repository, roles RoleResolver, invoices InvoiceCreator, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, roles: roles, invoices: invoices, audit: audit}
}

func (s *Service) Create(ctx context.Context, req CreateWorkOrderRequest, createdBy int64) (*WorkOrder, error) {
	number, err := s.repo.NextNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate work order number: %w", err)
	}

	wo := WorkOrder{
		Number:      number,
		ContactID:   req.ContactID,
		AccountID:   req.AccountID,
		QuoteID:     req.QuoteID,
		Title:       req.Title,
		Description: req.Description,
		Status:      StatusScheduled,
		ScheduledAt: req.ScheduledAt,
		CreatedBy:   createdBy,
	}

	id, err := s.repo.Create(ctx, wo)
	if err != nil {
		return nil, fmt.Errorf("create work order: %w", err)
	}

	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  createdBy,
		Action:   "workorder.created",
		Entity:   "work_order",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"number": number},
	})
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateWorkOrderRequest, actorID int64) (*WorkOrder, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == StatusCompleted || existing.Status == StatusCancelled {
		return nil, ErrClosed
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ScheduledAt != nil {
		updates["scheduled_at"] = *req.ScheduledAt
	}

	if len(updates) == 0 {
		return existing, nil
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update work order: %w", err)
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "workorder.updated",
		Entity:   "work_order",
		EntityID: strconv.FormatInt(id, 10),
	})
	return s.repo.Get(ctx, id)
}

// Assign puts a technician on the job. The assignee must hold at least the
// technician role.
func (s *Service) Assign(ctx context.Context, id, technicianID, actorID int64) (*WorkOrder, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == StatusCompleted || existing.Status == StatusCancelled {
		return nil, ErrClosed
	}

	role, err := s.roles.GetUserRole(ctx, technicianID)
	if err != nil {
		return nil, fmt.Errorf("resolve assignee role: %w", err)
	}
	if !rbac.HasRole(role, rbac.RoleTechnician) {
		return nil, ErrNotTechnician
	}

	if err := s.repo.Update(ctx, id, map[string]interface{}{"technician_id": technicianID}); err != nil {
		return nil, fmt.Errorf("assign work order: %w", err)
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "workorder.assigned",
		Entity:   "work_order",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"technician_id": technicianID},
	})
	return s.repo.Get(ctx, id)
}

func (s *Service) Start(ctx context.Context, id, actorID int64) (*WorkOrder, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusScheduled {
		return nil, ErrInvalidTransition
	}

	now := time.Now().UTC()
	err = s.repo.Update(ctx, id, map[string]interface{}{
		"status":     StatusInProgress,
		"started_at": now,
	})
	if err != nil {
		return nil, fmt.Errorf("start work order: %w", err)
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "workorder.started",
		Entity:   "work_order",
		EntityID: strconv.FormatInt(id, 10),
	})
	return s.repo.Get(ctx, id)
}

// Complete closes out the job and optionally generates a draft invoice linked
// back to it.
func (s *Service) Complete(ctx context.Context, id int64, req CompleteRequest, actorID int64) (*WorkOrder, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusScheduled && existing.Status != StatusInProgress {
		return nil, ErrInvalidTransition
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       StatusCompleted,
		"completed_at": now,
	}

	if req.GenerateInvoice {
		invoiceID, err := s.invoices.CreateDraftForJob(ctx, existing.ContactID, existing.AccountID, id, existing.Title, actorID)
		if err != nil {
			return nil, fmt.Errorf("generate invoice for work order %d: %w", id, err)
		}
		updates["invoice_id"] = invoiceID
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("complete work order: %w", err)
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "workorder.completed",
		Entity:   "work_order",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"generated_invoice": req.GenerateInvoice},
	})
	return s.repo.Get(ctx, id)
}

func (s *Service) Cancel(ctx context.Context, id, actorID int64) (*WorkOrder, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusScheduled && existing.Status != StatusInProgress {
		return nil, ErrInvalidTransition
	}

	if err := s.repo.Update(ctx, id, map[string]interface{}{"status": StatusCancelled}); err != nil {
		return nil, fmt.Errorf("cancel work order: %w", err)
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "workorder.cancelled",
		Entity:   "work_order",
		EntityID: strconv.FormatInt(id, 10),
	})
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*WorkOrder, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error) {
	return s.repo.List(ctx, req)
}
