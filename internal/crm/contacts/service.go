package contacts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) Create(ctx context.Context, req CreateContactRequest, createdBy int64) (*Contact, error) {
	contact := Contact{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Title:     req.Title,
		AccountID: req.AccountID,
		Notes:     req.Notes,
		CreatedBy: createdBy,
	}

	id, err := s.repo.Create(ctx, contact)
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	contact.ID = id

	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  createdBy,
		Action:   "contact.created",
		Entity:   "contact",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"name": contact.FullName()},
	})
	return &contact, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateContactRequest, actorID int64) (*Contact, error) {
	updates := make(map[string]interface{})
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.AccountID != nil {
		updates["account_id"] = *req.AccountID
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update contact: %w", err)
		}
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "contact.updated",
			Entity:   "contact",
			EntityID: strconv.FormatInt(id, 10),
		})
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Contact, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListContactsRequest) ([]Contact, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "contact.deleted",
		Entity:   "contact",
		EntityID: strconv.FormatInt(id, 10),
	})
	return nil
}
