package accounts

import (
	"context"
	"errors"
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

func (s *Service) Create(ctx context.Context, req CreateAccountRequest, createdBy int64) (*Account, error) {
	account := Account{
		Name:         req.Name,
		Industry:     req.Industry,
		Website:      req.Website,
		Phone:        req.Phone,
		Email:        req.Email,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Notes:        req.Notes,
		CreatedBy:    createdBy,
	}

	id, err := s.repo.Create(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	account.ID = id

	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  createdBy,
		Action:   "account.created",
		Entity:   "account",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"name": account.Name},
	})
	return &account, nil
}

// FindOrCreate reuses an account matching the name (case-insensitive) or
// creates a bare one. Used when converting leads that carry a company name.
func (s *Service) FindOrCreate(ctx context.Context, name string, createdBy int64) (*Account, error) {
	existing, err := s.repo.FindByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("find account by name: %w", err)
	}
	return s.Create(ctx, CreateAccountRequest{Name: name}, createdBy)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateAccountRequest, actorID int64) (*Account, error) {
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Industry != nil {
		updates["industry"] = *req.Industry
	}
	if req.Website != nil {
		updates["website"] = *req.Website
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.AddressLine1 != nil {
		updates["address_line1"] = *req.AddressLine1
	}
	if req.AddressLine2 != nil {
		updates["address_line2"] = *req.AddressLine2
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.State != nil {
		updates["state"] = *req.State
	}
	if req.PostalCode != nil {
		updates["postal_code"] = *req.PostalCode
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update account: %w", err)
		}
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "account.updated",
			Entity:   "account",
			EntityID: strconv.FormatInt(id, 10),
		})
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Account, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListAccountsRequest) ([]Account, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "account.deleted",
		Entity:   "account",
		EntityID: strconv.FormatInt(id, 10),
	})
	return nil
}
