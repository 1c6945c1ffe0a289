package leads

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fieldline-crm/fieldline-crm/internal/crm/accounts"
	"github.com/fieldline-crm/fieldline-crm/internal/crm/contacts"
	"github.com/fieldline-crm/fieldline-crm/internal/shared"
)

var (
	ErrAlreadyConverted = errors.New("lead already converted")
	ErrUnknownStatus    = errors.New("unknown lead status")
)

// ContactCreator is the slice of the contacts service conversion needs.
type ContactCreator interface {
	Create(ctx context.Context, req contacts.CreateContactRequest, createdBy int64) (*contacts.Contact, error)
}

// AccountResolver is the slice of the accounts service conversion needs.
type AccountResolver interface {
	FindOrCreate(ctx context.Context, name string, createdBy int64) (*accounts.Account, error)
}

type Service struct {
	repo            Repository
	contactCreator  ContactCreator
	accountResolver AccountResolver
	audit           *shared.AuditLogger
}

func NewService(repo Repository, contactCreator ContactCreator, accountResolver AccountResolver, audit *shared.AuditLogger) *Service {
	return &Service{
		repo:            repo,
		contactCreator:  contactCreator,
		accountResolver: accountResolver,
		audit:           audit,
	}
}

func (s *Service) Create(ctx context.Context, req CreateLeadRequest, createdBy int64) (*Lead, error) {
	lead := Lead{
		Name:      req.Name,
		Company:   req.Company,
		Email:     req.Email,
		Phone:     req.Phone,
		Source:    req.Source,
		Status:    StatusNew,
		Notes:     req.Notes,
		CreatedBy: createdBy,
	}

	id, err := s.repo.Create(ctx, lead)
	if err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}
	lead.ID = id

	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  createdBy,
		Action:   "lead.created",
		Entity:   "lead",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"name": lead.Name},
	})
	return &lead, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateLeadRequest, actorID int64) (*Lead, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == StatusConverted {
		// Converted leads are frozen; the contact is the live record now.
		return nil, ErrAlreadyConverted
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Company != nil {
		updates["company"] = *req.Company
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Source != nil {
		updates["source"] = *req.Source
	}
	if req.Status != nil {
		if !KnownStatus(*req.Status) || *req.Status == StatusConverted {
			return nil, ErrUnknownStatus
		}
		updates["status"] = *req.Status
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) == 0 {
		return existing, nil
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update lead: %w", err)
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "lead.updated",
		Entity:   "lead",
		EntityID: strconv.FormatInt(id, 10),
	})
	return s.repo.Get(ctx, id)
}

// Convert turns a lead into a contact, creating or reusing an account when
// the lead carries a company name. The lead is frozen as converted and keeps
// a pointer to the produced contact.
func (s *Service) Convert(ctx context.Context, id int64, actorID int64) (*ConvertResult, error) {
	lead, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead.Status == StatusConverted {
		return nil, ErrAlreadyConverted
	}

	var accountID *int64
	if lead.Company != nil && strings.TrimSpace(*lead.Company) != "" {
		account, err := s.accountResolver.FindOrCreate(ctx, strings.TrimSpace(*lead.Company), actorID)
		if err != nil {
			return nil, fmt.Errorf("resolve account for lead %d: %w", id, err)
		}
		accountID = &account.ID
	}

	firstName, lastName := splitName(lead.Name)
	contact, err := s.contactCreator.Create(ctx, contacts.CreateContactRequest{
		FirstName: firstName,
		LastName:  lastName,
		Email:     lead.Email,
		Phone:     lead.Phone,
		AccountID: accountID,
		Notes:     lead.Notes,
	}, actorID)
	if err != nil {
		return nil, fmt.Errorf("create contact for lead %d: %w", id, err)
	}

	if err := s.repo.MarkConverted(ctx, id, contact.ID); err != nil {
		return nil, fmt.Errorf("mark lead converted: %w", err)
	}

	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "lead.converted",
		Entity:   "lead",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"contact_id": contact.ID},
	})

	converted, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ConvertResult{Lead: converted, ContactID: contact.ID, AccountID: accountID}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Lead, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListLeadsRequest) ([]Lead, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "lead.deleted",
		Entity:   "lead",
		EntityID: strconv.FormatInt(id, 10),
	})
	return nil
}

func splitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if idx := strings.Index(full, " "); idx > 0 {
		return full[:idx], strings.TrimSpace(full[idx+1:])
	}
	return full, ""
}
