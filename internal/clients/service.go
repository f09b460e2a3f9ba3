package clients

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/meridianhq/meridian/internal/authz"
	"github.com/meridianhq/meridian/internal/shared"
)

// Service wraps client business rules.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) Create(ctx context.Context, actor authz.Context, req CreateClientRequest) (*Client, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByCode(ctx, actor.TenantID, req.Code)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing client: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: client code already exists", ErrAlreadyExists)
	}

	client := Client{
		TenantID:  actor.TenantID,
		Code:      req.Code,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Country:   req.Country,
		Status:    StatusActive,
		Notes:     req.Notes,
		CreatedBy: actor.UserID,
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		id, err = repo.Create(ctx, client)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	client.ID = id

	s.recordAudit(ctx, actor, "client.create", id, map[string]any{"code": client.Code})
	return &client, nil
}

func (s *Service) Update(ctx context.Context, actor authz.Context, id int64, req UpdateClientRequest) (*Client, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if err := authz.RequireTenant(actor.TenantID, existing.TenantID); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Country != nil {
		updates["country"] = *req.Country
	}
	if req.ManagerID != nil {
		updates["manager_id"] = *req.ManagerID
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) == 0 {
		return existing, nil
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Update(ctx, actor.TenantID, id, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}

	s.recordAudit(ctx, actor, "client.update", id, nil)
	return s.repo.Get(ctx, actor.TenantID, id)
}

func (s *Service) Archive(ctx context.Context, actor authz.Context, id int64) error {
	existing, err := s.repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return fmt.Errorf("get client: %w", err)
	}
	if err := authz.RequireTenant(actor.TenantID, existing.TenantID); err != nil {
		return err
	}
	if err := s.repo.Archive(ctx, actor.TenantID, id); err != nil {
		return fmt.Errorf("archive client: %w", err)
	}
	s.recordAudit(ctx, actor, "client.archive", id, nil)
	return nil
}

func (s *Service) Get(ctx context.Context, actor authz.Context, id int64) (*Client, error) {
	client, err := s.repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireTenant(actor.TenantID, client.TenantID); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *Service) List(ctx context.Context, actor authz.Context, req ListClientsRequest) ([]Client, int, error) {
	req.TenantID = actor.TenantID
	if err := shared.ValidateStruct(req); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, req)
}

func (s *Service) recordAudit(ctx context.Context, actor authz.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: actor.TenantID,
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "client",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
