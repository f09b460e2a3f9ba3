package requests

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/meridianhq/meridian/internal/authz"
	"github.com/meridianhq/meridian/internal/shared"
)

type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) Create(ctx context.Context, actor authz.Context, req CreateRequestRequest) (*Request, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = PriorityNormal
	}

	request := Request{
		TenantID:  actor.TenantID,
		ClientID:  req.ClientID,
		Subject:   strings.TrimSpace(req.Subject),
		Body:      req.Body,
		Priority:  priority,
		Status:    StatusOpen,
		CreatedBy: actor.UserID,
	}

	id, err := s.repo.Create(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	request.ID = id

	s.recordAudit(ctx, actor, "request.create", id, map[string]any{
		"client_id": req.ClientID,
		"priority":  priority,
	})
	return &request, nil
}

func (s *Service) Assign(ctx context.Context, actor authz.Context, id int64, req AssignRequestRequest) (*Request, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireTenant(actor.TenantID, existing.TenantID); err != nil {
		return nil, err
	}

	if err := s.repo.Assign(ctx, actor.TenantID, id, req.AssigneeID); err != nil {
		return nil, fmt.Errorf("assign request: %w", err)
	}
	if existing.Status == StatusOpen {
		if err := s.repo.SetStatus(ctx, actor.TenantID, id, StatusInProgress, false); err != nil {
			return nil, fmt.Errorf("assign request: %w", err)
		}
	}

	s.recordAudit(ctx, actor, "request.assign", id, map[string]any{"assignee_id": req.AssigneeID})
	return s.repo.Get(ctx, actor.TenantID, id)
}

// UpdateStatus advances the workflow. Illegal jumps, like reopening a
// request straight to resolved, are rejected before any write.
func (s *Service) UpdateStatus(ctx context.Context, actor authz.Context, id int64, req UpdateStatusRequest) (*Request, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireTenant(actor.TenantID, existing.TenantID); err != nil {
		return nil, err
	}
	if !canTransition(existing.Status, req.Status) {
		return nil, fmt.Errorf("cannot move request from %s to %s", existing.Status, req.Status)
	}

	if err := s.repo.SetStatus(ctx, actor.TenantID, id, req.Status, req.Status == StatusResolved); err != nil {
		return nil, fmt.Errorf("update request status: %w", err)
	}

	s.recordAudit(ctx, actor, "request.status", id, map[string]any{
		"from": existing.Status,
		"to":   req.Status,
	})
	return s.repo.Get(ctx, actor.TenantID, id)
}

func (s *Service) Get(ctx context.Context, actor authz.Context, id int64) (*Request, error) {
	request, err := s.repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireTenant(actor.TenantID, request.TenantID); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *Service) List(ctx context.Context, actor authz.Context, req ListRequestsRequest) ([]Request, int, error) {
	req.TenantID = actor.TenantID
	if req.Limit <= 0 {
		req.Limit = 50
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, req)
}

func (s *Service) CountOpen(ctx context.Context, actor authz.Context) (int, error) {
	return s.repo.CountOpen(ctx, actor.TenantID)
}

func (s *Service) recordAudit(ctx context.Context, actor authz.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: actor.TenantID,
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "service_request",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
