package filings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/meridianhq/meridian/internal/authz"
	"github.com/meridianhq/meridian/internal/shared"
)

// ScoreEnqueuer schedules a compliance score recompute after a filing
// changes state. Satisfied by the jobs client.
type ScoreEnqueuer interface {
	EnqueueScoreRecompute(ctx context.Context, tenantID, clientID int64) error
}

type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	scores ScoreEnqueuer
}

func NewService(repo Repository, audit *shared.AuditLogger, scores ScoreEnqueuer) *Service {
	return &Service{repo: repo, audit: audit, scores: scores}
}

func (s *Service) Create(ctx context.Context, actor authz.Context, req CreateFilingRequest) (*Filing, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	filing := Filing{
		TenantID:  actor.TenantID,
		ClientID:  req.ClientID,
		Kind:      strings.TrimSpace(req.Kind),
		Period:    strings.TrimSpace(req.Period),
		DueDate:   req.DueDate,
		Status:    StatusDraft,
		Notes:     req.Notes,
		CreatedBy: actor.UserID,
	}

	id, err := s.repo.Create(ctx, filing)
	if err != nil {
		return nil, fmt.Errorf("create filing: %w", err)
	}
	filing.ID = id

	s.recordAudit(ctx, actor, "filing.create", id, map[string]any{
		"client_id": req.ClientID,
		"kind":      filing.Kind,
		"period":    filing.Period,
	})
	return &filing, nil
}

func (s *Service) Update(ctx context.Context, actor authz.Context, id int64, req UpdateFilingRequest) (*Filing, error) {
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
	if existing.Status == StatusSubmitted || existing.Status == StatusAccepted {
		return nil, fmt.Errorf("filing %d already %s", id, existing.Status)
	}

	updates := map[string]interface{}{}
	if req.Kind != nil {
		updates["kind"] = strings.TrimSpace(*req.Kind)
	}
	if req.Period != nil {
		updates["period"] = strings.TrimSpace(*req.Period)
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, actor.TenantID, id, updates); err != nil {
			return nil, fmt.Errorf("update filing: %w", err)
		}
	}

	s.recordAudit(ctx, actor, "filing.update", id, nil)
	return s.repo.Get(ctx, actor.TenantID, id)
}

// Submit moves a draft or pending filing to submitted and stamps the
// moment. The client's score is recomputed in the background since
// overdue counts may have changed.
func (s *Service) Submit(ctx context.Context, actor authz.Context, id int64, req SubmitFilingRequest) (*Filing, error) {
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

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.MarkSubmitted(ctx, actor.TenantID, id, actor.UserID, req.Reference)
	})
	if err != nil {
		return nil, fmt.Errorf("submit filing: %w", err)
	}

	s.recordAudit(ctx, actor, "filing.submit", id, map[string]any{"client_id": existing.ClientID})
	if s.scores != nil {
		_ = s.scores.EnqueueScoreRecompute(ctx, actor.TenantID, existing.ClientID)
	}
	return s.repo.Get(ctx, actor.TenantID, id)
}

// Accept acknowledges a submitted filing as accepted by the authority.
func (s *Service) Accept(ctx context.Context, actor authz.Context, id int64) (*Filing, error) {
	existing, err := s.repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireTenant(actor.TenantID, existing.TenantID); err != nil {
		return nil, err
	}

	if err := s.repo.MarkAccepted(ctx, actor.TenantID, id); err != nil {
		return nil, fmt.Errorf("accept filing: %w", err)
	}

	s.recordAudit(ctx, actor, "filing.accept", id, map[string]any{"client_id": existing.ClientID})
	return s.repo.Get(ctx, actor.TenantID, id)
}

func (s *Service) Get(ctx context.Context, actor authz.Context, id int64) (*Filing, error) {
	filing, err := s.repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireTenant(actor.TenantID, filing.TenantID); err != nil {
		return nil, err
	}
	return filing, nil
}

func (s *Service) List(ctx context.Context, actor authz.Context, req ListFilingsRequest) ([]Filing, int, error) {
	req.TenantID = actor.TenantID
	if req.Limit <= 0 {
		req.Limit = 50
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, req)
}

// ListDueWithin powers deadline reminders and the dashboard widget.
func (s *Service) ListDueWithin(ctx context.Context, actor authz.Context, days int) ([]Filing, error) {
	return s.repo.ListDueWithin(ctx, actor.TenantID, days)
}

func (s *Service) recordAudit(ctx context.Context, actor authz.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: actor.TenantID,
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "filing",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
