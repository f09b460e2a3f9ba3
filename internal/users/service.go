package users

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

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

func (s *Service) Create(ctx context.Context, actor authz.Context, req CreateAccountRequest) (*Account, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	role := authz.Role(req.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := Account{
		TenantID: actor.TenantID,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Name:     strings.TrimSpace(req.Name),
		Role:     string(role),
		IsActive: true,
	}

	id, err := s.repo.Create(ctx, account, string(hash))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	account.ID = id

	s.recordAudit(ctx, actor, "user.create", id, map[string]any{"role": account.Role})
	return &account, nil
}

// ChangeRole reassigns the account's role. Actors cannot change their
// own role, so a tenant always keeps at least one working admin.
func (s *Service) ChangeRole(ctx context.Context, actor authz.Context, id int64, req ChangeRoleRequest) (*Account, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	role := authz.Role(req.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", req.Role)
	}
	if id == actor.UserID {
		return nil, fmt.Errorf("cannot change own role")
	}

	existing, err := s.repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireTenant(actor.TenantID, existing.TenantID); err != nil {
		return nil, err
	}

	if err := s.repo.SetRole(ctx, actor.TenantID, id, string(role)); err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}

	s.recordAudit(ctx, actor, "user.role", id, map[string]any{"from": existing.Role, "to": string(role)})
	return s.repo.Get(ctx, actor.TenantID, id)
}

func (s *Service) Deactivate(ctx context.Context, actor authz.Context, id int64) error {
	if id == actor.UserID {
		return fmt.Errorf("cannot deactivate own account")
	}
	if err := s.repo.SetActive(ctx, actor.TenantID, id, false); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "user.deactivate", id, nil)
	return nil
}

func (s *Service) Reactivate(ctx context.Context, actor authz.Context, id int64) error {
	if err := s.repo.SetActive(ctx, actor.TenantID, id, true); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "user.reactivate", id, nil)
	return nil
}

func (s *Service) Get(ctx context.Context, actor authz.Context, id int64) (*Account, error) {
	account, err := s.repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireTenant(actor.TenantID, account.TenantID); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Service) List(ctx context.Context, actor authz.Context, req ListAccountsRequest) ([]Account, int, error) {
	req.TenantID = actor.TenantID
	if req.Limit <= 0 {
		req.Limit = 50
	}
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
		Entity:   "user",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
