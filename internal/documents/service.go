package documents

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/meridianhq/meridian/internal/authz"
	"github.com/meridianhq/meridian/internal/shared"
)

// Service wraps document registry business rules.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create registers a document together with its first version.
func (s *Service) Create(ctx context.Context, actor authz.Context, req CreateDocumentRequest) (*Document, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	doc := Document{
		TenantID:   actor.TenantID,
		ClientID:   req.ClientID,
		CategoryID: req.CategoryID,
		Title:      normalizeTitle(req.Title),
		CreatedBy:  actor.UserID,
	}
	version := buildVersion(req.Version, actor.UserID)

	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		id, err = repo.Create(ctx, doc, version)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	doc.ID = id
	doc.CurrentVersion = 1

	s.recordAudit(ctx, actor, "document.create", id, map[string]any{"client_id": req.ClientID})
	return &doc, nil
}

// AddVersion appends a new current version to an existing document.
func (s *Service) AddVersion(ctx context.Context, actor authz.Context, documentID int64, req UploadVersion) (*Document, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, actor.TenantID, documentID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireTenant(actor.TenantID, existing.TenantID); err != nil {
		return nil, err
	}

	version := buildVersion(req, actor.UserID)
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		_, err := repo.AddVersion(ctx, actor.TenantID, documentID, version)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("add document version: %w", err)
	}

	s.recordAudit(ctx, actor, "document.version", documentID, map[string]any{"file_name": req.FileName})
	return s.Get(ctx, actor, documentID)
}

// Get returns the document with its full version history.
func (s *Service) Get(ctx context.Context, actor authz.Context, id int64) (*Document, error) {
	doc, err := s.repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireTenant(actor.TenantID, doc.TenantID); err != nil {
		return nil, err
	}
	versions, err := s.repo.Versions(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("load versions: %w", err)
	}
	doc.Versions = versions
	return doc, nil
}

func (s *Service) List(ctx context.Context, actor authz.Context, req ListDocumentsRequest) ([]Document, int, error) {
	req.TenantID = actor.TenantID
	if req.Limit <= 0 {
		req.Limit = 50
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, req)
}

// ListExpiring lists documents whose current version lapses within the
// window. Used by dashboards and the nightly expiry scan.
func (s *Service) ListExpiring(ctx context.Context, actor authz.Context, within time.Duration) ([]Document, error) {
	return s.repo.ListExpiring(ctx, actor.TenantID, within)
}

func (s *Service) Categories(ctx context.Context, actor authz.Context) ([]Category, error) {
	return s.repo.Categories(ctx, actor.TenantID)
}

func (s *Service) CreateCategory(ctx context.Context, actor authz.Context, req CreateCategoryRequest) (*Category, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	cat := Category{TenantID: actor.TenantID, Name: strings.TrimSpace(req.Name), Required: req.Required}
	id, err := s.repo.CreateCategory(ctx, cat)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	cat.ID = id
	return &cat, nil
}

func buildVersion(req UploadVersion, uploadedBy int64) Version {
	return Version{
		FileKey:     uuid.NewString(),
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		Checksum:    req.Checksum,
		ExpiresAt:   req.ExpiresAt,
		UploadedBy:  uploadedBy,
	}
}

// normalizeTitle folds the title to NFC so lookups and uniqueness do
// not depend on the unicode composition of the upload client.
func normalizeTitle(title string) string {
	return norm.NFC.String(strings.TrimSpace(title))
}

func (s *Service) recordAudit(ctx context.Context, actor authz.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: actor.TenantID,
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "document",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
