package clients

import (
	"context"
	"errors"
	"testing"

	"github.com/meridianhq/meridian/internal/authz"
)

type memRepo struct {
	nextID  int64
	records map[int64]Client
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[int64]Client)}
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memRepo) Get(ctx context.Context, tenantID, id int64) (*Client, error) {
	c, ok := m.records[id]
	if !ok || c.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *memRepo) GetByCode(ctx context.Context, tenantID int64, code string) (*Client, error) {
	for _, c := range m.records {
		if c.TenantID == tenantID && c.Code == code {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	var list []Client
	for _, c := range m.records {
		if c.TenantID != req.TenantID {
			continue
		}
		if req.Status != nil && c.Status != *req.Status {
			continue
		}
		list = append(list, c)
	}
	return list, len(list), nil
}

func (m *memRepo) Create(ctx context.Context, client Client) (int64, error) {
	m.nextID++
	client.ID = m.nextID
	m.records[client.ID] = client
	return client.ID, nil
}

func (m *memRepo) Update(ctx context.Context, tenantID, id int64, updates map[string]interface{}) error {
	c, ok := m.records[id]
	if !ok || c.TenantID != tenantID {
		return ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		c.Name = v.(string)
	}
	m.records[id] = c
	return nil
}

func (m *memRepo) Archive(ctx context.Context, tenantID, id int64) error {
	c, ok := m.records[id]
	if !ok || c.TenantID != tenantID {
		return ErrNotFound
	}
	c.Status = StatusArchived
	m.records[id] = c
	return nil
}

var officer = authz.Context{Role: authz.RoleComplianceOfficer, TenantID: 1, UserID: 9}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	svc := NewService(newMemRepo(), nil)

	_, err := svc.Create(context.Background(), officer, CreateClientRequest{Code: "CL-001", Name: "Acme", Country: "GB"})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err = svc.Create(context.Background(), officer, CreateClientRequest{Code: "CL-001", Name: "Other", Country: "GB"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	if _, err := svc.Create(context.Background(), officer, CreateClientRequest{Name: "No Code", Country: "GBR"}); err == nil {
		t.Fatal("expected validation failure")
	}
}

func TestTenantIsolationOnGet(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), officer, CreateClientRequest{Code: "CL-002", Name: "Acme", Country: "GB"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	otherTenant := authz.Context{Role: authz.RoleComplianceOfficer, TenantID: 2, UserID: 10}
	if _, err := svc.Get(context.Background(), otherTenant, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tenant read must fail with not found, got %v", err)
	}
}

func TestUpdateAndArchive(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), officer, CreateClientRequest{Code: "CL-003", Name: "Acme", Country: "GB"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Acme Holdings"
	updated, err := svc.Update(context.Background(), officer, created.ID, UpdateClientRequest{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name {
		t.Fatalf("name not updated: %q", updated.Name)
	}

	if err := svc.Archive(context.Background(), officer, created.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	archived, err := svc.Get(context.Background(), officer, created.ID)
	if err != nil {
		t.Fatalf("get archived: %v", err)
	}
	if archived.Status != StatusArchived {
		t.Fatalf("status %q, want archived", archived.Status)
	}
}
