package documents

import (
	"context"
	"testing"
	"time"

	"github.com/meridianhq/meridian/internal/authz"
)

type memRepo struct {
	nextDocID int64
	docs      map[int64]Document
	versions  map[int64][]Version
	cats      map[int64]Category
	nextCatID int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		docs:     make(map[int64]Document),
		versions: make(map[int64][]Version),
		cats:     make(map[int64]Category),
	}
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memRepo) Get(ctx context.Context, tenantID, id int64) (*Document, error) {
	d, ok := m.docs[id]
	if !ok || d.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (m *memRepo) List(ctx context.Context, req ListDocumentsRequest) ([]Document, int, error) {
	var out []Document
	for _, d := range m.docs {
		if d.TenantID == req.TenantID {
			out = append(out, d)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) ListExpiring(ctx context.Context, tenantID int64, within time.Duration) ([]Document, error) {
	deadline := time.Now().Add(within)
	var out []Document
	for id, d := range m.docs {
		if d.TenantID != tenantID {
			continue
		}
		vs := m.versions[id]
		if len(vs) == 0 {
			continue
		}
		cur := vs[len(vs)-1]
		if cur.ExpiresAt != nil && cur.ExpiresAt.After(time.Now()) && cur.ExpiresAt.Before(deadline) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memRepo) Create(ctx context.Context, doc Document, first Version) (int64, error) {
	m.nextDocID++
	doc.ID = m.nextDocID
	doc.CurrentVersion = 1
	m.docs[doc.ID] = doc
	first.DocumentID = doc.ID
	first.VersionNo = 1
	m.versions[doc.ID] = []Version{first}
	return doc.ID, nil
}

func (m *memRepo) AddVersion(ctx context.Context, tenantID, documentID int64, v Version) (int, error) {
	d, ok := m.docs[documentID]
	if !ok || d.TenantID != tenantID {
		return 0, ErrNotFound
	}
	d.CurrentVersion++
	m.docs[documentID] = d
	v.DocumentID = documentID
	v.VersionNo = d.CurrentVersion
	m.versions[documentID] = append(m.versions[documentID], v)
	return d.CurrentVersion, nil
}

func (m *memRepo) Versions(ctx context.Context, documentID int64) ([]Version, error) {
	vs := m.versions[documentID]
	out := make([]Version, len(vs))
	for i := range vs {
		out[len(vs)-1-i] = vs[i]
	}
	return out, nil
}

func (m *memRepo) Categories(ctx context.Context, tenantID int64) ([]Category, error) {
	var out []Category
	for _, c := range m.cats {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepo) CreateCategory(ctx context.Context, cat Category) (int64, error) {
	m.nextCatID++
	cat.ID = m.nextCatID
	m.cats[cat.ID] = cat
	return cat.ID, nil
}

var officer = authz.Context{Role: authz.RoleComplianceOfficer, TenantID: 1, UserID: 3}

func upload(name string) UploadVersion {
	return UploadVersion{FileName: name, ContentType: "application/pdf", SizeBytes: 1024, Checksum: "abc123"}
}

func TestCreateAssignsFirstVersionAndFileKey(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	doc, err := svc.Create(context.Background(), officer, CreateDocumentRequest{
		ClientID: 7, CategoryID: 2, Title: "Insurance Certificate", Version: upload("cert.pdf"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if doc.CurrentVersion != 1 {
		t.Fatalf("current version %d, want 1", doc.CurrentVersion)
	}
	vs := repo.versions[doc.ID]
	if len(vs) != 1 || vs[0].FileKey == "" {
		t.Fatalf("first version missing file key: %+v", vs)
	}
}

func TestAddVersionBumpsCurrent(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	doc, err := svc.Create(context.Background(), officer, CreateDocumentRequest{
		ClientID: 7, CategoryID: 2, Title: "License", Version: upload("v1.pdf"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.AddVersion(context.Background(), officer, doc.ID, upload("v2.pdf"))
	if err != nil {
		t.Fatalf("add version: %v", err)
	}
	if updated.CurrentVersion != 2 {
		t.Fatalf("current version %d, want 2", updated.CurrentVersion)
	}
	if len(updated.Versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(updated.Versions))
	}
	if updated.Versions[0].VersionNo != 2 {
		t.Fatalf("history must be newest first, got %d", updated.Versions[0].VersionNo)
	}
}

func TestAddVersionCrossTenantDenied(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	doc, err := svc.Create(context.Background(), officer, CreateDocumentRequest{
		ClientID: 7, CategoryID: 2, Title: "License", Version: upload("v1.pdf"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	intruder := authz.Context{Role: authz.RoleComplianceOfficer, TenantID: 2, UserID: 4}
	if _, err := svc.AddVersion(context.Background(), intruder, doc.ID, upload("v2.pdf")); err == nil {
		t.Fatal("cross-tenant version upload must fail")
	}
}

func TestTitleNormalisation(t *testing.T) {
	// Decomposed "e" + combining acute must be folded to the
	// precomposed form before storage.
	repo := newMemRepo()
	svc := NewService(repo, nil)

	doc, err := svc.Create(context.Background(), officer, CreateDocumentRequest{
		ClientID: 7, CategoryID: 2, Title: "Attestation fiscale\u0301", Version: upload("v1.pdf"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if doc.Title != "Attestation fiscal\u00e9" {
		t.Fatalf("title not NFC-normalised: %q", doc.Title)
	}
}
