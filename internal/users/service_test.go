package users

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridianhq/meridian/internal/authz"
)

type memRepo struct {
	nextID   int64
	accounts map[int64]Account
	hashes   map[int64]string
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, accounts: make(map[int64]Account), hashes: make(map[int64]string)}
}

func (m *memRepo) Get(ctx context.Context, tenantID, id int64) (*Account, error) {
	a, ok := m.accounts[id]
	if !ok || a.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *memRepo) List(ctx context.Context, req ListAccountsRequest) ([]Account, int, error) {
	var out []Account
	for _, a := range m.accounts {
		if a.TenantID == req.TenantID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) Create(ctx context.Context, account Account, passwordHash string) (int64, error) {
	for _, a := range m.accounts {
		if a.Email == account.Email {
			return 0, ErrAlreadyExists
		}
	}
	m.nextID++
	account.ID = m.nextID
	m.accounts[account.ID] = account
	m.hashes[account.ID] = passwordHash
	return account.ID, nil
}

func (m *memRepo) SetRole(ctx context.Context, tenantID, id int64, role string) error {
	a, ok := m.accounts[id]
	if !ok || a.TenantID != tenantID {
		return ErrNotFound
	}
	a.Role = role
	m.accounts[id] = a
	return nil
}

func (m *memRepo) SetActive(ctx context.Context, tenantID, id int64, active bool) error {
	a, ok := m.accounts[id]
	if !ok || a.TenantID != tenantID {
		return ErrNotFound
	}
	a.IsActive = active
	m.accounts[id] = a
	return nil
}

var admin = authz.Context{Role: authz.RoleAdmin, TenantID: 1, UserID: 1}

func TestCreateHashesPasswordAndLowersEmail(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	account, err := svc.Create(context.Background(), admin, CreateAccountRequest{
		Email: "New.Officer@Firm.Test", Name: "New Officer",
		Password: "long-enough-pass", Role: string(authz.RoleComplianceOfficer),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if account.Email != "new.officer@firm.test" {
		t.Fatalf("email not lowered: %q", account.Email)
	}
	hash := repo.hashes[account.ID]
	if strings.Contains(hash, "long-enough-pass") {
		t.Fatal("password stored in clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("long-enough-pass")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	svc := NewService(newMemRepo(), nil)

	_, err := svc.Create(context.Background(), admin, CreateAccountRequest{
		Email: "x@firm.test", Name: "X", Password: "long-enough-pass", Role: "superuser",
	})
	if err == nil {
		t.Fatal("unknown role must be rejected")
	}
}

func TestChangeRole(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	account, err := svc.Create(context.Background(), admin, CreateAccountRequest{
		Email: "staff@firm.test", Name: "Staff", Password: "long-enough-pass", Role: string(authz.RoleStaff),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	changed, err := svc.ChangeRole(context.Background(), admin, account.ID, ChangeRoleRequest{Role: string(authz.RoleAccountManager)})
	if err != nil {
		t.Fatalf("change role: %v", err)
	}
	if changed.Role != string(authz.RoleAccountManager) {
		t.Fatalf("role %q, want account_manager", changed.Role)
	}
}

func TestCannotChangeOwnRoleOrDeactivateSelf(t *testing.T) {
	repo := newMemRepo()
	repo.accounts[1] = Account{ID: 1, TenantID: 1, Email: "admin@firm.test", Role: string(authz.RoleAdmin), IsActive: true}
	svc := NewService(repo, nil)

	if _, err := svc.ChangeRole(context.Background(), admin, 1, ChangeRoleRequest{Role: string(authz.RoleViewer)}); err == nil {
		t.Fatal("changing own role must be rejected")
	}
	if err := svc.Deactivate(context.Background(), admin, 1); err == nil {
		t.Fatal("deactivating own account must be rejected")
	}
}

func TestDeactivateReactivate(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	account, err := svc.Create(context.Background(), admin, CreateAccountRequest{
		Email: "temp@firm.test", Name: "Temp", Password: "long-enough-pass", Role: string(authz.RoleViewer),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Deactivate(context.Background(), admin, account.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if repo.accounts[account.ID].IsActive {
		t.Fatal("account still active")
	}
	if err := svc.Reactivate(context.Background(), admin, account.ID); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if !repo.accounts[account.ID].IsActive {
		t.Fatal("account still inactive")
	}
}
