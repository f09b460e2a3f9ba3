package requests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meridianhq/meridian/internal/authz"
)

type memRepo struct {
	nextID   int64
	requests map[int64]Request
}

func newMemRepo() *memRepo {
	return &memRepo{requests: make(map[int64]Request)}
}

func (m *memRepo) Get(ctx context.Context, tenantID, id int64) (*Request, error) {
	q, ok := m.requests[id]
	if !ok || q.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (m *memRepo) List(ctx context.Context, req ListRequestsRequest) ([]Request, int, error) {
	var out []Request
	for _, q := range m.requests {
		if q.TenantID != req.TenantID {
			continue
		}
		if req.Status != nil && q.Status != *req.Status {
			continue
		}
		out = append(out, q)
	}
	return out, len(out), nil
}

func (m *memRepo) CountOpen(ctx context.Context, tenantID int64) (int, error) {
	count := 0
	for _, q := range m.requests {
		if q.TenantID == tenantID && (q.Status == StatusOpen || q.Status == StatusInProgress) {
			count++
		}
	}
	return count, nil
}

func (m *memRepo) Create(ctx context.Context, request Request) (int64, error) {
	m.nextID++
	request.ID = m.nextID
	m.requests[request.ID] = request
	return request.ID, nil
}

func (m *memRepo) Assign(ctx context.Context, tenantID, id, assigneeID int64) error {
	q, ok := m.requests[id]
	if !ok || q.TenantID != tenantID {
		return ErrNotFound
	}
	q.AssigneeID = &assigneeID
	m.requests[id] = q
	return nil
}

func (m *memRepo) SetStatus(ctx context.Context, tenantID, id int64, status string, resolved bool) error {
	q, ok := m.requests[id]
	if !ok || q.TenantID != tenantID {
		return ErrNotFound
	}
	q.Status = status
	if resolved {
		now := time.Now()
		q.ResolvedAt = &now
	} else {
		q.ResolvedAt = nil
	}
	m.requests[id] = q
	return nil
}

var manager = authz.Context{Role: authz.RoleAccountManager, TenantID: 1, UserID: 2}

func openRequest(t *testing.T, svc *Service) *Request {
	t.Helper()
	q, err := svc.Create(context.Background(), manager, CreateRequestRequest{
		ClientID: 3, Subject: "Renew trade license", Body: "License expires end of month.",
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return q
}

func TestCreateDefaultsToNormalPriorityAndOpen(t *testing.T) {
	svc := NewService(newMemRepo(), nil)

	q := openRequest(t, svc)
	if q.Status != StatusOpen {
		t.Fatalf("status %q, want open", q.Status)
	}
	if q.Priority != PriorityNormal {
		t.Fatalf("priority %q, want normal", q.Priority)
	}
}

func TestAssignMovesOpenToInProgress(t *testing.T) {
	svc := NewService(newMemRepo(), nil)

	q := openRequest(t, svc)
	assigned, err := svc.Assign(context.Background(), manager, q.ID, AssignRequestRequest{AssigneeID: 8})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.AssigneeID == nil || *assigned.AssigneeID != 8 {
		t.Fatalf("assignee not recorded: %+v", assigned)
	}
	if assigned.Status != StatusInProgress {
		t.Fatalf("status %q, want in_progress", assigned.Status)
	}
}

func TestStatusTransitions(t *testing.T) {
	svc := NewService(newMemRepo(), nil)

	q := openRequest(t, svc)

	// open -> resolved skips in_progress and must be rejected.
	if _, err := svc.UpdateStatus(context.Background(), manager, q.ID, UpdateStatusRequest{Status: StatusResolved}); err == nil {
		t.Fatal("open -> resolved must be rejected")
	}

	for _, status := range []string{StatusInProgress, StatusResolved, StatusClosed} {
		if _, err := svc.UpdateStatus(context.Background(), manager, q.ID, UpdateStatusRequest{Status: status}); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	// Closed requests can only reopen.
	if _, err := svc.UpdateStatus(context.Background(), manager, q.ID, UpdateStatusRequest{Status: StatusResolved}); err == nil {
		t.Fatal("closed -> resolved must be rejected")
	}
	reopened, err := svc.UpdateStatus(context.Background(), manager, q.ID, UpdateStatusRequest{Status: StatusOpen})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.ResolvedAt != nil {
		t.Fatal("reopening must clear the resolution stamp")
	}
}

func TestResolveStampsResolvedAt(t *testing.T) {
	svc := NewService(newMemRepo(), nil)

	q := openRequest(t, svc)
	if _, err := svc.UpdateStatus(context.Background(), manager, q.ID, UpdateStatusRequest{Status: StatusInProgress}); err != nil {
		t.Fatalf("start: %v", err)
	}
	resolved, err := svc.UpdateStatus(context.Background(), manager, q.ID, UpdateStatusRequest{Status: StatusResolved})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.ResolvedAt == nil {
		t.Fatal("resolved request must carry a resolution stamp")
	}
}

func TestCrossTenantDenied(t *testing.T) {
	svc := NewService(newMemRepo(), nil)

	q := openRequest(t, svc)
	intruder := authz.Context{Role: authz.RoleAccountManager, TenantID: 2, UserID: 6}
	if _, err := svc.Get(context.Background(), intruder, q.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tenant get must look like not found, got %v", err)
	}
	if _, err := svc.Assign(context.Background(), intruder, q.ID, AssignRequestRequest{AssigneeID: 8}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tenant assign must look like not found, got %v", err)
	}
}
