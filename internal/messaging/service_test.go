package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meridianhq/meridian/internal/authz"
)

type memRepo struct {
	nextThreadID int64
	nextMsgID    int64
	threads      map[int64]Thread
	messages     map[int64][]Message
	reads        map[[2]int64]time.Time
	clock        time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{
		threads:  make(map[int64]Thread),
		messages: make(map[int64][]Message),
		reads:    make(map[[2]int64]time.Time),
		clock:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memRepo) GetThread(ctx context.Context, tenantID, id int64) (*Thread, error) {
	t, ok := m.threads[id]
	if !ok || t.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *memRepo) ListThreads(ctx context.Context, req ListThreadsRequest, viewerID int64) ([]Thread, int, error) {
	var out []Thread
	for id, t := range m.threads {
		if t.TenantID != req.TenantID {
			continue
		}
		t.Unread = m.unread(id, viewerID)
		out = append(out, t)
	}
	return out, len(out), nil
}

func (m *memRepo) unread(threadID, userID int64) int {
	mark := m.reads[[2]int64{threadID, userID}]
	count := 0
	for _, msg := range m.messages[threadID] {
		if msg.SenderID != userID && msg.SentAt.After(mark) {
			count++
		}
	}
	return count
}

func (m *memRepo) CreateThread(ctx context.Context, thread Thread) (int64, error) {
	m.nextThreadID++
	thread.ID = m.nextThreadID
	thread.LastMessageAt = m.tick()
	m.threads[thread.ID] = thread
	return thread.ID, nil
}

func (m *memRepo) InsertMessage(ctx context.Context, msg Message) (int64, error) {
	t, ok := m.threads[msg.ThreadID]
	if !ok {
		return 0, ErrNotFound
	}
	m.nextMsgID++
	msg.ID = m.nextMsgID
	msg.SentAt = m.tick()
	m.messages[msg.ThreadID] = append(m.messages[msg.ThreadID], msg)
	t.LastMessageAt = msg.SentAt
	m.threads[msg.ThreadID] = t
	return msg.ID, nil
}

func (m *memRepo) Messages(ctx context.Context, threadID int64) ([]Message, error) {
	return m.messages[threadID], nil
}

func (m *memRepo) MarkRead(ctx context.Context, threadID, userID int64) error {
	m.reads[[2]int64{threadID, userID}] = m.clock
	return nil
}

func (m *memRepo) UnreadTotal(ctx context.Context, tenantID, userID int64) (int, error) {
	total := 0
	for id, t := range m.threads {
		if t.TenantID == tenantID {
			total += m.unread(id, userID)
		}
	}
	return total, nil
}

var (
	staffer = authz.Context{Role: authz.RoleStaff, TenantID: 1, UserID: 2}
	client  = authz.Context{Role: authz.RoleClientUser, TenantID: 1, UserID: 30}
)

func startThread(t *testing.T, svc *Service) *Thread {
	t.Helper()
	thread, err := svc.StartThread(context.Background(), staffer, CreateThreadRequest{
		ClientID: 4, Subject: "Missing payroll report", Body: "Please upload the February payroll report.",
	})
	if err != nil {
		t.Fatalf("start thread: %v", err)
	}
	return thread
}

func TestStartThreadCarriesFirstMessage(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	thread := startThread(t, svc)
	msgs := repo.messages[thread.ID]
	if len(msgs) != 1 {
		t.Fatalf("expected one seed message, got %d", len(msgs))
	}
	if msgs[0].SenderID != staffer.UserID {
		t.Fatalf("seed message sender %d, want %d", msgs[0].SenderID, staffer.UserID)
	}
}

func TestUnreadCountsPerViewer(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	thread := startThread(t, svc)

	// The author has read their own message; the client has not.
	if n, _ := svc.UnreadTotal(context.Background(), staffer); n != 0 {
		t.Fatalf("author unread %d, want 0", n)
	}
	if n, _ := svc.UnreadTotal(context.Background(), client); n != 1 {
		t.Fatalf("client unread %d, want 1", n)
	}

	if _, err := svc.Post(context.Background(), client, thread.ID, PostMessageRequest{Body: "Uploading it now."}); err != nil {
		t.Fatalf("post: %v", err)
	}
	if n, _ := svc.UnreadTotal(context.Background(), staffer); n != 1 {
		t.Fatalf("staff unread after reply %d, want 1", n)
	}
	if n, _ := svc.UnreadTotal(context.Background(), client); n != 1 {
		t.Fatalf("client unread unchanged %d, want 1", n)
	}
}

func TestReadClearsUnread(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	thread := startThread(t, svc)

	_, msgs, err := svc.Read(context.Background(), client, thread.ID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if n, _ := svc.UnreadTotal(context.Background(), client); n != 0 {
		t.Fatalf("unread after read %d, want 0", n)
	}
}

func TestCrossTenantThreadHidden(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	thread := startThread(t, svc)

	intruder := authz.Context{Role: authz.RoleStaff, TenantID: 2, UserID: 7}
	if _, _, err := svc.Read(context.Background(), intruder, thread.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tenant read must look like not found, got %v", err)
	}
	if _, err := svc.Post(context.Background(), intruder, thread.ID, PostMessageRequest{Body: "hi"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tenant post must look like not found, got %v", err)
	}
}
