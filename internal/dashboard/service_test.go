package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/meridianhq/meridian/internal/authz"
)

type stubStats struct {
	builds atomic.Int64
	delay  time.Duration
}

func (s *stubStats) ClientStats(ctx context.Context, tenantID int64) (ClientStats, error) {
	s.builds.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return ClientStats{Total: 10, Green: 6, Amber: 3, Red: 1}, nil
}

func (s *stubStats) OpenRequests(ctx context.Context, tenantID int64) (int, error) {
	return 4, nil
}

func (s *stubStats) FilingsDueWithin(ctx context.Context, tenantID int64, days int) (int, error) {
	return 2, nil
}

func (s *stubStats) DocsExpiringWithin(ctx context.Context, tenantID int64, days int) (int, error) {
	return 3, nil
}

func newTestService(t *testing.T, stats *stubStats) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := NewService(stats, NewCache(client, time.Minute))
	svc.clock = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }
	return svc
}

var viewer = authz.Context{Role: authz.RoleViewer, TenantID: 1, UserID: 5}

func TestOverviewAggregates(t *testing.T) {
	svc := newTestService(t, &stubStats{})

	ov, err := svc.Overview(context.Background(), viewer)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.Clients.Total != 10 || ov.Clients.Green != 6 || ov.Clients.Amber != 3 || ov.Clients.Red != 1 {
		t.Fatalf("unexpected client stats: %+v", ov.Clients)
	}
	if ov.OpenRequests != 4 || ov.FilingsDueSoon != 2 || ov.DocsExpiringSoon != 3 {
		t.Fatalf("unexpected counts: %+v", ov)
	}
}

func TestOverviewServedFromCache(t *testing.T) {
	stats := &stubStats{}
	svc := newTestService(t, stats)

	if _, err := svc.Overview(context.Background(), viewer); err != nil {
		t.Fatalf("first overview: %v", err)
	}
	if _, err := svc.Overview(context.Background(), viewer); err != nil {
		t.Fatalf("second overview: %v", err)
	}
	if n := stats.builds.Load(); n != 1 {
		t.Fatalf("expected a single build, got %d", n)
	}
}

func TestConcurrentOverviewsCollapse(t *testing.T) {
	stats := &stubStats{delay: 20 * time.Millisecond}
	svc := newTestService(t, stats)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Overview(context.Background(), viewer); err != nil {
				t.Errorf("overview: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := stats.builds.Load(); n != 1 {
		t.Fatalf("concurrent requests must collapse to one build, got %d", n)
	}
}
