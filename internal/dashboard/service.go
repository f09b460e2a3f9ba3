package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/meridianhq/meridian/internal/authz"
)

const (
	filingWindowDays = 7
	expiryWindowDays = 30
)

type Service struct {
	repo  StatsRepository
	cache *Cache
	group singleflight.Group
	clock func() time.Time
}

func NewService(repo StatsRepository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, clock: time.Now}
}

// Overview returns the tenant summary. Concurrent requests for the same
// tenant collapse into one build; the result is cached for the TTL.
func (s *Service) Overview(ctx context.Context, actor authz.Context) (*Overview, error) {
	key := fmt.Sprintf("overview:%d", actor.TenantID)
	resultChan := s.group.DoChan(key, func() (interface{}, error) {
		return s.cache.FetchOverview(ctx, actor.TenantID, func(ctx context.Context) (*Overview, error) {
			return s.build(ctx, actor.TenantID)
		})
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Overview), nil
	}
}

func (s *Service) build(ctx context.Context, tenantID int64) (*Overview, error) {
	clients, err := s.repo.ClientStats(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("client stats: %w", err)
	}
	open, err := s.repo.OpenRequests(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("open requests: %w", err)
	}
	dueSoon, err := s.repo.FilingsDueWithin(ctx, tenantID, filingWindowDays)
	if err != nil {
		return nil, fmt.Errorf("filings due: %w", err)
	}
	expiring, err := s.repo.DocsExpiringWithin(ctx, tenantID, expiryWindowDays)
	if err != nil {
		return nil, fmt.Errorf("docs expiring: %w", err)
	}

	return &Overview{
		TenantID:         tenantID,
		Clients:          clients,
		OpenRequests:     open,
		FilingsDueSoon:   dueSoon,
		DocsExpiringSoon: expiring,
		GeneratedAt:      s.clock().UTC(),
	}, nil
}
