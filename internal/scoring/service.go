package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRecomputeFailed wraps storage failures during a recompute. The
// prior snapshot stays authoritative; retries are the scheduler's job.
var ErrRecomputeFailed = errors.New("score recompute failed")

// ErrNoSnapshot indicates a client that has never been scored.
var ErrNoSnapshot = errors.New("no score snapshot")

// CountsProvider supplies the raw signals for one client.
type CountsProvider interface {
	Counts(ctx context.Context, tenantID, clientID int64) (Counts, error)
}

// SnapshotStore persists and reads score snapshots.
type SnapshotStore interface {
	InsertSnapshot(ctx context.Context, snap Snapshot) (int64, error)
	LatestSnapshot(ctx context.Context, tenantID, clientID int64) (*Snapshot, error)
	SnapshotHistory(ctx context.Context, tenantID, clientID int64, limit int) ([]Snapshot, error)
}

// Repository is the storage collaborator: counts, snapshots and the
// transactional boundary around a recompute.
type Repository interface {
	CountsProvider
	SnapshotStore
	// WithTx runs fn against a transactional view of the repository so
	// the count read and snapshot write are never partially observable.
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	// ActiveClients lists (tenant, client) pairs for the nightly sweep.
	ActiveClients(ctx context.Context) ([]ClientRef, error)
}

// ClientRef identifies a client within its tenant.
type ClientRef struct {
	TenantID int64
	ClientID int64
}

// Service orchestrates score recomputation and reads.
type Service struct {
	repo  Repository
	cache *Cache
	clock func() time.Time
}

// NewService constructs a Service. The cache is optional.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// RecomputeForClient fetches the three counts, computes the score and
// persists a full replacement snapshot in one transaction. Concurrent
// recomputes for the same client converge to the same result; no
// exclusivity is enforced.
func (s *Service) RecomputeForClient(ctx context.Context, tenantID, clientID int64) (Snapshot, error) {
	var snap Snapshot
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		counts, err := repo.Counts(ctx, tenantID, clientID)
		if err != nil {
			return fmt.Errorf("%w: fetch counts for client %d: %v", ErrRecomputeFailed, clientID, err)
		}
		result := ComputeScore(counts.Missing, counts.Expiring, counts.OverdueFilings)
		snap = Snapshot{
			TenantID:       tenantID,
			ClientID:       clientID,
			Value:          result.Value,
			Level:          result.Level,
			Missing:        counts.Missing,
			Expiring:       counts.Expiring,
			OverdueFilings: counts.OverdueFilings,
			CalculatedAt:   s.clock(),
		}
		id, err := repo.InsertSnapshot(ctx, snap)
		if err != nil {
			return fmt.Errorf("%w: persist snapshot for client %d: %v", ErrRecomputeFailed, clientID, err)
		}
		snap.ID = id
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrRecomputeFailed) {
			err = fmt.Errorf("%w: client %d: %v", ErrRecomputeFailed, clientID, err)
		}
		return Snapshot{}, err
	}
	if s.cache != nil {
		_ = s.cache.SetLatest(ctx, snap)
	}
	return snap, nil
}

// Latest returns the authoritative snapshot for a client, preferring
// the cache.
func (s *Service) Latest(ctx context.Context, tenantID, clientID int64) (Snapshot, error) {
	if s.cache != nil {
		if snap, ok := s.cache.Latest(ctx, tenantID, clientID); ok {
			return snap, nil
		}
	}
	snap, err := s.repo.LatestSnapshot(ctx, tenantID, clientID)
	if err != nil {
		return Snapshot{}, err
	}
	if snap == nil {
		return Snapshot{}, ErrNoSnapshot
	}
	if s.cache != nil {
		_ = s.cache.SetLatest(ctx, *snap)
	}
	return *snap, nil
}

// History returns snapshots newest first.
func (s *Service) History(ctx context.Context, tenantID, clientID int64, limit int) ([]Snapshot, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	return s.repo.SnapshotHistory(ctx, tenantID, clientID, limit)
}

// ActiveClients exposes the sweep scope for the background recompute job.
func (s *Service) ActiveClients(ctx context.Context) ([]ClientRef, error) {
	return s.repo.ActiveClients(ctx)
}
