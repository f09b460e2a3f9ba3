package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/meridianhq/meridian/internal/scoring"
)

type stubScoring struct {
	recomputed []scoring.ClientRef
	failFor    map[int64]error
	clients    []scoring.ClientRef
}

func (s *stubScoring) RecomputeForClient(ctx context.Context, tenantID, clientID int64) (scoring.Snapshot, error) {
	if err := s.failFor[clientID]; err != nil {
		return scoring.Snapshot{}, err
	}
	s.recomputed = append(s.recomputed, scoring.ClientRef{TenantID: tenantID, ClientID: clientID})
	return scoring.Snapshot{TenantID: tenantID, ClientID: clientID, Value: 85, Level: scoring.LevelGreen}, nil
}

func (s *stubScoring) ActiveClients(ctx context.Context) ([]scoring.ClientRef, error) {
	return s.clients, nil
}

func TestHandleRecompute(t *testing.T) {
	svc := &stubScoring{}
	job := NewScoreRecomputeJob(svc, nil, nil)

	task, err := NewScoreRecomputeTask(1, 42)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.HandleRecompute(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(svc.recomputed) != 1 || svc.recomputed[0] != (scoring.ClientRef{TenantID: 1, ClientID: 42}) {
		t.Fatalf("unexpected recomputes: %v", svc.recomputed)
	}
}

func TestHandleRecomputeSkipsMalformedPayload(t *testing.T) {
	job := NewScoreRecomputeJob(&stubScoring{}, nil, nil)

	task := asynq.NewTask(TaskScoreRecompute, []byte("{not json"))
	if err := job.HandleRecompute(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("malformed payload must skip retry, got %v", err)
	}

	body, _ := json.Marshal(ScoreRecomputePayload{TenantID: 0, ClientID: 5})
	task = asynq.NewTask(TaskScoreRecompute, body)
	if err := job.HandleRecompute(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("zero tenant must skip retry, got %v", err)
	}
}

func TestHandleSweepContinuesPastFailures(t *testing.T) {
	svc := &stubScoring{
		clients: []scoring.ClientRef{
			{TenantID: 1, ClientID: 1},
			{TenantID: 1, ClientID: 2},
			{TenantID: 2, ClientID: 3},
		},
		failFor: map[int64]error{2: errors.New("boom")},
	}
	job := NewScoreRecomputeJob(svc, nil, nil)

	err := job.HandleSweep(context.Background(), NewScoreSweepTask())
	if err == nil {
		t.Fatal("sweep with failures must return an error")
	}
	if len(svc.recomputed) != 2 {
		t.Fatalf("sweep must keep going past a failed client, recomputed %d", len(svc.recomputed))
	}
}
