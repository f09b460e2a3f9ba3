package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridianhq/meridian/internal/jobs"
	"github.com/meridianhq/meridian/internal/scoring"
)

const (
	// TaskScoreRecompute recomputes the compliance score of one client.
	TaskScoreRecompute = "score:recompute"
	// TaskScoreSweep recomputes every active client's score, run nightly.
	TaskScoreSweep = "score:sweep"
)

// ScoreRecomputePayload identifies the client to rescore.
type ScoreRecomputePayload struct {
	TenantID int64 `json:"tenant_id"`
	ClientID int64 `json:"client_id"`
}

// ScoringService is the surface of the scoring engine the jobs need.
type ScoringService interface {
	RecomputeForClient(ctx context.Context, tenantID, clientID int64) (scoring.Snapshot, error)
	ActiveClients(ctx context.Context) ([]scoring.ClientRef, error)
}

// ScoreRecomputeJob executes score recomputations off the request path.
type ScoreRecomputeJob struct {
	Service ScoringService
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

func NewScoreRecomputeJob(service ScoringService, logger *slog.Logger, metrics *jobmetrics.Metrics) *ScoreRecomputeJob {
	return &ScoreRecomputeJob{Service: service, Logger: logger, Metrics: metrics}
}

// NewScoreRecomputeTask creates the single-client task.
func NewScoreRecomputeTask(tenantID, clientID int64) (*asynq.Task, error) {
	body, err := json.Marshal(ScoreRecomputePayload{TenantID: tenantID, ClientID: clientID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskScoreRecompute, body, asynq.Queue(QueueDefault)), nil
}

// NewScoreSweepTask creates the tenant-wide sweep task.
func NewScoreSweepTask() *asynq.Task {
	return asynq.NewTask(TaskScoreSweep, nil, asynq.Queue(QueueDefault))
}

// HandleRecompute processes TaskScoreRecompute tasks.
func (j *ScoreRecomputeJob) HandleRecompute(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("score recompute: dependencies not configured")
	}
	var payload ScoreRecomputePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.TenantID <= 0 || payload.ClientID <= 0 {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskScoreRecompute)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	snapshot, err := j.Service.RecomputeForClient(ctx, payload.TenantID, payload.ClientID)
	if err != nil {
		resultErr = err
		j.log(TaskScoreRecompute).Error("recompute score",
			slog.Int64("tenant_id", payload.TenantID),
			slog.Int64("client_id", payload.ClientID),
			slog.Any("error", err))
		return resultErr
	}

	j.log(TaskScoreRecompute).Info("score recomputed",
		slog.Int64("tenant_id", payload.TenantID),
		slog.Int64("client_id", payload.ClientID),
		slog.Int("value", snapshot.Value),
		slog.String("level", string(snapshot.Level)))
	return resultErr
}

// HandleSweep processes TaskScoreSweep tasks. One failing client does
// not abort the sweep; the job fails at the end if any client failed.
func (j *ScoreRecomputeJob) HandleSweep(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("score sweep: dependencies not configured")
	}

	tracker := j.metrics().Track(TaskScoreSweep)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	clients, err := j.Service.ActiveClients(ctx)
	if err != nil {
		resultErr = err
		j.log(TaskScoreSweep).Error("list active clients", slog.Any("error", err))
		return resultErr
	}

	start := time.Now()
	failed := 0
	for _, ref := range clients {
		if ctx.Err() != nil {
			resultErr = ctx.Err()
			return resultErr
		}
		if _, err := j.Service.RecomputeForClient(ctx, ref.TenantID, ref.ClientID); err != nil {
			failed++
			j.log(TaskScoreSweep).Error("recompute score",
				slog.Int64("tenant_id", ref.TenantID),
				slog.Int64("client_id", ref.ClientID),
				slog.Any("error", err))
		}
	}
	if failed > 0 {
		resultErr = errors.New("score sweep: some clients failed")
	}

	j.log(TaskScoreSweep).Info("score sweep finished",
		slog.Int("clients", len(clients)),
		slog.Int("failed", failed),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *ScoreRecomputeJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ScoreRecomputeJob) log(task string) *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", task))
	}
	return slog.Default().With(slog.String("job", task))
}
