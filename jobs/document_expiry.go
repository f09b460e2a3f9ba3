package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridianhq/meridian/internal/documents"
	jobmetrics "github.com/meridianhq/meridian/internal/jobs"
)

// TaskDocumentExpiryScan flags documents whose current version lapses
// soon and mails the tenant's compliance officers.
const TaskDocumentExpiryScan = "document:expiry_scan"

const documentExpiryWindow = 30 * 24 * time.Hour

// ExpiringLister is satisfied by the documents repository.
type ExpiringLister interface {
	ListExpiring(ctx context.Context, tenantID int64, within time.Duration) ([]documents.Document, error)
}

// EmailEnqueuer queues outbound notification mails.
type EmailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// DocumentExpiryJob runs the nightly expiry scan across all tenants.
type DocumentExpiryJob struct {
	Docs      ExpiringLister
	Directory Directory
	Mail      EmailEnqueuer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

func NewDocumentExpiryJob(docs ExpiringLister, dir Directory, mail EmailEnqueuer, logger *slog.Logger, metrics *jobmetrics.Metrics) *DocumentExpiryJob {
	return &DocumentExpiryJob{Docs: docs, Directory: dir, Mail: mail, Logger: logger, Metrics: metrics}
}

// NewDocumentExpiryTask creates the sweep task.
func NewDocumentExpiryTask() *asynq.Task {
	return asynq.NewTask(TaskDocumentExpiryScan, nil, asynq.Queue(QueueDefault))
}

// Handle executes the expiry scan.
func (j *DocumentExpiryJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Docs == nil || j.Directory == nil {
		return errors.New("document expiry: dependencies not configured")
	}

	tracker := j.metrics().Track(TaskDocumentExpiryScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	tenants, err := j.Directory.TenantIDs(ctx)
	if err != nil {
		resultErr = err
		j.log().Error("list tenants", slog.Any("error", err))
		return resultErr
	}

	flagged := 0
	for _, tenantID := range tenants {
		if ctx.Err() != nil {
			resultErr = ctx.Err()
			return resultErr
		}
		docs, err := j.Docs.ListExpiring(ctx, tenantID, documentExpiryWindow)
		if err != nil {
			resultErr = err
			j.log().Error("list expiring documents", slog.Int64("tenant_id", tenantID), slog.Any("error", err))
			return resultErr
		}
		if len(docs) == 0 {
			continue
		}
		flagged += len(docs)
		if err := j.notify(ctx, tenantID, docs); err != nil {
			j.log().Warn("notify expiring documents", slog.Int64("tenant_id", tenantID), slog.Any("error", err))
		}
	}

	j.log().Info("document expiry scan finished", slog.Int("tenants", len(tenants)), slog.Int("expiring", flagged))
	return resultErr
}

func (j *DocumentExpiryJob) notify(ctx context.Context, tenantID int64, docs []documents.Document) error {
	if j.Mail == nil {
		return nil
	}
	recipients, err := j.Directory.OfficerEmails(ctx, tenantID)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("%d document(s) expire within the next %d days:\n", len(docs), int(documentExpiryWindow.Hours()/24))
	for _, doc := range docs {
		body += fmt.Sprintf("- %s (client %d)\n", doc.Title, doc.ClientID)
	}
	for _, to := range recipients {
		if _, err := j.Mail.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      to,
			Subject: "Documents expiring soon",
			Body:    body,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (j *DocumentExpiryJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DocumentExpiryJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDocumentExpiryScan))
	}
	return slog.Default().With(slog.String("job", TaskDocumentExpiryScan))
}
