package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridianhq/meridian/internal/filings"
	jobmetrics "github.com/meridianhq/meridian/internal/jobs"
)

// TaskFilingReminder mails officers about filings coming due.
const TaskFilingReminder = "filing:reminder"

const filingReminderDays = 7

// DueLister is satisfied by the filings repository.
type DueLister interface {
	ListDueWithin(ctx context.Context, tenantID int64, days int) ([]filings.Filing, error)
}

// FilingReminderJob runs the daily deadline reminder across tenants.
type FilingReminderJob struct {
	Filings   DueLister
	Directory Directory
	Mail      EmailEnqueuer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

func NewFilingReminderJob(f DueLister, dir Directory, mail EmailEnqueuer, logger *slog.Logger, metrics *jobmetrics.Metrics) *FilingReminderJob {
	return &FilingReminderJob{Filings: f, Directory: dir, Mail: mail, Logger: logger, Metrics: metrics}
}

// NewFilingReminderTask creates the reminder task.
func NewFilingReminderTask() *asynq.Task {
	return asynq.NewTask(TaskFilingReminder, nil, asynq.Queue(QueueDefault))
}

// Handle executes the reminder sweep.
func (j *FilingReminderJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Filings == nil || j.Directory == nil {
		return errors.New("filing reminder: dependencies not configured")
	}

	tracker := j.metrics().Track(TaskFilingReminder)
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

	reminded := 0
	for _, tenantID := range tenants {
		if ctx.Err() != nil {
			resultErr = ctx.Err()
			return resultErr
		}
		due, err := j.Filings.ListDueWithin(ctx, tenantID, filingReminderDays)
		if err != nil {
			resultErr = err
			j.log().Error("list due filings", slog.Int64("tenant_id", tenantID), slog.Any("error", err))
			return resultErr
		}
		if len(due) == 0 {
			continue
		}
		reminded += len(due)
		if err := j.notify(ctx, tenantID, due); err != nil {
			j.log().Warn("notify due filings", slog.Int64("tenant_id", tenantID), slog.Any("error", err))
		}
	}

	j.log().Info("filing reminder finished", slog.Int("tenants", len(tenants)), slog.Int("due", reminded))
	return resultErr
}

func (j *FilingReminderJob) notify(ctx context.Context, tenantID int64, due []filings.Filing) error {
	if j.Mail == nil {
		return nil
	}
	recipients, err := j.Directory.OfficerEmails(ctx, tenantID)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("%d filing(s) due within the next %d days:\n", len(due), filingReminderDays)
	for _, f := range due {
		body += fmt.Sprintf("- %s %s for client %d, due %s\n", f.Kind, f.Period, f.ClientID, f.DueDate.Format("2006-01-02"))
	}
	for _, to := range recipients {
		if _, err := j.Mail.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      to,
			Subject: "Filings due soon",
			Body:    body,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (j *FilingReminderJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *FilingReminderJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskFilingReminder))
	}
	return slog.Default().With(slog.String("job", TaskFilingReminder))
}
