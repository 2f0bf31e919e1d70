package notification

import (
	"context"
	"time"

	coreport "github.com/tigerroll/rlsgen/pkg/batch/core/application/port"
	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
	"github.com/tigerroll/rlsgen/pkg/batch/core/ports"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

// LogNotifier reports the run outcome through the process log.
type LogNotifier struct{}

// NewLogNotifier creates a new instance of LogNotifier.
func NewLogNotifier() ports.Notifier {
	return &LogNotifier{}
}

// NotifyRunCompletion logs the success line, or one line per failed policy followed by a count.
func (n *LogNotifier) NotifyRunCompletion(ctx context.Context, summary model.RunSummary) {
	if summary.AllSucceeded() {
		logger.Infof("All test files generated successfully!")
		return
	}
	for _, r := range summary.FailedResults() {
		logger.Errorf("  %s: %s", r.PolicyIdentity, exception.ExtractErrorMessage(r.Err))
	}
	logger.Errorf("Failed to generate %d of %d test files (%s).", summary.Failed, len(summary.Results), runDuration(summary))
}

func runDuration(summary model.RunSummary) time.Duration {
	var start, end time.Time
	for _, r := range summary.Results {
		if !r.StartTime.IsZero() && (start.IsZero() || r.StartTime.Before(start)) {
			start = r.StartTime
		}
		if r.EndTime.After(end) {
			end = r.EndTime
		}
	}
	if start.IsZero() {
		return 0
	}
	return end.Sub(start).Round(time.Millisecond)
}

var _ ports.Notifier = (*LogNotifier)(nil)

// NotificationListener forwards the end of a run to a Notifier.
type NotificationListener struct {
	notifier ports.Notifier
}

// NewNotificationListener creates a new instance of NotificationListener.
func NewNotificationListener(notifier ports.Notifier) coreport.RunListener {
	return &NotificationListener{notifier: notifier}
}

// BeforeRun exists to satisfy RunListener but does nothing.
func (l *NotificationListener) BeforeRun(ctx context.Context, runID string, jobCount, poolSize int) {}

// AfterJob exists to satisfy RunListener but does nothing.
func (l *NotificationListener) AfterJob(ctx context.Context, result model.JobResult, completed, total int) {
}

// AfterRun calls the Notifier.
func (l *NotificationListener) AfterRun(ctx context.Context, summary model.RunSummary) {
	l.notifier.NotifyRunCompletion(ctx, summary)
}

var _ coreport.RunListener = (*NotificationListener)(nil)
