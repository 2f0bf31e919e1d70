package notification_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
	"github.com/tigerroll/rlsgen/pkg/batch/listener/notification"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })
	return &buf
}

func TestNotificationListener_Success(t *testing.T) {
	buf := captureLog(t)
	l := notification.NewNotificationListener(notification.NewLogNotifier())
	summary := model.NewRunSummary("run", 2, []model.JobResult{
		{Status: model.JobStatusSucceeded},
		{Status: model.JobStatusSucceeded},
	})

	l.AfterRun(context.Background(), summary)
	assert.Contains(t, buf.String(), "All test files generated successfully!")
}

func TestNotificationListener_FailureSummary(t *testing.T) {
	buf := captureLog(t)
	now := time.Now()
	summary := model.NewRunSummary("run", 2, []model.JobResult{
		{PolicyIdentity: "public.posts.read", Status: model.JobStatusSucceeded, StartTime: now, EndTime: now.Add(time.Second)},
		{PolicyIdentity: "public.posts.delete", Status: model.JobStatusFailed, Err: errors.New("disk full"), StartTime: now, EndTime: now.Add(2 * time.Second)},
	})

	notification.NewNotificationListener(notification.NewLogNotifier()).AfterRun(context.Background(), summary)
	out := buf.String()
	assert.NotContains(t, out, "All test files generated successfully!")
	assert.Contains(t, out, "public.posts.delete: disk full")
	assert.Contains(t, out, "Failed to generate 1 of 2 test files (2s)")
}
