package logging

import (
	"context"

	port "github.com/tigerroll/rlsgen/pkg/batch/core/application/port"
	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

// --- Progress Listener ---

// ProgressListener writes one line per finished job.
type ProgressListener struct{}

func NewProgressListener() port.RunListener {
	return &ProgressListener{}
}

func (l *ProgressListener) BeforeRun(ctx context.Context, runID string, jobCount, poolSize int) {
	logger.Infof("Processing %d policies with %d workers...", jobCount, poolSize)
	logger.Debugf("RunListener: BeforeRun - RunID: %s", runID)
}

func (l *ProgressListener) AfterJob(ctx context.Context, result model.JobResult, completed, total int) {
	if result.Status == model.JobStatusSucceeded {
		logger.Infof("Generated test file for policy: %s (%d/%d)", result.PolicyName, completed, total)
		return
	}
	logger.Errorf("Failed to generate test file for policy: %s (%d/%d): %s",
		result.PolicyName, completed, total, exception.ExtractErrorMessage(result.Err))
	logger.Debugf("RunListener: AfterJob - Policy: %s, Worker: %d, Error: %v", result.PolicyIdentity, result.WorkerIndex, result.Err)
}

func (l *ProgressListener) AfterRun(ctx context.Context, summary model.RunSummary) {
	logger.Debugf("RunListener: AfterRun - RunID: %s, Succeeded: %d, Failed: %d", summary.RunID, summary.Succeeded, summary.Failed)
}

var _ port.RunListener = (*ProgressListener)(nil)
