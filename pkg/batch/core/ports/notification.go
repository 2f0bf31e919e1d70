package ports

import (
	"context"

	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
)

// Notifier is an abstract interface for reporting the outcome of a run outside the process.
type Notifier interface {
	// NotifyRunCompletion reports the aggregate outcome of a finished run.
	NotifyRunCompletion(ctx context.Context, summary model.RunSummary)
}
