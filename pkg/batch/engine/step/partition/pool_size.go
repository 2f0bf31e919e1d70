package partition

import (
	"runtime"

	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
)

// PoolSizePolicy derives the worker count from host parallelism and the job count.
type PoolSizePolicy struct {
	// ReserveCoordinator leaves one unit of parallelism to the coordinating goroutine.
	ReserveCoordinator bool
	// MaxWorkers replaces host parallelism when positive.
	MaxWorkers int
	// Parallelism reports host parallelism. Defaults to runtime.GOMAXPROCS(0).
	Parallelism func() int
}

// NewPoolSizePolicy creates a PoolSizePolicy from the dispatcher configuration.
func NewPoolSizePolicy(cfg config.DispatcherConfig) PoolSizePolicy {
	return PoolSizePolicy{ReserveCoordinator: cfg.ReserveCoordinator, MaxWorkers: cfg.MaxWorkers}
}

// Size returns min(P', jobCount) floored at 1, where P' is the parallelism less the
// coordinator's reservation.
func (p PoolSizePolicy) Size(jobCount int) int {
	parallelism := p.MaxWorkers
	if parallelism <= 0 {
		if p.Parallelism != nil {
			parallelism = p.Parallelism()
		} else {
			parallelism = runtime.GOMAXPROCS(0)
		}
	}
	if p.ReserveCoordinator {
		parallelism--
	}
	return max(1, min(parallelism, jobCount))
}
