package partitioner

import (
	"context"

	port "github.com/tigerroll/rlsgen/pkg/batch/core/application/port"
	model "github.com/tigerroll/rlsgen/pkg/batch/core/domain/model"
	logger "github.com/tigerroll/rlsgen/pkg/batch/support/util/logger"
)

// RoundRobinPartitioner is the default [port.Partitioner].
// Job i goes to worker i mod gridSize, so each worker sees its jobs in fetch order.
type RoundRobinPartitioner struct{}

// NewRoundRobinPartitioner creates a new instance of [RoundRobinPartitioner].
func NewRoundRobinPartitioner() port.Partitioner {
	return &RoundRobinPartitioner{}
}

// Partition deals jobs out to gridSize queues. A gridSize below 1 is treated as 1.
func (p *RoundRobinPartitioner) Partition(ctx context.Context, jobs []model.GenerationJob, gridSize int) [][]model.GenerationJob {
	if gridSize < 1 {
		gridSize = 1
	}
	logger.Debugf("RoundRobinPartitioner: Assigning %d jobs to %d workers.", len(jobs), gridSize)
	queues := make([][]model.GenerationJob, gridSize)
	for i, job := range jobs {
		w := i % gridSize
		queues[w] = append(queues[w], job)
	}
	return queues
}

// Verify that [RoundRobinPartitioner] satisfies the [port.Partitioner] interface.
var _ port.Partitioner = (*RoundRobinPartitioner)(nil)
