package partitioner

import "go.uber.org/fx"

// Module provides the default Partitioner to Fx.
var Module = fx.Provide(NewRoundRobinPartitioner)
