package listener

import (
	"go.uber.org/fx"

	"github.com/tigerroll/rlsgen/pkg/batch/listener/logging"
	"github.com/tigerroll/rlsgen/pkg/batch/listener/notification"
)

// Module aggregates all run listener modules.
var Module = fx.Options(
	logging.Module,
	notification.Module,
)
