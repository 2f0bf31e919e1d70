package notification

import (
	"go.uber.org/fx"

	"github.com/tigerroll/rlsgen/pkg/batch/core/ports"
)

// Module provides notification-related components.
var Module = fx.Options(
	// Concrete Notifier.
	fx.Provide(fx.Annotate(
		NewLogNotifier,
		fx.As(new(ports.Notifier)),
	)),
	// Listener that forwards run completion to the Notifier.
	fx.Provide(fx.Annotate(
		NewNotificationListener,
		fx.ResultTags(`group:"runListeners"`),
	)),
)
