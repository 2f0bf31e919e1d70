package logging

import "go.uber.org/fx"

// Module contributes the ProgressListener to the run listener group.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewProgressListener,
		fx.ResultTags(`group:"runListeners"`),
	)),
)
