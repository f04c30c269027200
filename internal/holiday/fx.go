package holiday

import "go.uber.org/fx"

// Module provides the hot-reloadable holiday calendar.
var Module = fx.Module("holiday",
	fx.Provide(NewCalendarHolder),
)
