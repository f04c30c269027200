package commission

import (
	"github.com/swiftdrop/dispatch/internal/commission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commission.service",
	fx.Provide(service.NewService),
)
