package pricing

import (
	"github.com/swiftdrop/dispatch/internal/pricing/repository"
	"github.com/swiftdrop/dispatch/internal/pricing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing.service",
	fx.Provide(repository.NewSnapshotStore),
	fx.Provide(service.NewService),
)
