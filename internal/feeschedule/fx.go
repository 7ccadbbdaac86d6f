package feeschedule

import (
	"go.uber.org/fx"

	"github.com/municipay/municipay/internal/feeschedule/service"
)

var Module = fx.Module("feeschedule.service",
	fx.Provide(service.NewService),
)
