package forecast

import (
	"go.uber.org/fx"

	"github.com/municipay/municipay/internal/forecast/service"
)

var Module = fx.Module("forecast.service",
	fx.Provide(service.NewService),
)
