package analytics

import (
	"go.uber.org/fx"

	"github.com/municipay/municipay/internal/analytics/service"
)

var Module = fx.Module("analytics.service",
	fx.Provide(service.NewService),
)
