package defaulters

import (
	"go.uber.org/fx"

	"github.com/municipay/municipay/internal/defaulters/service"
)

var Module = fx.Module("defaulters.service",
	fx.Provide(service.NewService),
)
