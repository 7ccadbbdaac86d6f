package audit

import (
	"go.uber.org/fx"

	"github.com/municipay/municipay/internal/audit/service"
)

var Module = fx.Module("audit.service",
	fx.Provide(service.NewService),
)
