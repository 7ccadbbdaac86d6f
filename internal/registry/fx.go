package registry

import (
	"go.uber.org/fx"

	"github.com/municipay/municipay/internal/registry/repository"
)

var Module = fx.Module("registry",
	fx.Provide(repository.NewRepository),
)
