// Package db provides the shared gorm handle.
package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormprom "gorm.io/plugin/prometheus"

	"github.com/municipay/municipay/internal/config"
)

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

func New(p Params) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch p.Config.Database.Driver {
	case "postgres", "":
		dialector = postgres.Open(p.Config.Database.DSN)
	case "sqlite":
		dialector = sqlite.Open(p.Config.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", p.Config.Database.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if p.Config.Metrics.Enabled && p.Config.Database.Driver != "sqlite" {
		if err := gdb.Use(gormprom.New(gormprom.Config{
			DBName:          "municipay",
			RefreshInterval: 15,
		})); err != nil {
			p.Log.Warn("gorm prometheus plugin disabled", zap.Error(err))
		}
	}

	p.Log.Info("database connected", zap.String("driver", p.Config.Database.Driver))
	return gdb, nil
}

var Module = fx.Module("db",
	fx.Provide(New),
)
