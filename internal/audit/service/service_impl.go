package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditdomain "github.com/municipay/municipay/internal/audit/domain"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

func NewService(p ServiceParam) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
	}
}

func (s *Service) Record(ctx context.Context, actor, action string, metadata map[string]any) error {
	event := auditdomain.Event{
		ID:        s.genID.Generate(),
		Actor:     actor,
		Action:    action,
		Metadata:  datatypes.JSONMap(metadata),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return err
	}
	s.log.Info("audit event recorded",
		zap.String("actor", actor),
		zap.String("action", action),
	)
	return nil
}

func (s *Service) ListByAction(ctx context.Context, action string, limit int) ([]auditdomain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []auditdomain.Event
	err := s.db.WithContext(ctx).
		Where("action = ?", action).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
