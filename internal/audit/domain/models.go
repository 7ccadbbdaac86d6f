// Package domain defines the audit sink contract: one structured event per
// completed operation of interest.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	ActionBillsGenerated = "billing.bills_generated"
)

type Event struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Actor     string            `gorm:"type:text;not null" json:"actor"`
	Action    string            `gorm:"type:text;not null;index" json:"action"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
}

func (Event) TableName() string { return "audit_events" }

type Service interface {
	Record(ctx context.Context, actor, action string, metadata map[string]any) error
	ListByAction(ctx context.Context, action string, limit int) ([]Event, error)
}
