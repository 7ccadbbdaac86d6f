// Package domain defines fee structures and the resolver contract.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	registrydomain "github.com/municipay/municipay/internal/registry/domain"
)

// ErrNoActiveFeeStructure means no active fee entry matches the account's
// classification. Generation treats this as a skip, never an abort.
var ErrNoActiveFeeStructure = errors.New("no active fee structure for classification")

// FeeStructure maps a classification to its fee. The amount is a flat fee
// for businesses and a per-room rate for properties. Inactive historical
// rows may coexist; only active ones resolve.
type FeeStructure struct {
	ID             snowflake.ID               `gorm:"primaryKey"`
	AccountType    registrydomain.AccountType `gorm:"type:text;not null;index:idx_fee_lookup"`
	Classification string                     `gorm:"type:text;not null;index:idx_fee_lookup"`
	Amount         float64                    `gorm:"not null"`
	Active         bool                       `gorm:"not null;default:true"`
	CreatedAt      time.Time                  `gorm:"not null"`
}

func (FeeStructure) TableName() string { return "fee_structures" }

// Resolver computes the current-year fee for an account.
type Resolver interface {
	Resolve(ctx context.Context, account registrydomain.Account) (float64, error)
}

type Repository interface {
	// FindActive returns the newest active fee structure for the
	// classification, or nil when none exists.
	FindActive(ctx context.Context, typ registrydomain.AccountType, classification string) (*FeeStructure, error)
}
