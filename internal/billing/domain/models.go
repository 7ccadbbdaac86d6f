// Package domain contains the billing store models: bills and the payments
// recorded against them. Payments are append-only and written by the payment
// ledger, never by this core.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"

	registrydomain "github.com/municipay/municipay/internal/registry/domain"
)

type BillStatus string

const (
	BillStatusPending       BillStatus = "Pending"
	BillStatusPartiallyPaid BillStatus = "Partially Paid"
	BillStatusPaid          BillStatus = "Paid"
	BillStatusOverdue       BillStatus = "Overdue"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "Pending"
	PaymentStatusSuccessful PaymentStatus = "Successful"
	PaymentStatusFailed     PaymentStatus = "Failed"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodMobile PaymentMethod = "mobile"
	PaymentMethodBank   PaymentMethod = "bank"
	PaymentMethodOnline PaymentMethod = "online"
)

// Bill is the per-year statement for one account. At most one bill exists
// per (bill_type, reference_id, billing_year); the unique index is the
// backstop for concurrent generation runs.
type Bill struct {
	ID          snowflake.ID               `gorm:"primaryKey"`
	BillNumber  string                     `gorm:"type:text;not null;uniqueIndex"`
	BillType    registrydomain.AccountType `gorm:"type:text;not null;uniqueIndex:idx_bills_account_year"`
	ReferenceID snowflake.ID               `gorm:"not null;uniqueIndex:idx_bills_account_year"`
	BillingYear int                        `gorm:"not null;uniqueIndex:idx_bills_account_year;index"`

	OldBill          float64 `gorm:"not null;default:0"`
	PreviousPayments float64 `gorm:"not null;default:0"`
	Arrears          float64 `gorm:"not null;default:0"`
	CurrentBill      float64 `gorm:"not null;default:0"`
	AmountPayable    float64 `gorm:"not null;default:0"`

	Status BillStatus `gorm:"type:text;not null;default:'Pending';index"`

	Served   bool `gorm:"not null;default:false"`
	ServedAt *time.Time
	ServedBy *string `gorm:"type:text"`

	GeneratedBy string    `gorm:"type:text;not null;default:''"`
	GeneratedAt time.Time `gorm:"not null"`
}

func (Bill) TableName() string { return "bills" }

type Payment struct {
	ID     snowflake.ID  `gorm:"primaryKey"`
	BillID snowflake.ID  `gorm:"not null;index"`
	Amount float64       `gorm:"not null"`
	Status PaymentStatus `gorm:"type:text;not null;default:'Pending'"`
	Method PaymentMethod `gorm:"type:text;not null;default:'cash'"`
	PaidAt time.Time     `gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

// BillNumber derives the globally unique, human-readable bill number. It is
// reconstructable from (year, type, account id) alone, so repeated
// generation attempts collide predictably instead of minting duplicates.
func BillNumber(year int, typ registrydomain.AccountType, accountID snowflake.ID) string {
	return fmt.Sprintf("BILL/%d/%s/%06d", year, typ.Tag(), int64(accountID))
}
