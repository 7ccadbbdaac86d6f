package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"

	registrydomain "github.com/municipay/municipay/internal/registry/domain"
)

// Snapshot is the cached computation result written back onto the account
// row after each generation. These are the only account columns billing may
// touch.
type Snapshot struct {
	OldBill          float64
	PreviousPayments float64
	Arrears          float64
	CurrentBill      float64
	AmountPayable    float64
}

type Repository interface {
	// FindBill returns the bill for (type, account, year), nil when absent.
	FindBill(ctx context.Context, typ registrydomain.AccountType, refID snowflake.ID, year int) (*Bill, error)
	// InsertBill creates the bill unless one already exists for its
	// (bill_type, reference_id, billing_year). It reports false without an
	// error when a concurrent run won that slot; other constraint failures
	// are returned as errors.
	InsertBill(ctx context.Context, bill Bill) (bool, error)
	// SumSuccessfulPayments totals Successful payments against a bill.
	// Failed and pending payments never count.
	SumSuccessfulPayments(ctx context.Context, billID snowflake.ID) (float64, error)
	UpdateAccountSnapshot(ctx context.Context, typ registrydomain.AccountType, id snowflake.ID, snap Snapshot, now time.Time) error
	MarkServed(ctx context.Context, billID snowflake.ID, servedBy string, now time.Time) error
}
