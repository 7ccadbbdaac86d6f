package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"

	registrydomain "github.com/municipay/municipay/internal/registry/domain"
)

var ErrBillNotFound = errors.New("bill not found")

type Scope string

const (
	ScopeAll        Scope = "all"
	ScopeBusinesses Scope = "businesses"
	ScopeProperties Scope = "properties"
	ScopeSingle     Scope = "single"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeAll, ScopeBusinesses, ScopeProperties, ScopeSingle:
		return true
	}
	return false
}

// ValidationError rejects a request before any work begins; nothing is
// committed when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type GenerateRequest struct {
	Scope       Scope
	BillingYear int
	Actor       string

	// optional narrowing filters
	ZoneID       *snowflake.ID
	BusinessType *string

	// required when Scope is ScopeSingle
	AccountID   *snowflake.ID
	AccountType *registrydomain.AccountType
}

type GenerateResult struct {
	BusinessBills int `json:"business_bills"`
	PropertyBills int `json:"property_bills"`
	Skipped       int `json:"skipped"`
	Total         int `json:"total"`
}

type PreviewResult struct {
	BusinessBills int     `json:"business_bills"`
	PropertyBills int     `json:"property_bills"`
	TotalBills    int     `json:"total_bills"`
	TotalAmount   float64 `json:"total_amount"`
}

// ArrearsBreakdown carries the unpaid balance inherited from the
// immediately preceding billing year.
type ArrearsBreakdown struct {
	OldBill          float64 `json:"old_bill"`
	PreviousPayments float64 `json:"previous_payments"`
	Arrears          float64 `json:"arrears"`
}

type Service interface {
	// Generate creates this year's bills for the scoped account set as one
	// atomic batch. Individual skips (duplicate bill, no active fee) are
	// counted, not raised; any persistence failure rolls back the whole
	// batch.
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
	// Preview runs the identical candidate and computation path without
	// persisting anything.
	Preview(ctx context.Context, req GenerateRequest) (PreviewResult, error)
	// MarkServed records that a printed bill was delivered to the account
	// holder. It fails with ErrBillNotFound for unknown bills.
	MarkServed(ctx context.Context, billID snowflake.ID, servedBy string) error
}
