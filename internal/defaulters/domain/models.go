// Package domain defines the defaulters classification output. An account
// is in default only when its bill still carries a positive outstanding
// balance after the annual cutoff date.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"

	registrydomain "github.com/municipay/municipay/internal/registry/domain"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

type Filter struct {
	BillType       *registrydomain.AccountType
	ZoneID         *snowflake.ID
	MinOutstanding float64
	// Limit caps the detailed list; breakdowns always cover the full set.
	Limit int
}

type Defaulter struct {
	BillID        snowflake.ID               `json:"bill_id"`
	BillNumber    string                     `json:"bill_number"`
	BillType      registrydomain.AccountType `json:"bill_type"`
	ReferenceID   snowflake.ID               `json:"reference_id"`
	OwnerName     string                     `json:"owner_name"`
	ZoneName      string                     `json:"zone_name"`
	BillingYear   int                        `json:"billing_year"`
	AmountPayable float64                    `json:"amount_payable"`
	Paid          float64                    `json:"paid"`
	Outstanding   float64                    `json:"outstanding"`
	AgeDays       int                        `json:"age_days"`
	AgingBucket   string                     `json:"aging_bucket"`
	Priority      Priority                   `json:"priority"`
}

type BucketStat struct {
	Bucket string  `json:"bucket"`
	Count  int     `json:"count"`
	Total  float64 `json:"total"`
}

type GroupStat struct {
	Key   string  `json:"key"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

type Summary struct {
	Count            int     `json:"count"`
	TotalOutstanding float64 `json:"total_outstanding"`
}

type Report struct {
	AfterCutoff bool         `json:"after_cutoff"`
	CutoffDate  time.Time    `json:"cutoff_date"`
	Summary     Summary      `json:"summary"`
	Aging       []BucketStat `json:"aging_breakdown"`
	Zones       []GroupStat  `json:"zone_breakdown"`
	Types       []GroupStat  `json:"type_breakdown"`
	Defaulters  []Defaulter  `json:"defaulters"`
}

// OutstandingRow is the raw bill + payment join the classifier works from.
type OutstandingRow struct {
	BillID        snowflake.ID
	BillNumber    string
	BillType      registrydomain.AccountType
	ReferenceID   snowflake.ID
	BillingYear   int
	AmountPayable float64
	Paid          float64
	OwnerName     string
	ZoneName      string
}

type Repository interface {
	ListOutstandingRows(ctx context.Context, f Filter) ([]OutstandingRow, error)
}

type Service interface {
	Classify(ctx context.Context, f Filter) (Report, error)
}
