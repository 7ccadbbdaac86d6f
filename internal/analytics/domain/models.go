// Package domain defines the collection analytics shapes: one summary plus
// independent per-dimension breakdowns computed over the same bill set.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"

	billingdomain "github.com/municipay/municipay/internal/billing/domain"
	registrydomain "github.com/municipay/municipay/internal/registry/domain"
)

type Filter struct {
	From     *time.Time
	To       *time.Time
	BillType *registrydomain.AccountType
	ZoneID   *snowflake.ID
	Status   *billingdomain.BillStatus
	// TopZones caps the zone breakdown by revenue; 0 means default (5).
	TopZones int
}

type Summary struct {
	BillCount        int     `json:"bill_count"`
	TotalRevenue     float64 `json:"total_revenue"`
	CollectedRevenue float64 `json:"collected_revenue"`
	CollectionRate   float64 `json:"collection_rate"`
	PendingRevenue   float64 `json:"pending_revenue"`
	OverdueRevenue   float64 `json:"overdue_revenue"`
}

type DimensionStat struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
}

type Report struct {
	Summary  Summary         `json:"summary"`
	ByStatus []DimensionStat `json:"by_status"`
	ByType   []DimensionStat `json:"by_type"`
	ByZone   []DimensionStat `json:"by_zone"`
	ByAging  []DimensionStat `json:"by_aging"`
}

// MonthlyRevenue is one point of the monthly time series: what was billed
// in the month against what was actually collected.
type MonthlyRevenue struct {
	Month     string  `json:"month"` // YYYY-MM
	Billed    float64 `json:"billed"`
	Collected float64 `json:"collected"`
}

type GrowthPoint struct {
	Month string  `json:"month"`
	MoM   float64 `json:"mom_pct"`
	YoY   float64 `json:"yoy_pct"`
}

type SeriesReport struct {
	Series []MonthlyRevenue `json:"series"`
	Growth []GrowthPoint    `json:"growth"`
}

// BillRow is the joined bill shape the aggregator computes from.
type BillRow struct {
	BillID        snowflake.ID
	BillType      registrydomain.AccountType
	Status        billingdomain.BillStatus
	BillingYear   int
	AmountPayable float64
	Paid          float64
	GeneratedAt   time.Time
	ZoneName      string
}

type PaymentRow struct {
	Amount float64
	PaidAt time.Time
}

type Repository interface {
	ListBillRows(ctx context.Context, f Filter) ([]BillRow, error)
	ListSuccessfulPayments(ctx context.Context, from, to time.Time) ([]PaymentRow, error)
}

type Service interface {
	Aggregate(ctx context.Context, f Filter) (Report, error)
	// MonthlySeries returns the trailing monthly billed/collected series
	// with month-over-month and year-over-year growth. Growth baselines
	// are read from the twelve months preceding the returned window, so
	// every point carries both percentages.
	MonthlySeries(ctx context.Context, months int) (SeriesReport, error)
}
