package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	analyticsdomain "github.com/municipay/municipay/internal/analytics/domain"
	"github.com/municipay/municipay/internal/analytics/repository"
	billingdomain "github.com/municipay/municipay/internal/billing/domain"
	"github.com/municipay/municipay/internal/clock"
	"github.com/municipay/municipay/internal/config"
	"github.com/municipay/municipay/pkg/money"
)

const defaultTopZones = 5

type Service struct {
	log   *zap.Logger
	clock clock.Clock
	repo  analyticsdomain.Repository
	cache *redis.Client
	ttl   time.Duration
}

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Config config.Config
	Cache  *redis.Client `optional:"true"`
}

func NewService(p ServiceParam) analyticsdomain.Service {
	return &Service{
		log:   p.Log.Named("analytics.service"),
		clock: p.Clock,
		repo:  repository.NewRepository(p.DB),
		cache: p.Cache,
		ttl:   time.Duration(p.Config.Billing.AnalyticsCacheTTLSeconds) * time.Second,
	}
}

func (s *Service) Aggregate(ctx context.Context, f analyticsdomain.Filter) (analyticsdomain.Report, error) {
	if report, ok := s.cachedReport(ctx, f); ok {
		return report, nil
	}

	rows, err := s.repo.ListBillRows(ctx, f)
	if err != nil {
		return analyticsdomain.Report{}, err
	}

	now := s.clock.Now(ctx)
	report := analyticsdomain.Report{
		Summary:  summarize(rows),
		ByStatus: breakdown(rows, func(r analyticsdomain.BillRow) string { return string(r.Status) }),
		ByType:   breakdown(rows, func(r analyticsdomain.BillRow) string { return string(r.BillType) }),
		ByAging:  breakdown(rows, func(r analyticsdomain.BillRow) string { return billAgeBucket(now, r.GeneratedAt) }),
	}

	topZones := f.TopZones
	if topZones <= 0 {
		topZones = defaultTopZones
	}
	zones := breakdown(rows, func(r analyticsdomain.BillRow) string { return r.ZoneName })
	if len(zones) > topZones {
		zones = zones[:topZones]
	}
	report.ByZone = zones

	s.storeReport(ctx, f, report)
	return report, nil
}

func (s *Service) MonthlySeries(ctx context.Context, months int) (analyticsdomain.SeriesReport, error) {
	if months <= 0 {
		months = 12
	}
	now := s.clock.Now(ctx)
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	start := end.AddDate(0, -months, 0)
	// growth baselines reach up to a year before the returned window
	lookbackStart := start.AddDate(-1, 0, 0)

	bills, err := s.repo.ListBillRows(ctx, analyticsdomain.Filter{From: &lookbackStart, To: &end})
	if err != nil {
		return analyticsdomain.SeriesReport{}, err
	}
	payments, err := s.repo.ListSuccessfulPayments(ctx, lookbackStart, end)
	if err != nil {
		return analyticsdomain.SeriesReport{}, err
	}

	full := buildMonthlySeries(lookbackStart, months+12, bills, payments)
	growth := computeGrowth(full)
	return analyticsdomain.SeriesReport{
		Series: full[12:],
		Growth: growth[12:],
	}, nil
}

func summarize(rows []analyticsdomain.BillRow) analyticsdomain.Summary {
	var sum analyticsdomain.Summary
	for _, row := range rows {
		sum.BillCount++
		sum.TotalRevenue += row.AmountPayable
		sum.CollectedRevenue += collectedFor(row)
		switch row.Status {
		case billingdomain.BillStatusPending:
			sum.PendingRevenue += row.AmountPayable
		case billingdomain.BillStatusOverdue:
			sum.OverdueRevenue += row.AmountPayable
		}
	}
	sum.TotalRevenue = money.Round2(sum.TotalRevenue)
	sum.CollectedRevenue = money.Round2(sum.CollectedRevenue)
	sum.PendingRevenue = money.Round2(sum.PendingRevenue)
	sum.OverdueRevenue = money.Round2(sum.OverdueRevenue)
	sum.CollectionRate = collectionRate(sum.CollectedRevenue, sum.TotalRevenue)
	return sum
}

// collectedFor credits a bill's full face value once Paid, the successful
// payment total while Partially Paid, and nothing otherwise.
func collectedFor(row analyticsdomain.BillRow) float64 {
	switch row.Status {
	case billingdomain.BillStatusPaid:
		return row.AmountPayable
	case billingdomain.BillStatusPartiallyPaid:
		return row.Paid
	default:
		return 0
	}
}

// collectionRate is clamped to [0, 100] so late or duplicate payment rows
// can never report above-100% collection.
func collectionRate(collected, total float64) float64 {
	if total <= 0 {
		return 0
	}
	rate := collected / total * 100
	if rate > 100 {
		return 100
	}
	if rate < 0 {
		return 0
	}
	return money.Round2(rate)
}

func breakdown(rows []analyticsdomain.BillRow, key func(analyticsdomain.BillRow) string) []analyticsdomain.DimensionStat {
	totals := make(map[string]*analyticsdomain.DimensionStat)
	for _, row := range rows {
		k := key(row)
		stat, ok := totals[k]
		if !ok {
			stat = &analyticsdomain.DimensionStat{Key: k}
			totals[k] = stat
		}
		stat.Count++
		stat.Total += row.AmountPayable
	}
	out := make([]analyticsdomain.DimensionStat, 0, len(totals))
	for _, stat := range totals {
		stat.Total = money.Round2(stat.Total)
		if stat.Count > 0 {
			stat.Average = money.Round2(stat.Total / float64(stat.Count))
		}
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func billAgeBucket(now, generatedAt time.Time) string {
	ageDays := int(now.Sub(generatedAt).Hours() / 24)
	switch {
	case ageDays <= 30:
		return "0-30"
	case ageDays <= 60:
		return "31-60"
	case ageDays <= 90:
		return "61-90"
	case ageDays <= 180:
		return "91-180"
	default:
		return ">180"
	}
}

func buildMonthlySeries(start time.Time, months int, bills []analyticsdomain.BillRow, payments []analyticsdomain.PaymentRow) []analyticsdomain.MonthlyRevenue {
	billed := make(map[string]float64)
	collected := make(map[string]float64)
	for _, b := range bills {
		billed[b.GeneratedAt.UTC().Format("2006-01")] += b.AmountPayable
	}
	for _, p := range payments {
		collected[p.PaidAt.UTC().Format("2006-01")] += p.Amount
	}

	series := make([]analyticsdomain.MonthlyRevenue, 0, months)
	for i := 0; i < months; i++ {
		month := start.AddDate(0, i, 0).Format("2006-01")
		series = append(series, analyticsdomain.MonthlyRevenue{
			Month:     month,
			Billed:    money.Round2(billed[month]),
			Collected: money.Round2(collected[month]),
		})
	}
	return series
}

// GrowthPct is the period-over-period change. A zero prior period reads as
// 100% growth when the current period has value, 0% otherwise, so the
// signal stays meaningful without dividing by zero.
func GrowthPct(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return money.Round2((current - previous) / previous * 100)
}

func computeGrowth(series []analyticsdomain.MonthlyRevenue) []analyticsdomain.GrowthPoint {
	growth := make([]analyticsdomain.GrowthPoint, 0, len(series))
	for i, point := range series {
		g := analyticsdomain.GrowthPoint{Month: point.Month}
		if i >= 1 {
			g.MoM = GrowthPct(point.Billed, series[i-1].Billed)
		}
		if i >= 12 {
			g.YoY = GrowthPct(point.Billed, series[i-12].Billed)
		}
		growth = append(growth, g)
	}
	return growth
}

func cacheKey(f analyticsdomain.Filter) string {
	from, to := "", ""
	if f.From != nil {
		from = f.From.UTC().Format(time.RFC3339)
	}
	if f.To != nil {
		to = f.To.UTC().Format(time.RFC3339)
	}
	typ, zone, status := "", "", ""
	if f.BillType != nil {
		typ = string(*f.BillType)
	}
	if f.ZoneID != nil {
		zone = f.ZoneID.String()
	}
	if f.Status != nil {
		status = string(*f.Status)
	}
	return fmt.Sprintf("municipay:analytics:%s|%s|%s|%s|%s|%d", from, to, typ, zone, status, f.TopZones)
}
