package service

import (
	"context"
	"sort"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/municipay/municipay/internal/clock"
	defaultersdomain "github.com/municipay/municipay/internal/defaulters/domain"
	"github.com/municipay/municipay/internal/defaulters/repository"
	"github.com/municipay/municipay/pkg/money"
)

type Service struct {
	log   *zap.Logger
	clock clock.Clock
	repo  defaultersdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

func NewService(p ServiceParam) defaultersdomain.Service {
	return &Service{
		log:   p.Log.Named("defaulters.service"),
		clock: p.Clock,
		repo:  repository.NewRepository(p.DB),
	}
}

// Classify applies the cutoff policy: before September 30 of the current
// year nothing is a defaulter regardless of balance; after it, every bill
// with a positive outstanding balance is. Ages are measured from the cutoff
// date, not from bill generation, so all outstanding bills age uniformly.
func (s *Service) Classify(ctx context.Context, f defaultersdomain.Filter) (defaultersdomain.Report, error) {
	now := s.clock.Now(ctx)
	cutoff := clock.CutoffDate(now)

	report := defaultersdomain.Report{
		CutoffDate: cutoff,
		Aging:      []defaultersdomain.BucketStat{},
		Zones:      []defaultersdomain.GroupStat{},
		Types:      []defaultersdomain.GroupStat{},
		Defaulters: []defaultersdomain.Defaulter{},
	}
	if !now.After(cutoff) {
		return report, nil
	}
	report.AfterCutoff = true

	rows, err := s.repo.ListOutstandingRows(ctx, f)
	if err != nil {
		return defaultersdomain.Report{}, err
	}

	ageDays := int(now.Sub(cutoff).Hours() / 24)
	bucket := agingBucket(ageDays)

	defaulters := make([]defaultersdomain.Defaulter, 0, len(rows))
	for _, row := range rows {
		outstanding := money.Round2(row.AmountPayable - row.Paid)
		if outstanding <= 0 || outstanding < f.MinOutstanding {
			continue
		}
		defaulters = append(defaulters, defaultersdomain.Defaulter{
			BillID:        row.BillID,
			BillNumber:    row.BillNumber,
			BillType:      row.BillType,
			ReferenceID:   row.ReferenceID,
			OwnerName:     row.OwnerName,
			ZoneName:      row.ZoneName,
			BillingYear:   row.BillingYear,
			AmountPayable: row.AmountPayable,
			Paid:          row.Paid,
			Outstanding:   outstanding,
			AgeDays:       ageDays,
			AgingBucket:   bucket,
			Priority:      priorityTier(outstanding, ageDays),
		})
	}

	report.Summary.Count = len(defaulters)
	for _, d := range defaulters {
		report.Summary.TotalOutstanding = money.Round2(report.Summary.TotalOutstanding + d.Outstanding)
	}
	report.Aging = bucketBreakdown(defaulters)
	report.Zones = groupBreakdown(defaulters, func(d defaultersdomain.Defaulter) string { return d.ZoneName })
	report.Types = groupBreakdown(defaulters, func(d defaultersdomain.Defaulter) string { return string(d.BillType) })

	sort.Slice(defaulters, func(i, j int) bool {
		if defaulters[i].Outstanding != defaulters[j].Outstanding {
			return defaulters[i].Outstanding > defaulters[j].Outstanding
		}
		return defaulters[i].BillID < defaulters[j].BillID
	})
	if f.Limit > 0 && len(defaulters) > f.Limit {
		defaulters = defaulters[:f.Limit]
	}
	report.Defaulters = defaulters

	return report, nil
}

func agingBucket(ageDays int) string {
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

// priorityTier is a presentation hint and is never persisted.
func priorityTier(outstanding float64, ageDays int) defaultersdomain.Priority {
	switch {
	case outstanding >= 1000 || ageDays >= 90:
		return defaultersdomain.PriorityHigh
	case outstanding >= 500 || ageDays >= 60:
		return defaultersdomain.PriorityMedium
	default:
		return defaultersdomain.PriorityLow
	}
}

func bucketBreakdown(defaulters []defaultersdomain.Defaulter) []defaultersdomain.BucketStat {
	order := []string{"0-30", "31-60", "61-90", "91-180", ">180"}
	totals := make(map[string]*defaultersdomain.BucketStat)
	for _, d := range defaulters {
		stat, ok := totals[d.AgingBucket]
		if !ok {
			stat = &defaultersdomain.BucketStat{Bucket: d.AgingBucket}
			totals[d.AgingBucket] = stat
		}
		stat.Count++
		stat.Total = money.Round2(stat.Total + d.Outstanding)
	}
	out := make([]defaultersdomain.BucketStat, 0, len(totals))
	for _, bucket := range order {
		if stat, ok := totals[bucket]; ok {
			out = append(out, *stat)
		}
	}
	return out
}

func groupBreakdown(defaulters []defaultersdomain.Defaulter, key func(defaultersdomain.Defaulter) string) []defaultersdomain.GroupStat {
	totals := make(map[string]*defaultersdomain.GroupStat)
	for _, d := range defaulters {
		k := key(d)
		stat, ok := totals[k]
		if !ok {
			stat = &defaultersdomain.GroupStat{Key: k}
			totals[k] = stat
		}
		stat.Count++
		stat.Total = money.Round2(stat.Total + d.Outstanding)
	}
	out := make([]defaultersdomain.GroupStat, 0, len(totals))
	for _, stat := range totals {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}
