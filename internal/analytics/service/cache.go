package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	analyticsdomain "github.com/municipay/municipay/internal/analytics/domain"
)

// The cache is strictly best-effort: a redis outage degrades to database
// reads, never to an error.

func (s *Service) cachedReport(ctx context.Context, f analyticsdomain.Filter) (analyticsdomain.Report, bool) {
	if s.cache == nil || s.ttl <= 0 {
		return analyticsdomain.Report{}, false
	}
	raw, err := s.cache.Get(ctx, cacheKey(f)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Debug("analytics cache read failed", zap.Error(err))
		}
		return analyticsdomain.Report{}, false
	}
	var report analyticsdomain.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return analyticsdomain.Report{}, false
	}
	return report, true
}

func (s *Service) storeReport(ctx context.Context, f analyticsdomain.Filter, report analyticsdomain.Report) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(f), raw, s.ttl).Err(); err != nil {
		s.log.Debug("analytics cache write failed", zap.Error(err))
	}
}
