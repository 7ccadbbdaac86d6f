package server

import (
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	analyticsdomain "github.com/municipay/municipay/internal/analytics/domain"
	billingdomain "github.com/municipay/municipay/internal/billing/domain"
	registrydomain "github.com/municipay/municipay/internal/registry/domain"
)

func (s *Server) AggregateCollection(c *gin.Context) {
	filter, ok := s.bindAnalyticsFilter(c)
	if !ok {
		return
	}

	report, err := s.analyticssvc.Aggregate(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respondData(c, report)
}

func (s *Server) MonthlySeries(c *gin.Context) {
	months, ok := s.bindMonths(c, 12)
	if !ok {
		return
	}

	series, err := s.analyticssvc.MonthlySeries(c.Request.Context(), months)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respondData(c, series)
}

// ForecastRevenue chains the aggregator's monthly series into the trend
// projection, matching how the presentation layer consumes the two.
func (s *Server) ForecastRevenue(c *gin.Context) {
	months, ok := s.bindMonths(c, 12)
	if !ok {
		return
	}
	periods := 3
	if v := c.Query("periods"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 || p > 24 {
			badRequest(c, "periods", "must be between 1 and 24")
			return
		}
		periods = p
	}

	series, err := s.analyticssvc.MonthlySeries(c.Request.Context(), months)
	if err != nil {
		abortWithError(c, err)
		return
	}

	values := make([]float64, 0, len(series.Series))
	for _, point := range series.Series {
		values = append(values, point.Collected)
	}

	respondData(c, s.forecastsvc.Project(values, periods))
}

func (s *Server) bindMonths(c *gin.Context, fallback int) (int, bool) {
	if v := c.Query("months"); v != "" {
		months, err := strconv.Atoi(v)
		if err != nil || months <= 0 || months > 60 {
			badRequest(c, "months", "must be between 1 and 60")
			return 0, false
		}
		return months, true
	}
	return fallback, true
}

func (s *Server) bindAnalyticsFilter(c *gin.Context) (analyticsdomain.Filter, bool) {
	var filter analyticsdomain.Filter

	if v := c.Query("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(c, "from", "must be RFC3339")
			return filter, false
		}
		filter.From = &from
	}
	if v := c.Query("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(c, "to", "must be RFC3339")
			return filter, false
		}
		filter.To = &to
	}
	if v := c.Query("bill_type"); v != "" {
		typ := registrydomain.AccountType(v)
		if !typ.Valid() {
			badRequest(c, "bill_type", "must be business or property")
			return filter, false
		}
		filter.BillType = &typ
	}
	if v := c.Query("zone_id"); v != "" {
		id, err := snowflake.ParseString(v)
		if err != nil {
			badRequest(c, "zone_id", "must be a valid id")
			return filter, false
		}
		filter.ZoneID = &id
	}
	if v := c.Query("status"); v != "" {
		status := billingdomain.BillStatus(v)
		filter.Status = &status
	}
	if v := c.Query("top_zones"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(c, "top_zones", "must be a non-negative integer")
			return filter, false
		}
		filter.TopZones = n
	}
	return filter, true
}
