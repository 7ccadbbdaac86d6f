package server

import (
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	defaultersdomain "github.com/municipay/municipay/internal/defaulters/domain"
	registrydomain "github.com/municipay/municipay/internal/registry/domain"
)

func (s *Server) ClassifyDefaulters(c *gin.Context) {
	var filter defaultersdomain.Filter

	if v := c.Query("bill_type"); v != "" {
		typ := registrydomain.AccountType(v)
		if !typ.Valid() {
			badRequest(c, "bill_type", "must be business or property")
			return
		}
		filter.BillType = &typ
	}
	if v := c.Query("zone_id"); v != "" {
		id, err := snowflake.ParseString(v)
		if err != nil {
			badRequest(c, "zone_id", "must be a valid id")
			return
		}
		filter.ZoneID = &id
	}
	if v := c.Query("min_outstanding"); v != "" {
		min, err := strconv.ParseFloat(v, 64)
		if err != nil || min < 0 {
			badRequest(c, "min_outstanding", "must be a non-negative number")
			return
		}
		filter.MinOutstanding = min
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			badRequest(c, "limit", "must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	report, err := s.defaulterssvc.Classify(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respondData(c, report)
}
