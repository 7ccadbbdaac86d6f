package server

import (
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	registrydomain "github.com/municipay/municipay/internal/registry/domain"
)

func (s *Server) ListZones(c *gin.Context) {
	zones, err := s.accounts.ListZones(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	respondData(c, zones)
}

func (s *Server) GetAccount(c *gin.Context) {
	typ := registrydomain.AccountType(c.Param("type"))
	if !typ.Valid() {
		badRequest(c, "type", "must be business or property")
		return
	}
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		badRequest(c, "id", "must be a valid account id")
		return
	}

	account, err := s.accounts.FindAccount(c.Request.Context(), typ, id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if account == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error": gin.H{"code": "not_found", "message": "account not found"},
		})
		return
	}
	respondData(c, account)
}

func (s *Server) ListAuditEvents(c *gin.Context) {
	action := c.Query("action")
	if action == "" {
		badRequest(c, "action", "required")
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(c, "limit", "must be a non-negative integer")
			return
		}
		limit = n
	}

	events, err := s.auditsvc.ListByAction(c.Request.Context(), action, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respondData(c, events)
}
