package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	billingdomain "github.com/municipay/municipay/internal/billing/domain"
	registrydomain "github.com/municipay/municipay/internal/registry/domain"
)

type generateBillsRequest struct {
	Scope        string `json:"scope" binding:"required"`
	BillingYear  int    `json:"billing_year" binding:"required"`
	Actor        string `json:"actor"`
	ZoneID       string `json:"zone_id"`
	BusinessType string `json:"business_type"`
	AccountID    string `json:"account_id"`
	AccountType  string `json:"account_type"`
}

func (s *Server) GenerateBills(c *gin.Context) {
	req, ok := s.bindGenerateRequest(c)
	if !ok {
		return
	}

	result, err := s.billingsvc.Generate(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respondData(c, result)
}

func (s *Server) PreviewBills(c *gin.Context) {
	req, ok := s.bindGenerateRequest(c)
	if !ok {
		return
	}

	result, err := s.billingsvc.Preview(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respondData(c, result)
}

type markServedRequest struct {
	ServedBy string `json:"served_by" binding:"required"`
}

func (s *Server) MarkBillServed(c *gin.Context) {
	billID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		badRequest(c, "id", "must be a valid bill id")
		return
	}
	var body markServedRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "served_by", "required")
		return
	}

	if err := s.billingsvc.MarkServed(c.Request.Context(), billID, body.ServedBy); err != nil {
		abortWithError(c, err)
		return
	}
	respondData(c, gin.H{"bill_id": billID.String(), "served": true})
}

func (s *Server) bindGenerateRequest(c *gin.Context) (billingdomain.GenerateRequest, bool) {
	var body generateBillsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "body", err.Error())
		return billingdomain.GenerateRequest{}, false
	}

	actor := strings.TrimSpace(body.Actor)
	if actor == "" {
		actor = "system"
	}

	req := billingdomain.GenerateRequest{
		Scope:       billingdomain.Scope(body.Scope),
		BillingYear: body.BillingYear,
		Actor:       actor,
	}

	if body.ZoneID != "" {
		id, err := snowflake.ParseString(body.ZoneID)
		if err != nil {
			badRequest(c, "zone_id", "must be a valid id")
			return billingdomain.GenerateRequest{}, false
		}
		req.ZoneID = &id
	}
	if body.BusinessType != "" {
		businessType := body.BusinessType
		req.BusinessType = &businessType
	}
	if body.AccountID != "" {
		id, err := snowflake.ParseString(body.AccountID)
		if err != nil {
			badRequest(c, "account_id", "must be a valid id")
			return billingdomain.GenerateRequest{}, false
		}
		req.AccountID = &id
	}
	if body.AccountType != "" {
		typ := registrydomain.AccountType(body.AccountType)
		req.AccountType = &typ
	}
	return req, true
}
