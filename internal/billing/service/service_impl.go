package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/municipay/municipay/internal/audit/domain"
	billingdomain "github.com/municipay/municipay/internal/billing/domain"
	"github.com/municipay/municipay/internal/billing/repository"
	"github.com/municipay/municipay/internal/clock"
	feedomain "github.com/municipay/municipay/internal/feeschedule/domain"
	"github.com/municipay/municipay/internal/observability"
	registrydomain "github.com/municipay/municipay/internal/registry/domain"
	"github.com/municipay/municipay/pkg/money"
)

const minBillingYear = 2000

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	accounts registrydomain.Repository
	fees     feedomain.Resolver
	audit    auditdomain.Service
	metrics  *observability.BillingMetrics
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Accounts registrydomain.Repository
	Fees     feedomain.Resolver
	Audit    auditdomain.Service           `optional:"true"`
	Metrics  *observability.BillingMetrics `optional:"true"`
}

func NewService(p ServiceParam) billingdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("billing.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		accounts: p.Accounts,
		fees:     p.Fees,
		audit:    p.Audit,
		metrics:  p.Metrics,
	}
}

func (s *Service) Generate(ctx context.Context, req billingdomain.GenerateRequest) (billingdomain.GenerateResult, error) {
	if err := s.validate(ctx, req); err != nil {
		return billingdomain.GenerateResult{}, err
	}

	candidates, err := s.accounts.ListCandidates(ctx, candidateFilter(req))
	if err != nil {
		return billingdomain.GenerateResult{}, err
	}

	var res billingdomain.GenerateResult
	now := s.clock.Now(ctx)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repoTx := repository.NewRepository(tx)

		for _, account := range candidates {
			bill, skip, err := s.buildBill(ctx, repoTx, account, req.BillingYear)
			if err != nil {
				return err
			}
			if skip {
				res.Skipped++
				continue
			}

			bill.ID = s.genID.Generate()
			bill.Status = billingdomain.BillStatusPending
			bill.GeneratedBy = req.Actor
			bill.GeneratedAt = now

			inserted, err := repoTx.InsertBill(ctx, *bill)
			if err != nil {
				return err
			}
			if !inserted {
				// a concurrent run committed this account's bill first
				res.Skipped++
				continue
			}

			if err := repoTx.UpdateAccountSnapshot(ctx, account.AccountType, account.ID, billingdomain.Snapshot{
				OldBill:          bill.OldBill,
				PreviousPayments: bill.PreviousPayments,
				Arrears:          bill.Arrears,
				CurrentBill:      bill.CurrentBill,
				AmountPayable:    bill.AmountPayable,
			}, now); err != nil {
				return err
			}

			if account.AccountType == registrydomain.AccountTypeBusiness {
				res.BusinessBills++
			} else {
				res.PropertyBills++
			}
		}
		return nil
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.BatchesRun.WithLabelValues("aborted").Inc()
		}
		s.log.Error("bill generation aborted, batch rolled back",
			zap.Int("billing_year", req.BillingYear),
			zap.String("scope", string(req.Scope)),
			zap.Error(err),
		)
		return billingdomain.GenerateResult{}, err
	}

	res.Total = res.BusinessBills + res.PropertyBills + res.Skipped
	s.recordBatch(ctx, req, res)
	return res, nil
}

func (s *Service) Preview(ctx context.Context, req billingdomain.GenerateRequest) (billingdomain.PreviewResult, error) {
	if err := s.validate(ctx, req); err != nil {
		return billingdomain.PreviewResult{}, err
	}

	candidates, err := s.accounts.ListCandidates(ctx, candidateFilter(req))
	if err != nil {
		return billingdomain.PreviewResult{}, err
	}

	repo := repository.NewRepository(s.db)

	var res billingdomain.PreviewResult
	for _, account := range candidates {
		bill, skip, err := s.buildBill(ctx, repo, account, req.BillingYear)
		if err != nil {
			return billingdomain.PreviewResult{}, err
		}
		if skip {
			continue
		}
		if account.AccountType == registrydomain.AccountTypeBusiness {
			res.BusinessBills++
		} else {
			res.PropertyBills++
		}
		res.TotalBills++
		res.TotalAmount = money.Round2(res.TotalAmount + bill.AmountPayable)
	}
	return res, nil
}

// buildBill runs the shared per-candidate computation: duplicate check, fee
// resolution, arrears carry-forward. Preview and Generate both go through
// here so the two can never drift.
func (s *Service) buildBill(ctx context.Context, repo billingdomain.Repository, account registrydomain.Account, billingYear int) (*billingdomain.Bill, bool, error) {
	existing, err := repo.FindBill(ctx, account.AccountType, account.ID, billingYear)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return nil, true, nil
	}

	fee, err := s.fees.Resolve(ctx, account)
	if err != nil {
		if errors.Is(err, feedomain.ErrNoActiveFeeStructure) {
			return nil, true, nil
		}
		return nil, false, err
	}

	arrears, err := computeArrears(ctx, repo, account.AccountType, account.ID, billingYear)
	if err != nil {
		return nil, false, err
	}

	return &billingdomain.Bill{
		BillNumber:       billingdomain.BillNumber(billingYear, account.AccountType, account.ID),
		BillType:         account.AccountType,
		ReferenceID:      account.ID,
		BillingYear:      billingYear,
		OldBill:          arrears.OldBill,
		PreviousPayments: arrears.PreviousPayments,
		Arrears:          arrears.Arrears,
		CurrentBill:      fee,
		AmountPayable:    money.Round2(arrears.Arrears + fee),
	}, false, nil
}

func (s *Service) MarkServed(ctx context.Context, billID snowflake.ID, servedBy string) error {
	if strings.TrimSpace(servedBy) == "" {
		return billingdomain.ValidationError{Field: "served_by", Reason: "required"}
	}
	if err := repository.NewRepository(s.db).MarkServed(ctx, billID, servedBy, s.clock.Now(ctx)); err != nil {
		return err
	}
	s.log.Info("bill marked served",
		zap.Int64("bill_id", int64(billID)),
		zap.String("served_by", servedBy),
	)
	return nil
}

func (s *Service) validate(ctx context.Context, req billingdomain.GenerateRequest) error {
	if !req.Scope.Valid() {
		return billingdomain.ValidationError{Field: "scope", Reason: "unknown scope"}
	}
	maxYear := s.clock.Now(ctx).Year() + 1
	if req.BillingYear < minBillingYear || req.BillingYear > maxYear {
		return billingdomain.ValidationError{Field: "billing_year", Reason: "out of range"}
	}
	if req.Scope == billingdomain.ScopeSingle {
		if req.AccountID == nil || req.AccountType == nil || !req.AccountType.Valid() {
			return billingdomain.ValidationError{Field: "account", Reason: "single scope requires account type and id"}
		}
	}
	return nil
}

func candidateFilter(req billingdomain.GenerateRequest) registrydomain.CandidateFilter {
	f := registrydomain.CandidateFilter{
		ZoneID:       req.ZoneID,
		BusinessType: req.BusinessType,
	}
	switch req.Scope {
	case billingdomain.ScopeBusinesses:
		typ := registrydomain.AccountTypeBusiness
		f.Type = &typ
	case billingdomain.ScopeProperties:
		typ := registrydomain.AccountTypeProperty
		f.Type = &typ
	case billingdomain.ScopeSingle:
		f.Type = req.AccountType
		f.AccountID = req.AccountID
	}
	return f
}

func (s *Service) recordBatch(ctx context.Context, req billingdomain.GenerateRequest, res billingdomain.GenerateResult) {
	if s.metrics != nil {
		s.metrics.BatchesRun.WithLabelValues("completed").Inc()
		s.metrics.BillsGenerated.WithLabelValues(string(registrydomain.AccountTypeBusiness)).Add(float64(res.BusinessBills))
		s.metrics.BillsGenerated.WithLabelValues(string(registrydomain.AccountTypeProperty)).Add(float64(res.PropertyBills))
		s.metrics.BillsSkipped.Add(float64(res.Skipped))
	}

	s.log.Info("bill generation batch completed",
		zap.String("actor", req.Actor),
		zap.String("scope", string(req.Scope)),
		zap.Int("billing_year", req.BillingYear),
		zap.Int("business_bills", res.BusinessBills),
		zap.Int("property_bills", res.PropertyBills),
		zap.Int("skipped", res.Skipped),
		zap.Int("total", res.Total),
	)

	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, req.Actor, auditdomain.ActionBillsGenerated, map[string]any{
		"scope":          string(req.Scope),
		"billing_year":   req.BillingYear,
		"business_bills": res.BusinessBills,
		"property_bills": res.PropertyBills,
		"skipped":        res.Skipped,
		"total":          res.Total,
	}); err != nil {
		s.log.Warn("audit event write failed", zap.Error(err))
	}
}

