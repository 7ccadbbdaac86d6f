package service

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	feedomain "github.com/municipay/municipay/internal/feeschedule/domain"
	"github.com/municipay/municipay/internal/feeschedule/repository"
	registrydomain "github.com/municipay/municipay/internal/registry/domain"
	"github.com/municipay/municipay/pkg/money"
)

type Service struct {
	log  *zap.Logger
	repo feedomain.Repository
}

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

func NewService(p ServiceParam) feedomain.Resolver {
	return &Service{
		log:  p.Log.Named("feeschedule.service"),
		repo: repository.NewRepository(p.DB),
	}
}

// Resolve returns the account's current fee: the flat amount for businesses,
// rate x rooms for properties.
func (s *Service) Resolve(ctx context.Context, account registrydomain.Account) (float64, error) {
	classification := account.Classification()
	if classification == "" {
		return 0, feedomain.ErrNoActiveFeeStructure
	}

	fee, err := s.repo.FindActive(ctx, account.AccountType, classification)
	if err != nil {
		return 0, err
	}
	if fee == nil {
		return 0, feedomain.ErrNoActiveFeeStructure
	}

	if account.AccountType == registrydomain.AccountTypeProperty {
		return money.Round2(fee.Amount * float64(account.UnitCount())), nil
	}
	return money.Round2(fee.Amount), nil
}
