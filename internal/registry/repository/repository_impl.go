package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	registrydomain "github.com/municipay/municipay/internal/registry/domain"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) registrydomain.Repository {
	return &repository{db: db}
}

func (r *repository) ListCandidates(ctx context.Context, f registrydomain.CandidateFilter) ([]registrydomain.Account, error) {
	q := r.db.WithContext(ctx).Model(&registrydomain.Account{})

	if f.Type != nil {
		q = q.Where("account_type = ?", *f.Type)
	}
	if f.AccountID != nil {
		q = q.Where("id = ?", *f.AccountID)
	}
	if f.ZoneID != nil {
		q = q.Where("zone_id = ?", *f.ZoneID)
	}
	if f.BusinessType != nil {
		q = q.Where("business_type = ?", *f.BusinessType)
	}
	// business accounts must carry an active flag to be billable
	q = q.Where("account_type <> ? OR active = ?", registrydomain.AccountTypeBusiness, true)

	var accounts []registrydomain.Account
	err := q.Order("id ASC").Find(&accounts).Error
	return accounts, err
}

func (r *repository) FindAccount(ctx context.Context, typ registrydomain.AccountType, id snowflake.ID) (*registrydomain.Account, error) {
	var account registrydomain.Account
	err := r.db.WithContext(ctx).
		Where("account_type = ? AND id = ?", typ, id).
		First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) ListZones(ctx context.Context) ([]registrydomain.Zone, error) {
	var zones []registrydomain.Zone
	err := r.db.WithContext(ctx).Order("code ASC").Find(&zones).Error
	return zones, err
}
