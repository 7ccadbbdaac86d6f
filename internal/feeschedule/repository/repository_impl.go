package repository

import (
	"context"

	"gorm.io/gorm"

	feedomain "github.com/municipay/municipay/internal/feeschedule/domain"
	registrydomain "github.com/municipay/municipay/internal/registry/domain"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) feedomain.Repository {
	return &repository{db: db}
}

func (r *repository) FindActive(ctx context.Context, typ registrydomain.AccountType, classification string) (*feedomain.FeeStructure, error) {
	var fee feedomain.FeeStructure
	err := r.db.WithContext(ctx).
		Where("account_type = ? AND classification = ? AND active = ?", typ, classification, true).
		Order("created_at DESC").
		First(&fee).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &fee, nil
}
