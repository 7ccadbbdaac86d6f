package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	billingdomain "github.com/municipay/municipay/internal/billing/domain"
	registrydomain "github.com/municipay/municipay/internal/registry/domain"
)

type repository struct {
	db *gorm.DB
}

// NewRepository binds the billing repository to a db handle; inside a batch
// transaction it is re-bound to the tx.
func NewRepository(db *gorm.DB) billingdomain.Repository {
	return &repository{db: db}
}

func (r *repository) FindBill(ctx context.Context, typ registrydomain.AccountType, refID snowflake.ID, year int) (*billingdomain.Bill, error) {
	var bill billingdomain.Bill
	err := r.db.WithContext(ctx).
		Where("bill_type = ? AND reference_id = ? AND billing_year = ?", typ, refID, year).
		First(&bill).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &bill, nil
}

// InsertBill inserts with ON CONFLICT DO NOTHING scoped to the account-year
// index, so a concurrent run that committed the same slot first surfaces as
// RowsAffected 0 instead of poisoning the open transaction.
func (r *repository) InsertBill(ctx context.Context, bill billingdomain.Bill) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "bill_type"},
			{Name: "reference_id"},
			{Name: "billing_year"},
		},
		DoNothing: true,
	}).Create(&bill)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *repository) SumSuccessfulPayments(ctx context.Context, billID snowflake.ID) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0)
		 FROM payments
		 WHERE bill_id = ? AND status = ?`,
		billID,
		billingdomain.PaymentStatusSuccessful,
	).Scan(&total).Error
	return total, err
}

func (r *repository) UpdateAccountSnapshot(ctx context.Context, typ registrydomain.AccountType, id snowflake.ID, snap billingdomain.Snapshot, now time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE accounts
		 SET old_bill = ?, previous_payments = ?, arrears = ?, current_bill = ?, amount_payable = ?, updated_at = ?
		 WHERE account_type = ? AND id = ?`,
		snap.OldBill,
		snap.PreviousPayments,
		snap.Arrears,
		snap.CurrentBill,
		snap.AmountPayable,
		now,
		typ,
		id,
	).Error
}

func (r *repository) MarkServed(ctx context.Context, billID snowflake.ID, servedBy string, now time.Time) error {
	tx := r.db.WithContext(ctx).Model(&billingdomain.Bill{}).
		Where("id = ?", billID).
		Updates(map[string]any{
			"served":    true,
			"served_at": now,
			"served_by": servedBy,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return billingdomain.ErrBillNotFound
	}
	return nil
}
