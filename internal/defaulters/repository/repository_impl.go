package repository

import (
	"context"

	"gorm.io/gorm"

	billingdomain "github.com/municipay/municipay/internal/billing/domain"
	defaultersdomain "github.com/municipay/municipay/internal/defaulters/domain"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) defaultersdomain.Repository {
	return &repository{db: db}
}

func (r *repository) ListOutstandingRows(ctx context.Context, f defaultersdomain.Filter) ([]defaultersdomain.OutstandingRow, error) {
	query := `SELECT
			b.id AS bill_id,
			b.bill_number,
			b.bill_type,
			b.reference_id,
			b.billing_year,
			b.amount_payable,
			COALESCE((SELECT SUM(p.amount) FROM payments p
				WHERE p.bill_id = b.id AND p.status = ?), 0) AS paid,
			COALESCE(a.owner_name, '') AS owner_name,
			COALESCE(z.name, '') AS zone_name
		FROM bills b
		LEFT JOIN accounts a ON a.id = b.reference_id AND a.account_type = b.bill_type
		LEFT JOIN zones z ON z.id = a.zone_id
		WHERE b.status <> ?`
	args := []any{billingdomain.PaymentStatusSuccessful, billingdomain.BillStatusPaid}

	if f.BillType != nil {
		query += " AND b.bill_type = ?"
		args = append(args, *f.BillType)
	}
	if f.ZoneID != nil {
		query += " AND a.zone_id = ?"
		args = append(args, *f.ZoneID)
	}
	query += " ORDER BY b.id ASC"

	var rows []defaultersdomain.OutstandingRow
	err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error
	return rows, err
}
