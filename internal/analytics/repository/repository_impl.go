package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	analyticsdomain "github.com/municipay/municipay/internal/analytics/domain"
	billingdomain "github.com/municipay/municipay/internal/billing/domain"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) analyticsdomain.Repository {
	return &repository{db: db}
}

func (r *repository) ListBillRows(ctx context.Context, f analyticsdomain.Filter) ([]analyticsdomain.BillRow, error) {
	query := `SELECT
			b.id AS bill_id,
			b.bill_type,
			b.status,
			b.billing_year,
			b.amount_payable,
			COALESCE((SELECT SUM(p.amount) FROM payments p
				WHERE p.bill_id = b.id AND p.status = ?), 0) AS paid,
			b.generated_at,
			COALESCE(z.name, '') AS zone_name
		FROM bills b
		LEFT JOIN accounts a ON a.id = b.reference_id AND a.account_type = b.bill_type
		LEFT JOIN zones z ON z.id = a.zone_id
		WHERE 1 = 1`
	args := []any{billingdomain.PaymentStatusSuccessful}

	if f.From != nil {
		query += " AND b.generated_at >= ?"
		args = append(args, *f.From)
	}
	if f.To != nil {
		query += " AND b.generated_at < ?"
		args = append(args, *f.To)
	}
	if f.BillType != nil {
		query += " AND b.bill_type = ?"
		args = append(args, *f.BillType)
	}
	if f.ZoneID != nil {
		query += " AND a.zone_id = ?"
		args = append(args, *f.ZoneID)
	}
	if f.Status != nil {
		query += " AND b.status = ?"
		args = append(args, *f.Status)
	}
	query += " ORDER BY b.id ASC"

	var rows []analyticsdomain.BillRow
	err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error
	return rows, err
}

func (r *repository) ListSuccessfulPayments(ctx context.Context, from, to time.Time) ([]analyticsdomain.PaymentRow, error) {
	var rows []analyticsdomain.PaymentRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT amount, paid_at
		 FROM payments
		 WHERE status = ? AND paid_at >= ? AND paid_at < ?`,
		billingdomain.PaymentStatusSuccessful,
		from,
		to,
	).Scan(&rows).Error
	return rows, err
}
