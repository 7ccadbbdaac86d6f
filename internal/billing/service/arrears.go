package service

import (
	"context"

	"github.com/bwmarrin/snowflake"

	billingdomain "github.com/municipay/municipay/internal/billing/domain"
	registrydomain "github.com/municipay/municipay/internal/registry/domain"
	"github.com/municipay/municipay/pkg/money"
)

// computeArrears derives the balance carried into billingYear from the
// immediately preceding year's bill. First-time accounts owe nothing.
//
// Policy: old_bill is the prior bill's current_bill face value, never its
// amount_payable. Arrears are always judged against the stated fee of that
// single year; balances unpaid for two or more consecutive years are not
// compounded here.
func computeArrears(ctx context.Context, repo billingdomain.Repository, typ registrydomain.AccountType, refID snowflake.ID, billingYear int) (billingdomain.ArrearsBreakdown, error) {
	prior, err := repo.FindBill(ctx, typ, refID, billingYear-1)
	if err != nil {
		return billingdomain.ArrearsBreakdown{}, err
	}
	if prior == nil {
		return billingdomain.ArrearsBreakdown{}, nil
	}

	paid, err := repo.SumSuccessfulPayments(ctx, prior.ID)
	if err != nil {
		return billingdomain.ArrearsBreakdown{}, err
	}

	oldBill := money.Round2(prior.CurrentBill)
	paid = money.Round2(paid)

	return billingdomain.ArrearsBreakdown{
		OldBill:          oldBill,
		PreviousPayments: paid,
		Arrears:          money.ClampNonNegative(money.Round2(oldBill - paid)),
	}, nil
}
