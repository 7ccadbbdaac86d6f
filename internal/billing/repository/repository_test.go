package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	billingdomain "github.com/municipay/municipay/internal/billing/domain"
	registrydomain "github.com/municipay/municipay/internal/registry/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&billingdomain.Bill{}, &billingdomain.Payment{}))
	return db
}

func newBill(node *snowflake.Node, typ registrydomain.AccountType, refID snowflake.ID, year int) billingdomain.Bill {
	return billingdomain.Bill{
		ID:            node.Generate(),
		BillNumber:    billingdomain.BillNumber(year, typ, refID),
		BillType:      typ,
		ReferenceID:   refID,
		BillingYear:   year,
		CurrentBill:   100,
		AmountPayable: 100,
		Status:        billingdomain.BillStatusPending,
		GeneratedAt:   time.Now().UTC(),
	}
}

func TestInsertBillAccountYearConflictIsSilent(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)
	accountID := node.Generate()

	first := newBill(node, registrydomain.AccountTypeBusiness, accountID, 2024)
	inserted, err := repo.InsertBill(ctx, first)
	require.NoError(t, err)
	require.True(t, inserted)

	// same (type, account, year) from a concurrent run: swallowed, not an
	// error, so the surrounding batch transaction stays usable
	duplicate := newBill(node, registrydomain.AccountTypeBusiness, accountID, 2024)
	duplicate.BillNumber = "BILL/2024/B/other"
	inserted, err = repo.InsertBill(ctx, duplicate)
	require.NoError(t, err)
	require.False(t, inserted)

	var count int64
	require.NoError(t, db.Model(&billingdomain.Bill{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	// a later bill for the same account still inserts normally
	next := newBill(node, registrydomain.AccountTypeBusiness, accountID, 2025)
	inserted, err = repo.InsertBill(ctx, next)
	require.NoError(t, err)
	require.True(t, inserted)
}

func TestInsertBillOtherConstraintStillFails(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)

	first := newBill(node, registrydomain.AccountTypeBusiness, node.Generate(), 2024)
	inserted, err := repo.InsertBill(ctx, first)
	require.NoError(t, err)
	require.True(t, inserted)

	// colliding bill_number for a different account is data corruption and
	// must abort, not skip
	clash := newBill(node, registrydomain.AccountTypeBusiness, node.Generate(), 2024)
	clash.BillNumber = first.BillNumber
	_, err = repo.InsertBill(ctx, clash)
	require.Error(t, err)
}

func TestMarkServedUsesSuppliedTimestamp(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)

	bill := newBill(node, registrydomain.AccountTypeProperty, node.Generate(), 2024)
	inserted, err := repo.InsertBill(ctx, bill)
	require.NoError(t, err)
	require.True(t, inserted)

	servedAt := time.Date(2024, 11, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, repo.MarkServed(ctx, bill.ID, "field-officer", servedAt))

	var stored billingdomain.Bill
	require.NoError(t, db.First(&stored, "id = ?", bill.ID).Error)
	require.True(t, stored.Served)
	require.NotNil(t, stored.ServedAt)
	require.True(t, stored.ServedAt.Equal(servedAt))
}
