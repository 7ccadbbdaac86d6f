package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	billingdomain "github.com/municipay/municipay/internal/billing/domain"
	"github.com/municipay/municipay/internal/clock"
	defaultersdomain "github.com/municipay/municipay/internal/defaulters/domain"
	registrydomain "github.com/municipay/municipay/internal/registry/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&registrydomain.Zone{},
		&registrydomain.Account{},
		&billingdomain.Bill{},
		&billingdomain.Payment{},
	))
	return db
}

func newClassifier(t *testing.T, db *gorm.DB, now time.Time) defaultersdomain.Service {
	t.Helper()
	return NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.Fixed{T: now},
	})
}

type billSeed struct {
	amountPayable float64
	paid          float64
	billType      registrydomain.AccountType
	zone          string
}

func seedBills(t *testing.T, db *gorm.DB, seeds []billSeed) {
	t.Helper()
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	zones := map[string]snowflake.ID{}
	for _, seed := range seeds {
		if seed.zone == "" {
			continue
		}
		if _, ok := zones[seed.zone]; !ok {
			zone := registrydomain.Zone{
				ID:        node.Generate(),
				Code:      seed.zone,
				Name:      seed.zone,
				CreatedAt: time.Now().UTC(),
			}
			require.NoError(t, db.Create(&zone).Error)
			zones[seed.zone] = zone.ID
		}
	}

	for i, seed := range seeds {
		account := registrydomain.Account{
			ID:          node.Generate(),
			AccountType: seed.billType,
			OwnerName:   "Owner",
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		}
		if seed.zone != "" {
			zoneID := zones[seed.zone]
			account.ZoneID = &zoneID
		}
		require.NoError(t, db.Create(&account).Error)

		status := billingdomain.BillStatusPending
		if seed.paid > 0 {
			status = billingdomain.BillStatusPartiallyPaid
		}
		bill := billingdomain.Bill{
			ID:            node.Generate(),
			BillNumber:    billingdomain.BillNumber(2024, seed.billType, account.ID),
			BillType:      seed.billType,
			ReferenceID:   account.ID,
			BillingYear:   2024,
			CurrentBill:   seed.amountPayable,
			AmountPayable: seed.amountPayable,
			Status:        status,
			GeneratedAt:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, db.Create(&bill).Error)

		if seed.paid > 0 {
			require.NoError(t, db.Create(&billingdomain.Payment{
				ID:     node.Generate(),
				BillID: bill.ID,
				Amount: seed.paid,
				Status: billingdomain.PaymentStatusSuccessful,
				Method: billingdomain.PaymentMethodMobile,
				PaidAt: time.Now().UTC(),
			}).Error)
		}
	}
}

func TestClassifyBeforeCutoffReturnsEmpty(t *testing.T) {
	db := newTestDB(t)
	seedBills(t, db, []billSeed{
		{amountPayable: 2000, billType: registrydomain.AccountTypeBusiness},
	})

	svc := newClassifier(t, db, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	report, err := svc.Classify(context.Background(), defaultersdomain.Filter{})
	require.NoError(t, err)

	require.False(t, report.AfterCutoff)
	require.Zero(t, report.Summary.Count)
	require.Zero(t, report.Summary.TotalOutstanding)
	require.Empty(t, report.Defaulters)
	require.Empty(t, report.Aging)
	require.Empty(t, report.Zones)
	require.Empty(t, report.Types)
}

func TestClassifyOnCutoffDayReturnsEmpty(t *testing.T) {
	db := newTestDB(t)
	seedBills(t, db, []billSeed{
		{amountPayable: 2000, billType: registrydomain.AccountTypeBusiness},
	})

	// September 30 itself is still inside the grace window
	svc := newClassifier(t, db, time.Date(2024, 9, 30, 15, 0, 0, 0, time.UTC))
	report, err := svc.Classify(context.Background(), defaultersdomain.Filter{})
	require.NoError(t, err)

	require.False(t, report.AfterCutoff)
	require.Empty(t, report.Defaulters)
}

func TestClassifyAfterCutoff(t *testing.T) {
	db := newTestDB(t)
	seedBills(t, db, []billSeed{
		{amountPayable: 1500, billType: registrydomain.AccountTypeBusiness, zone: "Central"},
		{amountPayable: 600, paid: 100, billType: registrydomain.AccountTypeProperty, zone: "North"},
		{amountPayable: 400, paid: 400, billType: registrydomain.AccountTypeBusiness, zone: "Central"}, // settled
	})

	// 14 days past the end of September 30
	now := time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC)
	svc := newClassifier(t, db, now)
	report, err := svc.Classify(context.Background(), defaultersdomain.Filter{})
	require.NoError(t, err)

	require.True(t, report.AfterCutoff)
	require.Equal(t, 2, report.Summary.Count)
	require.Equal(t, 2000.0, report.Summary.TotalOutstanding)

	// age is cutoff-relative, identical for every bill
	for _, d := range report.Defaulters {
		require.Equal(t, 14, d.AgeDays)
		require.Equal(t, "0-30", d.AgingBucket)
	}
	require.Len(t, report.Aging, 1)
	require.Equal(t, "0-30", report.Aging[0].Bucket)
	require.Equal(t, 2, report.Aging[0].Count)

	// detailed list sorted by outstanding, largest first
	require.Equal(t, 1500.0, report.Defaulters[0].Outstanding)
	require.Equal(t, defaultersdomain.PriorityHigh, report.Defaulters[0].Priority)
	require.Equal(t, 500.0, report.Defaulters[1].Outstanding)
	require.Equal(t, defaultersdomain.PriorityMedium, report.Defaulters[1].Priority)

	require.Len(t, report.Types, 2)
	require.Len(t, report.Zones, 2)
	require.Equal(t, "Central", report.Zones[0].Key)
	require.Equal(t, 1500.0, report.Zones[0].Total)
}

func TestClassifyPriorityEscalatesWithAge(t *testing.T) {
	db := newTestDB(t)
	seedBills(t, db, []billSeed{
		{amountPayable: 50, billType: registrydomain.AccountTypeBusiness},
	})

	// 91 days past the cutoff: small balances still rank High on age
	now := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	svc := newClassifier(t, db, now)
	report, err := svc.Classify(context.Background(), defaultersdomain.Filter{})
	require.NoError(t, err)

	require.Len(t, report.Defaulters, 1)
	require.Equal(t, 91, report.Defaulters[0].AgeDays)
	require.Equal(t, "91-180", report.Defaulters[0].AgingBucket)
	require.Equal(t, defaultersdomain.PriorityHigh, report.Defaulters[0].Priority)
}

func TestClassifyResetsWithNewYear(t *testing.T) {
	db := newTestDB(t)
	seedBills(t, db, []billSeed{
		{amountPayable: 2000, billType: registrydomain.AccountTypeBusiness},
	})

	// each January opens a fresh grace window; the gate is relative to the
	// current year's cutoff
	svc := newClassifier(t, db, time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC))
	report, err := svc.Classify(context.Background(), defaultersdomain.Filter{})
	require.NoError(t, err)

	require.False(t, report.AfterCutoff)
	require.Empty(t, report.Defaulters)
}

func TestClassifyFilters(t *testing.T) {
	db := newTestDB(t)
	seedBills(t, db, []billSeed{
		{amountPayable: 1500, billType: registrydomain.AccountTypeBusiness},
		{amountPayable: 600, billType: registrydomain.AccountTypeProperty},
		{amountPayable: 90, billType: registrydomain.AccountTypeProperty},
	})

	now := time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC)
	svc := newClassifier(t, db, now)

	typ := registrydomain.AccountTypeProperty
	report, err := svc.Classify(context.Background(), defaultersdomain.Filter{BillType: &typ})
	require.NoError(t, err)
	require.Equal(t, 2, report.Summary.Count)

	report, err = svc.Classify(context.Background(), defaultersdomain.Filter{BillType: &typ, MinOutstanding: 100})
	require.NoError(t, err)
	require.Equal(t, 1, report.Summary.Count)

	report, err = svc.Classify(context.Background(), defaultersdomain.Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, report.Defaulters, 1)
	// limit trims only the detail list, never the summary
	require.Equal(t, 3, report.Summary.Count)
}
