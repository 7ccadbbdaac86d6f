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

	feedomain "github.com/municipay/municipay/internal/feeschedule/domain"
	registrydomain "github.com/municipay/municipay/internal/registry/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&feedomain.FeeStructure{}))
	return db
}

func newResolver(t *testing.T, db *gorm.DB) feedomain.Resolver {
	t.Helper()
	return NewService(ServiceParam{DB: db, Log: zap.NewNop()})
}

var seedNode = func() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}()

func seedFee(t *testing.T, db *gorm.DB, typ registrydomain.AccountType, classification string, amount float64, active bool, createdAt time.Time) {
	t.Helper()
	node := seedNode
	fee := feedomain.FeeStructure{
		ID:             node.Generate(),
		AccountType:    typ,
		Classification: classification,
		Amount:         amount,
		Active:         active,
		CreatedAt:      createdAt,
	}
	require.NoError(t, db.Create(&fee).Error)
	// GORM replaces a zero-valued Active with the schema default (true) on
	// Create, so force the intended value explicitly.
	require.NoError(t, db.Model(&feedomain.FeeStructure{}).Where("id = ?", fee.ID).Update("active", active).Error)
}

func TestResolveBusinessFlatFee(t *testing.T) {
	db := newTestDB(t)
	resolver := newResolver(t, db)
	now := time.Now().UTC()

	seedFee(t, db, registrydomain.AccountTypeBusiness, "retail", 250.50, true, now)

	businessType := "retail"
	fee, err := resolver.Resolve(context.Background(), registrydomain.Account{
		AccountType:  registrydomain.AccountTypeBusiness,
		BusinessType: &businessType,
	})
	require.NoError(t, err)
	require.Equal(t, 250.50, fee)
}

func TestResolvePropertyPerRoomRate(t *testing.T) {
	db := newTestDB(t)
	resolver := newResolver(t, db)
	now := time.Now().UTC()

	seedFee(t, db, registrydomain.AccountTypeProperty, "concrete", 35.25, true, now)

	structure := "concrete"
	rooms := int64(4)
	fee, err := resolver.Resolve(context.Background(), registrydomain.Account{
		AccountType: registrydomain.AccountTypeProperty,
		Structure:   &structure,
		Rooms:       &rooms,
	})
	require.NoError(t, err)
	require.Equal(t, 141.0, fee)
}

func TestResolveNewestActiveWins(t *testing.T) {
	db := newTestDB(t)
	resolver := newResolver(t, db)
	now := time.Now().UTC()

	seedFee(t, db, registrydomain.AccountTypeBusiness, "retail", 200, true, now.Add(-48*time.Hour))
	seedFee(t, db, registrydomain.AccountTypeBusiness, "retail", 300, true, now)

	businessType := "retail"
	fee, err := resolver.Resolve(context.Background(), registrydomain.Account{
		AccountType:  registrydomain.AccountTypeBusiness,
		BusinessType: &businessType,
	})
	require.NoError(t, err)
	require.Equal(t, 300.0, fee)
}

func TestResolveIgnoresInactive(t *testing.T) {
	db := newTestDB(t)
	resolver := newResolver(t, db)

	seedFee(t, db, registrydomain.AccountTypeBusiness, "retail", 200, false, time.Now().UTC())

	businessType := "retail"
	_, err := resolver.Resolve(context.Background(), registrydomain.Account{
		AccountType:  registrydomain.AccountTypeBusiness,
		BusinessType: &businessType,
	})
	require.ErrorIs(t, err, feedomain.ErrNoActiveFeeStructure)
}

func TestResolveMissingClassification(t *testing.T) {
	db := newTestDB(t)
	resolver := newResolver(t, db)

	_, err := resolver.Resolve(context.Background(), registrydomain.Account{
		AccountType: registrydomain.AccountTypeBusiness,
	})
	require.ErrorIs(t, err, feedomain.ErrNoActiveFeeStructure)
}
