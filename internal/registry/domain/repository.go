package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// CandidateFilter narrows the account population for a generation run.
// Zero-value fields are ignored.
type CandidateFilter struct {
	Type         *AccountType
	ZoneID       *snowflake.ID
	BusinessType *string
	AccountID    *snowflake.ID
}

type Repository interface {
	// ListCandidates returns accounts matching the filter ordered by id,
	// so generation runs are deterministic for a fixed dataset. Inactive
	// businesses are excluded.
	ListCandidates(ctx context.Context, f CandidateFilter) ([]Account, error)
	FindAccount(ctx context.Context, typ AccountType, id snowflake.ID) (*Account, error)
	ListZones(ctx context.Context) ([]Zone, error)
}
