// Package domain contains the account registry models. Accounts are a
// tagged union over business and property variants stored in one table and
// referenced elsewhere by (account_type, id).
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type AccountType string

const (
	AccountTypeBusiness AccountType = "business"
	AccountTypeProperty AccountType = "property"
)

func (t AccountType) Valid() bool {
	return t == AccountTypeBusiness || t == AccountTypeProperty
}

// Tag returns the single-letter marker used in bill numbers.
func (t AccountType) Tag() string {
	if t == AccountTypeBusiness {
		return "B"
	}
	return "P"
}

type Account struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	AccountType AccountType   `gorm:"type:text;not null;index" json:"account_type"`
	ZoneID      *snowflake.ID `gorm:"index" json:"zone_id,omitempty"`
	OwnerName   string        `gorm:"type:text;not null;default:''" json:"owner_name"`

	// business payload
	BusinessType     *string `gorm:"type:text" json:"business_type,omitempty"`
	BusinessCategory *string `gorm:"type:text" json:"business_category,omitempty"`
	Active           *bool   `json:"active,omitempty"`

	// property payload
	Structure   *string `gorm:"type:text" json:"structure,omitempty"`
	PropertyUse *string `gorm:"type:text;column:property_use" json:"property_use,omitempty"`
	Rooms       *int64  `json:"rooms,omitempty"`

	// snapshot of the last generation run, written only by billing
	OldBill          float64 `gorm:"not null;default:0" json:"old_bill"`
	PreviousPayments float64 `gorm:"not null;default:0" json:"previous_payments"`
	Arrears          float64 `gorm:"not null;default:0" json:"arrears"`
	CurrentBill      float64 `gorm:"not null;default:0" json:"current_bill"`
	AmountPayable    float64 `gorm:"not null;default:0" json:"amount_payable"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

// Classification is the key used to resolve the account's fee structure:
// business type for businesses, structure class for properties.
func (a Account) Classification() string {
	switch a.AccountType {
	case AccountTypeBusiness:
		if a.BusinessType != nil {
			return *a.BusinessType
		}
	case AccountTypeProperty:
		if a.Structure != nil {
			return *a.Structure
		}
	}
	return ""
}

// UnitCount is the billable unit count for per-unit fees (rooms for
// properties). Businesses always bill one unit of their flat fee.
func (a Account) UnitCount() int64 {
	if a.AccountType == AccountTypeProperty {
		if a.Rooms == nil {
			return 0
		}
		return *a.Rooms
	}
	return 1
}

// IsActive reports billing eligibility. The active flag only exists on the
// business variant; properties are always eligible.
func (a Account) IsActive() bool {
	if a.AccountType != AccountTypeBusiness {
		return true
	}
	return a.Active != nil && *a.Active
}

type Zone struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Code      string       `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (Zone) TableName() string { return "zones" }
