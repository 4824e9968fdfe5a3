// Package domain holds the referral-code read model consumed by the
// ledger for beneficiary resolution and report display.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type ReferralCode struct {
	ID                  snowflake.ID    `gorm:"primaryKey" json:"id"`
	Code                string          `gorm:"type:text;not null;uniqueIndex" json:"code"`
	OwnerName           string          `gorm:"type:text;not null" json:"owner_name"`
	OverrideRatePercent decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"override_rate_percent"`
	CreatedAt           time.Time       `gorm:"not null" json:"created_at"`
}

func (ReferralCode) TableName() string { return "referral_codes" }

type Repository interface {
	// Get returns nil without error when the referral code does not exist.
	Get(ctx context.Context, id snowflake.ID) (*ReferralCode, error)
	GetMany(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]ReferralCode, error)
}
