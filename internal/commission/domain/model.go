// Package domain contains the commission ledger entity and contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeArtistProduct Type = "ARTIST_PRODUCT"
	TypeCustomization Type = "CUSTOMIZATION"
	TypeTicket        Type = "TICKET"
	TypeReferral      Type = "REFERRAL"
)

func (t Type) Valid() bool {
	switch t {
	case TypeArtistProduct, TypeCustomization, TypeTicket, TypeReferral:
		return true
	}
	return false
}

type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
)

type BeneficiaryKind string

const (
	BeneficiaryArtist   BeneficiaryKind = "ARTIST"
	BeneficiaryReferrer BeneficiaryKind = "REFERRER"
)

func (k BeneficiaryKind) Valid() bool {
	return k == BeneficiaryArtist || k == BeneficiaryReferrer
}

// Commission is one ledger row: money owed to a single beneficiary for a
// single sale line. Rows are append-only; the only mutation ever applied
// is the PENDING -> PAID transition performed by settlement.
type Commission struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	Type            Type            `gorm:"type:text;not null;uniqueIndex:idx_commissions_type_source,priority:1" json:"type"`
	SourceRef       string          `gorm:"type:text;not null;uniqueIndex:idx_commissions_type_source,priority:2" json:"source_ref"`
	AmountCents     int64           `gorm:"not null" json:"amount_cents"`
	RatePercent     decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"rate_percent"`
	Status          Status          `gorm:"type:text;not null;index:idx_commissions_beneficiary,priority:3" json:"status"`
	BeneficiaryKind BeneficiaryKind `gorm:"type:text;not null;index:idx_commissions_beneficiary,priority:1" json:"beneficiary_kind"`
	BeneficiaryID   snowflake.ID    `gorm:"not null;index:idx_commissions_beneficiary,priority:2" json:"beneficiary_id"`
	CreatedAt       time.Time       `gorm:"not null;index" json:"created_at"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
}

func (Commission) TableName() string { return "commissions" }
