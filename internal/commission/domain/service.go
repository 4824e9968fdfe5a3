package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// OrderItemPaid is emitted by the order collaborator once a merchandise
// sale line is confirmed paid. Pricing inputs are embedded at emission
// time; the ledger never calls back into the catalog.
type OrderItemPaid struct {
	OrderItemID           string          `json:"order_item_id"`
	ArtistProductID       string          `json:"artist_product_id"`
	ArtistID              snowflake.ID    `json:"artist_id"`
	// ItemKind distinguishes stock merchandise from made-to-order
	// customizations; empty means "product".
	ItemKind              string          `json:"item_kind,omitempty"`
	Quantity              int64           `json:"quantity"`
	UnitSalePrice         decimal.Decimal `json:"unit_sale_price"`
	UnitManufacturingCost decimal.Decimal `json:"unit_manufacturing_cost"`
	CommissionRatePercent decimal.Decimal `json:"commission_rate_percent"`

	ReferralID          *snowflake.ID    `json:"referral_id,omitempty"`
	ReferralRatePercent *decimal.Decimal `json:"referral_rate_percent,omitempty"`
}

const (
	ItemKindProduct       = "product"
	ItemKindCustomization = "customization"
)

// TicketPaid is emitted by the ticketing collaborator when a show ticket
// is confirmed paid.
type TicketPaid struct {
	TicketID           string          `json:"ticket_id"`
	ShowID             string          `json:"show_id"`
	ArtistID           snowflake.ID    `json:"artist_id"`
	Price              decimal.Decimal `json:"price"`
	PlatformFeePercent decimal.Decimal `json:"platform_fee_percent"`

	ReferralID          *snowflake.ID    `json:"referral_id,omitempty"`
	ReferralRatePercent *decimal.Decimal `json:"referral_rate_percent,omitempty"`
}

// AccrualResult reports what one accrue call persisted. Replayed events
// return the previously persisted rows with Duplicate set.
type AccrualResult struct {
	Commissions []Commission `json:"commissions"`
	Duplicate   bool         `json:"duplicate"`
}

// SettleResult reports one settlement batch.
type SettleResult struct {
	PaidCount       int64 `json:"paid_count"`
	PaidAmountCents int64 `json:"paid_amount_cents"`
}

// Actor identifies the administrator triggering a settlement. It is an
// explicit parameter, never derived from ambient session state.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AccrualService interface {
	AccrueOrderItem(ctx context.Context, ev OrderItemPaid) (*AccrualResult, error)
	AccrueTicket(ctx context.Context, ev TicketPaid) (*AccrualResult, error)
}

type SettlementService interface {
	// SettleAll atomically marks every pending row of one beneficiary as
	// paid. An empty pending set is a successful no-op.
	SettleAll(ctx context.Context, kind BeneficiaryKind, beneficiaryID snowflake.ID, actor Actor) (*SettleResult, error)
}

// HistoryRequest is a paginated query over settled rows.
type HistoryRequest struct {
	Type   Type
	From   *time.Time
	To     *time.Time
	Search string
	Page   int
	Limit  int
}

type HistoryResponse struct {
	Commissions []Commission `json:"commissions"`
	Page        int          `json:"page"`
	Limit       int          `json:"limit"`
	Total       int64        `json:"total"`
}

// BeneficiariesPending is the admin payout screen payload.
type BeneficiariesPending struct {
	Artists   []ArtistPending   `json:"artists"`
	Referrers []ReferrerPending `json:"referrers"`
}

type ArtistPending struct {
	ArtistID           snowflake.ID `json:"artist_id"`
	StageName          string       `json:"stage_name"`
	PendingAmountCents int64        `json:"pending_amount_cents"`
	PendingCount       int64        `json:"pending_count"`
	Breakdown          []TypeAmount `json:"breakdown"`
}

type ReferrerPending struct {
	ReferralID         snowflake.ID `json:"referral_id"`
	OwnerName          string       `json:"owner_name"`
	Code               string       `json:"code"`
	PendingAmountCents int64        `json:"pending_amount_cents"`
	PendingCount       int64        `json:"pending_count"`
	Breakdown          []TypeAmount `json:"breakdown"`
}

type ReportingService interface {
	Summary(ctx context.Context) (*Summary, error)
	BeneficiariesPending(ctx context.Context) (*BeneficiariesPending, error)
	History(ctx context.Context, req HistoryRequest) (*HistoryResponse, error)
	List(ctx context.Context, filter ListFilter) (*HistoryResponse, error)
}

var (
	// Validation: the event is malformed and nothing was persisted.
	ErrInvalidSourceRef = errors.New("invalid_source_ref")
	ErrInvalidArtist    = errors.New("invalid_artist")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
	ErrInvalidPrice     = errors.New("invalid_price")
	ErrInvalidRate      = errors.New("invalid_rate")
	ErrInvalidReferral  = errors.New("invalid_referral")
	ErrInvalidKind      = errors.New("invalid_beneficiary_kind")
	ErrInvalidItemKind  = errors.New("invalid_item_kind")

	// Resolution: the beneficiary reference cannot be resolved; the
	// caller must retry once the reference is repaired.
	ErrArtistNotFound   = errors.New("artist_not_found")
	ErrReferralNotFound = errors.New("referral_not_found")

	// ErrSettlementConflict signals that a concurrent settlement touched
	// the snapshot; the whole batch was rolled back.
	ErrSettlementConflict = errors.New("settlement_conflict")
)
