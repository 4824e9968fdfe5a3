package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ListFilter narrows ledger scans. Zero values mean "no constraint".
type ListFilter struct {
	Status          Status
	Type            Type
	BeneficiaryKind BeneficiaryKind
	BeneficiaryID   snowflake.ID
	From            *time.Time
	To              *time.Time
	// Search matches against the sale reference.
	Search string

	Page  int
	Limit int
}

// TypeAmount is one slice of a per-beneficiary breakdown.
type TypeAmount struct {
	Type        Type  `json:"type"`
	AmountCents int64 `json:"amount_cents"`
}

// BeneficiaryRollup aggregates a beneficiary's pending rows.
type BeneficiaryRollup struct {
	BeneficiaryKind    BeneficiaryKind `json:"beneficiary_kind"`
	BeneficiaryID      snowflake.ID    `json:"beneficiary_id"`
	PendingAmountCents int64           `json:"pending_amount_cents"`
	PendingCount       int64           `json:"pending_count"`
	Breakdown          []TypeAmount    `json:"breakdown"`
}

// Summary is the global dashboard card payload. "This month" windows are
// supplied by the caller so the store never consults the wall clock.
type Summary struct {
	PendingAmountCents            int64 `json:"pending_amount_cents"`
	PendingCount                  int64 `json:"pending_count"`
	PaidThisMonthAmountCents      int64 `json:"paid_this_month_amount_cents"`
	PaidThisMonthCount            int64 `json:"paid_this_month_count"`
	GeneratedThisMonthAmountCents int64 `json:"generated_this_month_amount_cents"`
	GeneratedThisMonthCount       int64 `json:"generated_this_month_count"`
}

type Repository interface {
	// Exists reports whether a commission with the given idempotency key
	// has already been accrued.
	Exists(ctx context.Context, typ Type, sourceRef string) (bool, error)
	// Insert persists a new row. It returns false without error when a
	// concurrent writer already inserted the same (type, source_ref) key.
	Insert(ctx context.Context, row *Commission) (bool, error)
	GetBySource(ctx context.Context, typ Type, sourceRef string) (*Commission, error)

	// List returns rows matching the filter ordered by (created_at, id)
	// so pages stay stable while new rows arrive, plus the total count.
	List(ctx context.Context, filter ListFilter) ([]Commission, int64, error)

	// ListPendingLocked selects a beneficiary's pending rows inside the
	// current transaction, taking row locks where the dialect supports
	// them. This is the settlement snapshot.
	ListPendingLocked(ctx context.Context, kind BeneficiaryKind, beneficiaryID snowflake.ID) ([]Commission, error)
	// MarkPaid transitions the given rows to PAID with one shared
	// timestamp, guarded on status so an already-paid row is never paid
	// twice. Returns the number of rows actually transitioned.
	MarkPaid(ctx context.Context, ids []snowflake.ID, paidAt time.Time) (int64, error)

	AggregateByBeneficiary(ctx context.Context, kind BeneficiaryKind) ([]BeneficiaryRollup, error)
	AggregateSummary(ctx context.Context, monthStart, monthEnd time.Time) (*Summary, error)
}
