package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AccrualsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palco_commission_accruals_total",
			Help: "Commission rows accrued, by type.",
		},
		[]string{"type"},
	)

	DuplicateAccrualsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "palco_commission_duplicate_accruals_total",
			Help: "Sale events replayed against an existing ledger row.",
		},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palco_commission_settlements_total",
			Help: "Settlement batches committed, by beneficiary kind.",
		},
		[]string{"beneficiary_kind"},
	)

	SettledAmountCents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palco_commission_settled_amount_cents_total",
			Help: "Total cents settled, by beneficiary kind.",
		},
		[]string{"beneficiary_kind"},
	)

	SettlementConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "palco_commission_settlement_conflicts_total",
			Help: "Settlement batches rolled back after losing a snapshot race.",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palco_http_requests_total",
			Help: "HTTP requests served.",
		},
		[]string{"method", "path", "status"},
	)
)
