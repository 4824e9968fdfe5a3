package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/palcolabs/palco/internal/audit/domain"
	"github.com/palcolabs/palco/internal/clock"
	commissiondomain "github.com/palcolabs/palco/internal/commission/domain"
	"github.com/palcolabs/palco/internal/commission/repository"
	"github.com/palcolabs/palco/internal/config"
	"github.com/palcolabs/palco/internal/observability"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SettlementService performs the all-or-nothing PENDING -> PAID bulk
// transition for one beneficiary. Concurrent settlements of the same
// beneficiary serialize on the pending snapshot: the loser either sees
// an empty set or retries the whole selection. Settlements of different
// beneficiaries share no locks.
type SettlementService struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	audit   auditdomain.Service
	retries int
}

type SettlementParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Config *config.Config
	Audit  auditdomain.Service `optional:"true"`
}

func NewSettlementService(p SettlementParam) commissiondomain.SettlementService {
	retries := p.Config.SettleRetries
	if retries < 1 {
		retries = 1
	}
	return &SettlementService{
		db:      p.DB,
		log:     p.Log.Named("commission.settlement"),
		clock:   p.Clock,
		audit:   p.Audit,
		retries: retries,
	}
}

func (s *SettlementService) SettleAll(ctx context.Context, kind commissiondomain.BeneficiaryKind, beneficiaryID snowflake.ID, actor commissiondomain.Actor) (*commissiondomain.SettleResult, error) {
	if !kind.Valid() || beneficiaryID == 0 {
		return nil, commissiondomain.ErrInvalidKind
	}

	var result *commissiondomain.SettleResult
	var err error
	for attempt := 1; attempt <= s.retries; attempt++ {
		result, err = s.settleOnce(ctx, kind, beneficiaryID)
		if !errors.Is(err, commissiondomain.ErrSettlementConflict) {
			break
		}
		observability.SettlementConflictsTotal.Inc()
		s.log.Warn("settlement snapshot conflict, retrying",
			zap.String("beneficiary_kind", string(kind)),
			zap.Int64("beneficiary_id", int64(beneficiaryID)),
			zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	if result.PaidCount > 0 {
		observability.SettlementsTotal.WithLabelValues(string(kind)).Inc()
		observability.SettledAmountCents.WithLabelValues(string(kind)).Add(float64(result.PaidAmountCents))
		s.log.Info("beneficiary settled",
			zap.String("beneficiary_kind", string(kind)),
			zap.Int64("beneficiary_id", int64(beneficiaryID)),
			zap.Int64("paid_count", result.PaidCount),
			zap.Int64("paid_amount_cents", result.PaidAmountCents),
			zap.String("actor_id", actor.ID))

		if s.audit != nil {
			_ = s.audit.Record(ctx, auditdomain.Entry{
				ActorID:    actor.ID,
				ActorName:  actor.Name,
				Action:     "commission.settle",
				TargetKind: string(kind),
				TargetID:   beneficiaryID.String(),
				Detail: map[string]any{
					"paid_count":        result.PaidCount,
					"paid_amount_cents": result.PaidAmountCents,
				},
			})
		}
	}
	return result, nil
}

// settleOnce runs one settlement attempt in a single transaction. The
// snapshot is the pending set at transaction start; rows accruing after
// that are left for the next run. A guarded update detects any row the
// snapshot lost to a concurrent settlement and rolls the batch back.
func (s *SettlementService) settleOnce(ctx context.Context, kind commissiondomain.BeneficiaryKind, beneficiaryID snowflake.ID) (*commissiondomain.SettleResult, error) {
	result := &commissiondomain.SettleResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repoTx := repository.NewRepository(tx)

		snapshot, err := repoTx.ListPendingLocked(ctx, kind, beneficiaryID)
		if err != nil {
			return err
		}
		if len(snapshot) == 0 {
			// Already settled, or nothing accrued yet. A safe no-op.
			return nil
		}

		ids := make([]snowflake.ID, 0, len(snapshot))
		var amountCents int64
		for _, row := range snapshot {
			ids = append(ids, row.ID)
			amountCents += row.AmountCents
		}

		paidAt := s.clock.Now(ctx)
		affected, err := repoTx.MarkPaid(ctx, ids, paidAt)
		if err != nil {
			return err
		}
		if affected != int64(len(ids)) {
			// Someone paid part of the snapshot first. Abort; nothing
			// from this batch may stick.
			return commissiondomain.ErrSettlementConflict
		}

		result.PaidCount = int64(len(ids))
		result.PaidAmountCents = amountCents
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
