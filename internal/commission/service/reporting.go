package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	artistdomain "github.com/palcolabs/palco/internal/artist/domain"
	"github.com/palcolabs/palco/internal/clock"
	commissiondomain "github.com/palcolabs/palco/internal/commission/domain"
	"github.com/palcolabs/palco/internal/commission/repository"
	referraldomain "github.com/palcolabs/palco/internal/referral/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReportingService serves the dashboard reads. Every aggregate runs
// inside one read transaction so a report never observes a half-applied
// settlement or accrual.
type ReportingService struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock

	artistRepo   artistdomain.Repository
	referralRepo referraldomain.Repository
}

type ReportingParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	ArtistRepo   artistdomain.Repository
	ReferralRepo referraldomain.Repository
}

func NewReportingService(p ReportingParam) commissiondomain.ReportingService {
	return &ReportingService{
		db:           p.DB,
		log:          p.Log.Named("commission.reporting"),
		clock:        p.Clock,
		artistRepo:   p.ArtistRepo,
		referralRepo: p.ReferralRepo,
	}
}

func (s *ReportingService) Summary(ctx context.Context) (*commissiondomain.Summary, error) {
	monthStart, monthEnd := monthWindow(s.clock.Now(ctx))

	var summary *commissiondomain.Summary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		summary, err = repository.NewRepository(tx).AggregateSummary(ctx, monthStart, monthEnd)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *ReportingService) BeneficiariesPending(ctx context.Context) (*commissiondomain.BeneficiariesPending, error) {
	var artistRollups, referrerRollups []commissiondomain.BeneficiaryRollup
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repoTx := repository.NewRepository(tx)
		var err error
		if artistRollups, err = repoTx.AggregateByBeneficiary(ctx, commissiondomain.BeneficiaryArtist); err != nil {
			return err
		}
		referrerRollups, err = repoTx.AggregateByBeneficiary(ctx, commissiondomain.BeneficiaryReferrer)
		return err
	})
	if err != nil {
		return nil, err
	}

	artists, err := s.artistRepo.GetMany(ctx, beneficiaryIDs(artistRollups))
	if err != nil {
		return nil, err
	}
	referrals, err := s.referralRepo.GetMany(ctx, beneficiaryIDs(referrerRollups))
	if err != nil {
		return nil, err
	}

	out := &commissiondomain.BeneficiariesPending{
		Artists:   make([]commissiondomain.ArtistPending, 0, len(artistRollups)),
		Referrers: make([]commissiondomain.ReferrerPending, 0, len(referrerRollups)),
	}
	for _, rollup := range artistRollups {
		entry := commissiondomain.ArtistPending{
			ArtistID:           rollup.BeneficiaryID,
			PendingAmountCents: rollup.PendingAmountCents,
			PendingCount:       rollup.PendingCount,
			Breakdown:          rollup.Breakdown,
		}
		if artist, ok := artists[rollup.BeneficiaryID]; ok {
			entry.StageName = artist.StageName
		}
		out.Artists = append(out.Artists, entry)
	}
	for _, rollup := range referrerRollups {
		entry := commissiondomain.ReferrerPending{
			ReferralID:         rollup.BeneficiaryID,
			PendingAmountCents: rollup.PendingAmountCents,
			PendingCount:       rollup.PendingCount,
			Breakdown:          rollup.Breakdown,
		}
		if ref, ok := referrals[rollup.BeneficiaryID]; ok {
			entry.OwnerName = ref.OwnerName
			entry.Code = ref.Code
		}
		out.Referrers = append(out.Referrers, entry)
	}
	return out, nil
}

func (s *ReportingService) History(ctx context.Context, req commissiondomain.HistoryRequest) (*commissiondomain.HistoryResponse, error) {
	filter := commissiondomain.ListFilter{
		Status: commissiondomain.StatusPaid,
		Type:   req.Type,
		From:   req.From,
		To:     req.To,
		Search: req.Search,
		Page:   req.Page,
		Limit:  req.Limit,
	}
	return s.List(ctx, filter)
}

func (s *ReportingService) List(ctx context.Context, filter commissiondomain.ListFilter) (*commissiondomain.HistoryResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	var rows []commissiondomain.Commission
	var total int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rows, total, err = repository.NewRepository(tx).List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &commissiondomain.HistoryResponse{
		Commissions: rows,
		Page:        filter.Page,
		Limit:       filter.Limit,
		Total:       total,
	}, nil
}

func beneficiaryIDs(rollups []commissiondomain.BeneficiaryRollup) []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(rollups))
	for _, r := range rollups {
		ids = append(ids, r.BeneficiaryID)
	}
	return ids
}

// monthWindow returns the [start, end) of the calendar month containing t.
func monthWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
