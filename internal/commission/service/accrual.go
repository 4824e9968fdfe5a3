package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	artistdomain "github.com/palcolabs/palco/internal/artist/domain"
	"github.com/palcolabs/palco/internal/clock"
	commissiondomain "github.com/palcolabs/palco/internal/commission/domain"
	"github.com/palcolabs/palco/internal/commission/repository"
	"github.com/palcolabs/palco/internal/observability"
	"github.com/palcolabs/palco/internal/rate"
	referraldomain "github.com/palcolabs/palco/internal/referral/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// errReplayRace aborts the insert transaction when a concurrent delivery
// of the same event has already persisted the rows.
var errReplayRace = errors.New("accrual replay race")

// AccrualService turns confirmed sale events into ledger rows. Accrual
// is idempotent on (type, source_ref): replaying an event returns the
// rows persisted the first time.
type AccrualService struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	repo         commissiondomain.Repository
	artistRepo   artistdomain.Repository
	referralRepo referraldomain.Repository
}

type AccrualParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	ArtistRepo   artistdomain.Repository
	ReferralRepo referraldomain.Repository
}

func NewAccrualService(p AccrualParam) commissiondomain.AccrualService {
	return &AccrualService{
		db:           p.DB,
		log:          p.Log.Named("commission.accrual"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         repository.NewRepository(p.DB),
		artistRepo:   p.ArtistRepo,
		referralRepo: p.ReferralRepo,
	}
}

func (s *AccrualService) AccrueOrderItem(ctx context.Context, ev commissiondomain.OrderItemPaid) (*commissiondomain.AccrualResult, error) {
	if err := validateOrderItem(ev); err != nil {
		s.log.Warn("order item event rejected",
			zap.String("order_item_id", ev.OrderItemID),
			zap.Error(err))
		return nil, err
	}
	if err := s.resolveBeneficiaries(ctx, ev.ArtistID, ev.ReferralID); err != nil {
		return nil, err
	}

	typ := commissiondomain.TypeArtistProduct
	if ev.ItemKind == commissiondomain.ItemKindCustomization {
		typ = commissiondomain.TypeCustomization
	}

	amountCents := rate.ArtistProductCommission(
		ev.UnitSalePrice, ev.UnitManufacturingCost, ev.CommissionRatePercent, ev.Quantity)

	primary := commissiondomain.Commission{
		Type:            typ,
		SourceRef:       ev.OrderItemID,
		AmountCents:     amountCents,
		RatePercent:     ev.CommissionRatePercent,
		BeneficiaryKind: commissiondomain.BeneficiaryArtist,
		BeneficiaryID:   ev.ArtistID,
	}

	var referralRow *commissiondomain.Commission
	if ev.ReferralID != nil {
		base := rate.GrossOrderLine(ev.UnitSalePrice, ev.Quantity)
		referralRow = &commissiondomain.Commission{
			Type:            commissiondomain.TypeReferral,
			SourceRef:       ev.OrderItemID,
			AmountCents:     rate.ReferralCommission(base, *ev.ReferralRatePercent),
			RatePercent:     *ev.ReferralRatePercent,
			BeneficiaryKind: commissiondomain.BeneficiaryReferrer,
			BeneficiaryID:   *ev.ReferralID,
		}
	}

	return s.persist(ctx, primary, referralRow)
}

func (s *AccrualService) AccrueTicket(ctx context.Context, ev commissiondomain.TicketPaid) (*commissiondomain.AccrualResult, error) {
	if err := validateTicket(ev); err != nil {
		s.log.Warn("ticket event rejected",
			zap.String("ticket_id", ev.TicketID),
			zap.Error(err))
		return nil, err
	}
	if err := s.resolveBeneficiaries(ctx, ev.ArtistID, ev.ReferralID); err != nil {
		return nil, err
	}

	// The artist receives the exact complement of the rounded platform
	// fee, so the two shares always sum back to the ticket price.
	_, artistCents := rate.TicketSplit(ev.Price, ev.PlatformFeePercent)

	primary := commissiondomain.Commission{
		Type:            commissiondomain.TypeTicket,
		SourceRef:       ev.TicketID,
		AmountCents:     artistCents,
		RatePercent:     ev.PlatformFeePercent,
		BeneficiaryKind: commissiondomain.BeneficiaryArtist,
		BeneficiaryID:   ev.ArtistID,
	}

	var referralRow *commissiondomain.Commission
	if ev.ReferralID != nil {
		referralRow = &commissiondomain.Commission{
			Type:            commissiondomain.TypeReferral,
			SourceRef:       ev.TicketID,
			AmountCents:     rate.ReferralCommission(ev.Price, *ev.ReferralRatePercent),
			RatePercent:     *ev.ReferralRatePercent,
			BeneficiaryKind: commissiondomain.BeneficiaryReferrer,
			BeneficiaryID:   *ev.ReferralID,
		}
	}

	return s.persist(ctx, primary, referralRow)
}

// resolveBeneficiaries verifies that every beneficiary referenced by the
// event exists. Accrual never fabricates a placeholder beneficiary; an
// unresolvable reference fails loudly and the caller retries.
func (s *AccrualService) resolveBeneficiaries(ctx context.Context, artistID snowflake.ID, referralID *snowflake.ID) error {
	artist, err := s.artistRepo.Get(ctx, artistID)
	if err != nil {
		return err
	}
	if artist == nil {
		return commissiondomain.ErrArtistNotFound
	}
	if referralID != nil {
		ref, err := s.referralRepo.Get(ctx, *referralID)
		if err != nil {
			return err
		}
		if ref == nil {
			return commissiondomain.ErrReferralNotFound
		}
	}
	return nil
}

// persist writes the primary row and the optional referral row in one
// transaction: a replayed event either finds both rows or neither.
func (s *AccrualService) persist(ctx context.Context, primary commissiondomain.Commission, referralRow *commissiondomain.Commission) (*commissiondomain.AccrualResult, error) {
	exists, err := s.repo.Exists(ctx, primary.Type, primary.SourceRef)
	if err != nil {
		return nil, err
	}
	if exists {
		return s.replayResult(ctx, primary, referralRow)
	}

	now := s.clock.Now(ctx)
	rows := []commissiondomain.Commission{primary}
	if referralRow != nil {
		rows = append(rows, *referralRow)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repoTx := repository.NewRepository(tx)
		for i := range rows {
			rows[i].ID = s.genID.Generate()
			rows[i].Status = commissiondomain.StatusPending
			rows[i].CreatedAt = now

			ok, err := repoTx.Insert(ctx, &rows[i])
			if err != nil {
				return err
			}
			if !ok {
				// A concurrent replay won the race; roll back so the
				// batch stays both-or-neither and serve the stored rows.
				return errReplayRace
			}
		}
		return nil
	})
	if errors.Is(err, errReplayRace) {
		return s.replayResult(ctx, primary, referralRow)
	}
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		observability.AccrualsTotal.WithLabelValues(string(row.Type)).Inc()
	}
	s.log.Info("commission accrued",
		zap.String("type", string(primary.Type)),
		zap.String("source_ref", primary.SourceRef),
		zap.Int64("amount_cents", primary.AmountCents),
		zap.Bool("referral", referralRow != nil))

	return &commissiondomain.AccrualResult{Commissions: rows}, nil
}

// replayResult loads the rows persisted by the first delivery of this
// event. Duplicate accrual is a success, never an error. The referral
// row keys independently on (REFERRAL, source_ref), so a replay that
// carries a referral the first delivery lacked still accrues it.
func (s *AccrualService) replayResult(ctx context.Context, primary commissiondomain.Commission, referralRow *commissiondomain.Commission) (*commissiondomain.AccrualResult, error) {
	observability.DuplicateAccrualsTotal.Inc()

	stored, err := s.repo.GetBySource(ctx, primary.Type, primary.SourceRef)
	if err != nil {
		return nil, err
	}
	result := &commissiondomain.AccrualResult{Duplicate: true}
	if stored != nil {
		result.Commissions = append(result.Commissions, *stored)
	}
	if referralRow != nil {
		ref, err := s.accrueLateReferral(ctx, *referralRow)
		if err != nil {
			return nil, err
		}
		if ref != nil {
			result.Commissions = append(result.Commissions, *ref)
		}
	}
	return result, nil
}

func (s *AccrualService) accrueLateReferral(ctx context.Context, row commissiondomain.Commission) (*commissiondomain.Commission, error) {
	row.ID = s.genID.Generate()
	row.Status = commissiondomain.StatusPending
	row.CreatedAt = s.clock.Now(ctx)

	ok, err := s.repo.Insert(ctx, &row)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.repo.GetBySource(ctx, row.Type, row.SourceRef)
	}

	observability.AccrualsTotal.WithLabelValues(string(row.Type)).Inc()
	s.log.Info("commission accrued",
		zap.String("type", string(row.Type)),
		zap.String("source_ref", row.SourceRef),
		zap.Int64("amount_cents", row.AmountCents),
		zap.Bool("referral", true))
	return &row, nil
}

func validateOrderItem(ev commissiondomain.OrderItemPaid) error {
	if ev.OrderItemID == "" {
		return commissiondomain.ErrInvalidSourceRef
	}
	if ev.ArtistID == 0 {
		return commissiondomain.ErrInvalidArtist
	}
	if ev.Quantity < 1 {
		return commissiondomain.ErrInvalidQuantity
	}
	switch ev.ItemKind {
	case "", commissiondomain.ItemKindProduct, commissiondomain.ItemKindCustomization:
	default:
		return commissiondomain.ErrInvalidItemKind
	}
	if err := validateMoney(ev.UnitSalePrice); err != nil {
		return err
	}
	if err := validateMoney(ev.UnitManufacturingCost); err != nil {
		return err
	}
	if err := validatePercent(ev.CommissionRatePercent); err != nil {
		return err
	}
	return validateReferral(ev.ReferralID, ev.ReferralRatePercent)
}

func validateTicket(ev commissiondomain.TicketPaid) error {
	if ev.TicketID == "" {
		return commissiondomain.ErrInvalidSourceRef
	}
	if ev.ArtistID == 0 {
		return commissiondomain.ErrInvalidArtist
	}
	if err := validateMoney(ev.Price); err != nil {
		return err
	}
	if err := validatePercent(ev.PlatformFeePercent); err != nil {
		return err
	}
	return validateReferral(ev.ReferralID, ev.ReferralRatePercent)
}

func validateMoney(d decimal.Decimal) error {
	if d.IsNegative() || !rate.HasCentPrecision(d) {
		return commissiondomain.ErrInvalidPrice
	}
	return nil
}

func validatePercent(d decimal.Decimal) error {
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
		return commissiondomain.ErrInvalidRate
	}
	return nil
}

func validateReferral(id *snowflake.ID, ratePercent *decimal.Decimal) error {
	if id == nil && ratePercent == nil {
		return nil
	}
	if id == nil || ratePercent == nil || *id == 0 {
		return commissiondomain.ErrInvalidReferral
	}
	return validatePercent(*ratePercent)
}
