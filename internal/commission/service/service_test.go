package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	artistdomain "github.com/palcolabs/palco/internal/artist/domain"
	artistrepo "github.com/palcolabs/palco/internal/artist/repository"
	auditdomain "github.com/palcolabs/palco/internal/audit/domain"
	"github.com/palcolabs/palco/internal/clock"
	commissiondomain "github.com/palcolabs/palco/internal/commission/domain"
	"github.com/palcolabs/palco/internal/config"
	referraldomain "github.com/palcolabs/palco/internal/referral/domain"
	referralrepo "github.com/palcolabs/palco/internal/referral/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fixedClock pins Now so batch timestamps are deterministic.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now(context.Context) time.Time { return c.now }

type testEnv struct {
	db           *gorm.DB
	node         *snowflake.Node
	clock        clock.Clock
	artistRepo   artistdomain.Repository
	referralRepo referraldomain.Repository

	artistID   snowflake.ID
	referralID snowflake.ID
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&commissiondomain.Commission{},
		&artistdomain.Artist{},
		&referraldomain.ReferralCode{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	env := &testEnv{
		db:           db,
		node:         node,
		clock:        fixedClock{now: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)},
		artistRepo:   artistrepo.NewRepository(db),
		referralRepo: referralrepo.NewRepository(db),
	}

	env.artistID = node.Generate()
	require.NoError(t, db.Create(&artistdomain.Artist{
		ID:        env.artistID,
		StageName: "La Chispa",
		CreatedAt: time.Now().UTC(),
	}).Error)

	env.referralID = node.Generate()
	require.NoError(t, db.Create(&referraldomain.ReferralCode{
		ID:                  env.referralID,
		Code:                "RISAS10",
		OwnerName:           "Promotora Norte",
		OverrideRatePercent: decimal.NewFromInt(5),
		CreatedAt:           time.Now().UTC(),
	}).Error)

	return env
}

func (e *testEnv) accrualService() commissiondomain.AccrualService {
	return NewAccrualService(AccrualParam{
		DB:           e.db,
		Log:          zap.NewNop(),
		GenID:        e.node,
		Clock:        e.clock,
		ArtistRepo:   e.artistRepo,
		ReferralRepo: e.referralRepo,
	})
}

func (e *testEnv) settlementService(audit auditdomain.Service) commissiondomain.SettlementService {
	return NewSettlementService(SettlementParam{
		DB:     e.db,
		Log:    zap.NewNop(),
		Clock:  e.clock,
		Config: &config.Config{SettleRetries: 3},
		Audit:  audit,
	})
}

func (e *testEnv) reportingService() commissiondomain.ReportingService {
	return NewReportingService(ReportingParam{
		DB:           e.db,
		Log:          zap.NewNop(),
		Clock:        e.clock,
		ArtistRepo:   e.artistRepo,
		ReferralRepo: e.referralRepo,
	})
}

// insertPending seeds one pending ledger row directly.
func (e *testEnv) insertPending(t *testing.T, typ commissiondomain.Type, sourceRef string, kind commissiondomain.BeneficiaryKind, beneficiaryID snowflake.ID, amountCents int64) commissiondomain.Commission {
	t.Helper()
	row := commissiondomain.Commission{
		ID:              e.node.Generate(),
		Type:            typ,
		SourceRef:       sourceRef,
		AmountCents:     amountCents,
		RatePercent:     decimal.NewFromInt(50),
		Status:          commissiondomain.StatusPending,
		BeneficiaryKind: kind,
		BeneficiaryID:   beneficiaryID,
		CreatedAt:       e.clock.Now(context.Background()),
	}
	require.NoError(t, e.db.Create(&row).Error)
	return row
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func idPtr(id snowflake.ID) *snowflake.ID { return &id }
