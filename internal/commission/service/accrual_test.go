package service

import (
	"context"
	"testing"

	commissiondomain "github.com/palcolabs/palco/internal/commission/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderItemEvent(env *testEnv) commissiondomain.OrderItemPaid {
	return commissiondomain.OrderItemPaid{
		OrderItemID:           "order-item-1",
		ArtistProductID:       "product-1",
		ArtistID:              env.artistID,
		Quantity:              2,
		UnitSalePrice:         dec("59.90"),
		UnitManufacturingCost: dec("15"),
		CommissionRatePercent: dec("50"),
	}
}

func TestAccrueOrderItem(t *testing.T) {
	env := setupEnv(t)
	svc := env.accrualService()
	ctx := context.Background()

	result, err := svc.AccrueOrderItem(ctx, orderItemEvent(env))
	require.NoError(t, err)
	require.False(t, result.Duplicate)
	require.Len(t, result.Commissions, 1)

	row := result.Commissions[0]
	assert.Equal(t, commissiondomain.TypeArtistProduct, row.Type)
	assert.Equal(t, int64(4490), row.AmountCents) // round((59.90-15)*0.5*2)
	assert.Equal(t, commissiondomain.StatusPending, row.Status)
	assert.Equal(t, commissiondomain.BeneficiaryArtist, row.BeneficiaryKind)
	assert.Equal(t, env.artistID, row.BeneficiaryID)
	assert.Nil(t, row.PaidAt)
}

func TestAccrueOrderItemIdempotent(t *testing.T) {
	env := setupEnv(t)
	svc := env.accrualService()
	ctx := context.Background()

	first, err := svc.AccrueOrderItem(ctx, orderItemEvent(env))
	require.NoError(t, err)

	second, err := svc.AccrueOrderItem(ctx, orderItemEvent(env))
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	require.Len(t, second.Commissions, 1)
	assert.Equal(t, first.Commissions[0].ID, second.Commissions[0].ID)

	var count int64
	require.NoError(t, env.db.Model(&commissiondomain.Commission{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAccrueOrderItemWithReferral(t *testing.T) {
	env := setupEnv(t)
	svc := env.accrualService()
	ctx := context.Background()

	ev := orderItemEvent(env)
	ev.ReferralID = idPtr(env.referralID)
	ev.ReferralRatePercent = decPtr("5")

	result, err := svc.AccrueOrderItem(ctx, ev)
	require.NoError(t, err)
	require.Len(t, result.Commissions, 2)

	primary, referralRow := result.Commissions[0], result.Commissions[1]
	assert.Equal(t, commissiondomain.TypeArtistProduct, primary.Type)
	assert.Equal(t, commissiondomain.TypeReferral, referralRow.Type)
	// Same sale line, two rows distinguished by type.
	assert.Equal(t, primary.SourceRef, referralRow.SourceRef)
	// Referral base is the gross line total: 59.90*2 = 119.80 at 5%.
	assert.Equal(t, int64(599), referralRow.AmountCents)
	assert.Equal(t, commissiondomain.BeneficiaryReferrer, referralRow.BeneficiaryKind)
	assert.Equal(t, env.referralID, referralRow.BeneficiaryID)
}

func TestAccrueOrderItemReplayAccruesMissingReferral(t *testing.T) {
	env := setupEnv(t)
	svc := env.accrualService()
	ctx := context.Background()

	first, err := svc.AccrueOrderItem(ctx, orderItemEvent(env))
	require.NoError(t, err)
	require.Len(t, first.Commissions, 1)

	// The referral row keys on (REFERRAL, source_ref) in its own right,
	// so a replay carrying a referral the first delivery lacked still
	// accrues it without touching the primary row.
	ev := orderItemEvent(env)
	ev.ReferralID = idPtr(env.referralID)
	ev.ReferralRatePercent = decPtr("5")

	replay, err := svc.AccrueOrderItem(ctx, ev)
	require.NoError(t, err)
	assert.True(t, replay.Duplicate)
	require.Len(t, replay.Commissions, 2)
	assert.Equal(t, first.Commissions[0].ID, replay.Commissions[0].ID)

	referralRow := replay.Commissions[1]
	assert.Equal(t, commissiondomain.TypeReferral, referralRow.Type)
	assert.Equal(t, int64(599), referralRow.AmountCents)

	var count int64
	require.NoError(t, env.db.Model(&commissiondomain.Commission{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	// A further replay with the same referral stays a pure no-op.
	again, err := svc.AccrueOrderItem(ctx, ev)
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	require.Len(t, again.Commissions, 2)
	assert.Equal(t, referralRow.ID, again.Commissions[1].ID)

	require.NoError(t, env.db.Model(&commissiondomain.Commission{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestAccrueOrderItemNegativeMarginClampsToZero(t *testing.T) {
	env := setupEnv(t)
	svc := env.accrualService()

	ev := orderItemEvent(env)
	ev.UnitSalePrice = dec("10")
	ev.UnitManufacturingCost = dec("15")

	result, err := svc.AccrueOrderItem(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Commissions[0].AmountCents)
}

func TestAccrueOrderItemCustomization(t *testing.T) {
	env := setupEnv(t)
	svc := env.accrualService()

	ev := orderItemEvent(env)
	ev.ItemKind = commissiondomain.ItemKindCustomization

	result, err := svc.AccrueOrderItem(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, commissiondomain.TypeCustomization, result.Commissions[0].Type)
}

func TestAccrueOrderItemValidation(t *testing.T) {
	env := setupEnv(t)
	svc := env.accrualService()
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*commissiondomain.OrderItemPaid)
		wantErr error
	}{
		{"missing source ref", func(ev *commissiondomain.OrderItemPaid) { ev.OrderItemID = "" }, commissiondomain.ErrInvalidSourceRef},
		{"missing artist", func(ev *commissiondomain.OrderItemPaid) { ev.ArtistID = 0 }, commissiondomain.ErrInvalidArtist},
		{"zero quantity", func(ev *commissiondomain.OrderItemPaid) { ev.Quantity = 0 }, commissiondomain.ErrInvalidQuantity},
		{"negative price", func(ev *commissiondomain.OrderItemPaid) { ev.UnitSalePrice = dec("-1") }, commissiondomain.ErrInvalidPrice},
		{"sub cent price", func(ev *commissiondomain.OrderItemPaid) { ev.UnitSalePrice = dec("1.005") }, commissiondomain.ErrInvalidPrice},
		{"rate above 100", func(ev *commissiondomain.OrderItemPaid) { ev.CommissionRatePercent = dec("101") }, commissiondomain.ErrInvalidRate},
		{"unknown item kind", func(ev *commissiondomain.OrderItemPaid) { ev.ItemKind = "sticker" }, commissiondomain.ErrInvalidItemKind},
		{"referral rate without id", func(ev *commissiondomain.OrderItemPaid) { ev.ReferralRatePercent = decPtr("5") }, commissiondomain.ErrInvalidReferral},
		{"referral id without rate", func(ev *commissiondomain.OrderItemPaid) { ev.ReferralID = idPtr(env.referralID) }, commissiondomain.ErrInvalidReferral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := orderItemEvent(env)
			tt.mutate(&ev)

			_, err := svc.AccrueOrderItem(ctx, ev)
			require.ErrorIs(t, err, tt.wantErr)

			// Nothing persists for a rejected event.
			var count int64
			require.NoError(t, env.db.Model(&commissiondomain.Commission{}).Count(&count).Error)
			assert.Equal(t, int64(0), count)
		})
	}
}

func TestAccrueOrderItemUnresolvableBeneficiary(t *testing.T) {
	env := setupEnv(t)
	svc := env.accrualService()
	ctx := context.Background()

	ev := orderItemEvent(env)
	ev.ArtistID = env.node.Generate() // never created
	_, err := svc.AccrueOrderItem(ctx, ev)
	require.ErrorIs(t, err, commissiondomain.ErrArtistNotFound)

	ev = orderItemEvent(env)
	ev.ReferralID = idPtr(env.node.Generate())
	ev.ReferralRatePercent = decPtr("5")
	_, err = svc.AccrueOrderItem(ctx, ev)
	require.ErrorIs(t, err, commissiondomain.ErrReferralNotFound)

	var count int64
	require.NoError(t, env.db.Model(&commissiondomain.Commission{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestAccrueTicket(t *testing.T) {
	env := setupEnv(t)
	svc := env.accrualService()
	ctx := context.Background()

	result, err := svc.AccrueTicket(ctx, commissiondomain.TicketPaid{
		TicketID:           "ticket-1",
		ShowID:             "show-1",
		ArtistID:           env.artistID,
		Price:              dec("100"),
		PlatformFeePercent: dec("10"),
	})
	require.NoError(t, err)
	require.Len(t, result.Commissions, 1)

	row := result.Commissions[0]
	assert.Equal(t, commissiondomain.TypeTicket, row.Type)
	// price=100, fee=10% -> platform keeps 10.00, artist accrues 90.00.
	assert.Equal(t, int64(9000), row.AmountCents)
}

func TestAccrueTicketWithReferral(t *testing.T) {
	env := setupEnv(t)
	svc := env.accrualService()

	result, err := svc.AccrueTicket(context.Background(), commissiondomain.TicketPaid{
		TicketID:            "ticket-2",
		ShowID:              "show-1",
		ArtistID:            env.artistID,
		Price:               dec("80"),
		PlatformFeePercent:  dec("12.5"),
		ReferralID:          idPtr(env.referralID),
		ReferralRatePercent: decPtr("5"),
	})
	require.NoError(t, err)
	require.Len(t, result.Commissions, 2)

	// Referral base is the full ticket price: 80 at 5%.
	assert.Equal(t, int64(400), result.Commissions[1].AmountCents)
}

func TestAccrueTicketIdempotent(t *testing.T) {
	env := setupEnv(t)
	svc := env.accrualService()
	ctx := context.Background()

	ev := commissiondomain.TicketPaid{
		TicketID:           "ticket-3",
		ShowID:             "show-2",
		ArtistID:           env.artistID,
		Price:              dec("45.50"),
		PlatformFeePercent: dec("10"),
	}

	_, err := svc.AccrueTicket(ctx, ev)
	require.NoError(t, err)
	second, err := svc.AccrueTicket(ctx, ev)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)

	var count int64
	require.NoError(t, env.db.Model(&commissiondomain.Commission{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestOrderAndTicketShareSourceRefNamespacesByType(t *testing.T) {
	env := setupEnv(t)
	svc := env.accrualService()
	ctx := context.Background()

	ev := orderItemEvent(env)
	ev.OrderItemID = "ref-1"
	_, err := svc.AccrueOrderItem(ctx, ev)
	require.NoError(t, err)

	// Same source ref under a different type is a distinct commission.
	_, err = svc.AccrueTicket(ctx, commissiondomain.TicketPaid{
		TicketID:           "ref-1",
		ShowID:             "show-1",
		ArtistID:           env.artistID,
		Price:              dec("10"),
		PlatformFeePercent: dec("10"),
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, env.db.Model(&commissiondomain.Commission{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
