// Package rate holds the commission formulas. Every caller that needs a
// commission amount, whether accruing a ledger row or previewing an
// estimate, goes through these functions so displayed and persisted
// amounts can never drift apart.
package rate

import "github.com/shopspring/decimal"

// Cents converts a currency amount to integer cents, rounding half up.
// Rounding happens here and nowhere else; inputs are always the raw
// unrounded decimals.
func Cents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// HasCentPrecision reports whether d carries at most two decimal places.
func HasCentPrecision(d decimal.Decimal) bool {
	return d.Exponent() >= -2 || d.Equal(d.Round(2))
}

// ArtistProductCommission computes the merchandise commission in cents.
// The base is the per-unit margin; a loss-making sale clamps to zero, a
// commission is never negative.
func ArtistProductCommission(unitSalePrice, unitManufacturingCost, ratePercent decimal.Decimal, quantity int64) int64 {
	margin := unitSalePrice.Sub(unitManufacturingCost)
	if margin.IsNegative() {
		margin = decimal.Zero
	}
	amount := margin.Mul(ratePercent).Shift(-2).Mul(decimal.NewFromInt(quantity))
	return Cents(amount)
}

// TicketSplit divides a ticket price between the platform and the artist.
// The platform share is rounded; the artist share is the exact complement,
// so platformCents+artistCents always equals the price in cents.
func TicketSplit(price, platformFeePercent decimal.Decimal) (platformCents, artistCents int64) {
	priceCents := Cents(price)
	platformCents = Cents(price.Mul(platformFeePercent).Shift(-2))
	artistCents = priceCents - platformCents
	return platformCents, artistCents
}

// ReferralCommission computes the referral override in cents against the
// gross sale amount of the triggering line.
func ReferralCommission(baseAmount, overrideRatePercent decimal.Decimal) int64 {
	return Cents(baseAmount.Mul(overrideRatePercent).Shift(-2))
}

// GrossOrderLine is the gross sale amount of an order line, used as the
// referral commission base for merchandise sales.
func GrossOrderLine(unitSalePrice decimal.Decimal, quantity int64) decimal.Decimal {
	return unitSalePrice.Mul(decimal.NewFromInt(quantity))
}
