package market

import "github.com/shopspring/decimal"

const (
	// BasePrice is the reference rate every synthetic quote is drawn around.
	BasePrice = 1.0850

	// LotSize is one standard lot in base currency units.
	LotSize = 100_000.0

	PricePlaces = 5
	CashPlaces  = 2
)

// RoundPrice rounds x half away from zero to PricePlaces decimals.
func RoundPrice(x float64) float64 {
	return decimal.NewFromFloat(x).Round(PricePlaces).InexactFloat64()
}

// RoundCash rounds x to cents.
func RoundCash(x float64) float64 {
	return decimal.NewFromFloat(x).Round(CashPlaces).InexactFloat64()
}

// Profit is the P/L of units of a position opened at entry and marked at current.
func Profit(side Side, entry, current, units float64) float64 {
	return side.Sign() * (current - entry) * units
}
