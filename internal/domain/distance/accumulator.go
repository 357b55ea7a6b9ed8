// Package distance accumulates travelled and remaining distance along a voyage.
package distance

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Precision of all distances in nautical miles.
const Precision int32 = 1

var ErrNegativeLeg = errors.New("leg distance must not be negative")

// Totals is the cumulative position of a voyage before a report.
type Totals struct {
	Travelled   decimal.Decimal `json:"travelled"`
	VoyageTotal decimal.Decimal `json:"voyageTotal"`
}

// Result is the cumulative position after a report.
type Result struct {
	Travelled decimal.Decimal `json:"travelled"`
	ToGo      decimal.Decimal `json:"toGo"`
}

// Compute adds leg to the opening totals. leg is assumed validated;
// ToGo is clamped to [0, VoyageTotal].
func Compute(opening Totals, leg decimal.Decimal) Result {
	travelled := opening.Travelled.Add(leg).Round(Precision)
	return Result{
		Travelled: travelled,
		ToGo:      clamp(opening.VoyageTotal.Sub(travelled), decimal.Zero, opening.VoyageTotal).Round(Precision),
	}
}

// ValidateLeg is the input-layer check for a leg distance.
func ValidateLeg(leg decimal.Decimal) error {
	if leg.IsNegative() {
		return ErrNegativeLeg
	}
	return nil
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if hi.LessThan(lo) {
		hi = lo
	}
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
