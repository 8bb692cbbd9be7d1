package sim

import (
	"github.com/shopspring/decimal"

	"memeconomy/internal/config"
)

// Direction of one price move.
type Direction int

const (
	Up   Direction = 1
	Down Direction = -1
)

// TierFor selects the volatility band for a price. Tiers are ordered by
// ascending threshold; the first band whose threshold covers the price wins,
// and the zero-threshold band catches everything above.
//
// Note the observed configuration widens the allowed swing as price increases;
// that shape is preserved deliberately.
func TierFor(tiers []config.TierConfig, price decimal.Decimal) config.TierConfig {
	for _, tier := range tiers {
		if tier.PriceThreshold <= 0 {
			return tier
		}
		if price.LessThanOrEqual(decimal.NewFromFloat(tier.PriceThreshold)) {
			return tier
		}
	}
	return tiers[len(tiers)-1]
}

// Step applies one deterministic walk step: candidate = price * (1 ± magnitude),
// floored at zero. The second return reports whether the candidate fell below
// the crash threshold, in which case the candidate must not be persisted.
func Step(price decimal.Decimal, dir Direction, magnitude float64, crashThreshold float64) (decimal.Decimal, bool) {
	delta := price.Mul(decimal.NewFromFloat(magnitude))

	var candidate decimal.Decimal
	if dir == Up {
		candidate = price.Add(delta)
	} else {
		candidate = price.Sub(delta)
	}
	if candidate.IsNegative() {
		candidate = decimal.Zero
	}

	return candidate, candidate.LessThan(decimal.NewFromFloat(crashThreshold))
}
