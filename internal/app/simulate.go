package app

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"memeconomy/internal/sim"
)

// SimulateTickOptions force one walk step with fixed draws.
type SimulateTickOptions struct {
	Price     float64
	Direction string
	Magnitude float64
}

// SimulateTick previews a single price step with forced direction and
// magnitude, without touching the database. Useful for verifying tier and
// crash behaviour against a known draw.
func (a *App) SimulateTick(opts SimulateTickOptions) error {
	if opts.Price <= 0 {
		return fmt.Errorf("--price must be greater than 0")
	}
	if opts.Magnitude < 0 {
		return fmt.Errorf("--magnitude cannot be negative")
	}

	var dir sim.Direction
	switch opts.Direction {
	case "up":
		dir = sim.Up
	case "down":
		dir = sim.Down
	default:
		return fmt.Errorf("--direction must be up or down, got %q", opts.Direction)
	}

	price := decimal.NewFromFloat(opts.Price)
	tier := sim.TierFor(a.Config.Sim.Tiers, price)
	candidate, crashes := sim.Step(price, dir, opts.Magnitude, a.Config.Sim.CrashPriceThreshold)

	fmt.Fprintf(os.Stdout, "price:     %s\n", price.String())
	fmt.Fprintf(os.Stdout, "tier:      threshold=%g magnitude=[%g, %g]\n", tier.PriceThreshold, tier.Min, tier.Max)
	fmt.Fprintf(os.Stdout, "candidate: %s\n", candidate.String())
	if crashes {
		fmt.Fprintf(os.Stdout, "outcome:   CRASH (candidate below %g; price would be zeroed)\n", a.Config.Sim.CrashPriceThreshold)
	} else {
		fmt.Fprintln(os.Stdout, "outcome:   persisted")
	}
	return nil
}
