package cli

import (
	"github.com/spf13/cobra"

	"memeconomy/internal/app"
)

var simulateFlags struct {
	price     float64
	direction string
	magnitude float64
}

var simulateCmd = &cobra.Command{
	Use:   "simulate-tick",
	Short: "Preview one price step with a forced direction and magnitude",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SimulateTick(app.SimulateTickOptions{
			Price:     simulateFlags.price,
			Direction: simulateFlags.direction,
			Magnitude: simulateFlags.magnitude,
		})
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateFlags.price, "price", 0, "Current price to step from")
	simulateCmd.Flags().StringVar(&simulateFlags.direction, "direction", "up", "Forced direction: up or down")
	simulateCmd.Flags().Float64Var(&simulateFlags.magnitude, "magnitude", 0, "Forced step magnitude, e.g. 0.05 for 5%")
	_ = simulateCmd.MarkFlagRequired("price")
	_ = simulateCmd.MarkFlagRequired("magnitude")
}
