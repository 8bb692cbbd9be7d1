package cli

import (
	"github.com/spf13/cobra"

	"memeconomy/internal/app"
)

var exportFlags struct {
	symbol      string
	granularity string
	png         string
	csv         string
	maxPoints   int
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a token's price history as CSV and/or PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Export(cmd.Context(), app.ExportOptions{
			Symbol:      exportFlags.symbol,
			Granularity: exportFlags.granularity,
			PNGPath:     exportFlags.png,
			CSVPath:     exportFlags.csv,
			MaxPoints:   exportFlags.maxPoints,
		})
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFlags.symbol, "symbol", "", "Token symbol")
	exportCmd.Flags().StringVar(&exportFlags.granularity, "granularity", "minute", "History granularity: minute, hourly, daily or weekly")
	exportCmd.Flags().StringVar(&exportFlags.png, "png", "", "Write a PNG chart to this path")
	exportCmd.Flags().StringVar(&exportFlags.csv, "csv", "", "Write a CSV file to this path")
	exportCmd.Flags().IntVar(&exportFlags.maxPoints, "max-points", 0, "Maximum number of points to export (0 uses the configured default)")
	_ = exportCmd.MarkFlagRequired("symbol")
}
