package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var tradeFlags struct {
	user   string
	symbol string
	amount string
	side   string
}

var tradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Buy or sell a token for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := getApp().Trade(cmd.Context(), tradeFlags.user, tradeFlags.symbol, tradeFlags.amount, tradeFlags.side)
		if err != nil {
			return err
		}
		record := result.Record
		fmt.Fprintf(os.Stdout, "%s %s %s at %s (total %s, holding now %s)\n",
			record.Type, record.Amount.String(), tradeFlags.symbol,
			record.PriceAtTransaction.String(),
			record.Amount.Mul(record.PriceAtTransaction).String(),
			result.Holding.String())
		return nil
	},
}

func init() {
	tradeCmd.Flags().StringVar(&tradeFlags.user, "user", "", "Discord user id")
	tradeCmd.Flags().StringVar(&tradeFlags.symbol, "symbol", "", "Token symbol")
	tradeCmd.Flags().StringVar(&tradeFlags.amount, "amount", "", "Token amount")
	tradeCmd.Flags().StringVar(&tradeFlags.side, "side", "buy", "Trade side: buy or sell")
	_ = tradeCmd.MarkFlagRequired("user")
	_ = tradeCmd.MarkFlagRequired("symbol")
	_ = tradeCmd.MarkFlagRequired("amount")
}
