package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var mintFlags struct {
	symbol   string
	name     string
	memecoin bool
}

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint a new token",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := getApp().Mint(cmd.Context(), mintFlags.symbol, mintFlags.name, mintFlags.memecoin)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "minted %s (%s) price=%s supply=%s\n",
			token.Symbol, token.Name, token.PricePerUnit.String(), token.TotalSupply.String())
		return nil
	},
}

func init() {
	mintCmd.Flags().StringVar(&mintFlags.symbol, "symbol", "", "Token symbol, 2-6 uppercase letters")
	mintCmd.Flags().StringVar(&mintFlags.name, "name", "", "Human-readable token name")
	mintCmd.Flags().BoolVar(&mintFlags.memecoin, "memecoin", true, "Mint a memecoin with randomized price and supply")
	_ = mintCmd.MarkFlagRequired("symbol")
	_ = mintCmd.MarkFlagRequired("name")
}
