package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Manage price alerts",
}

var alertAddFlags struct {
	user      string
	symbol    string
	target    string
	direction string
}

var alertAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a one-shot price alert",
	RunE: func(cmd *cobra.Command, args []string) error {
		alert, err := getApp().AlertAdd(cmd.Context(), alertAddFlags.user, alertAddFlags.symbol, alertAddFlags.target, alertAddFlags.direction)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "alert %s created: %s %s %s\n",
			alert.ID, alertAddFlags.symbol, alert.Direction, alert.TargetPrice.String())
		return nil
	},
}

var alertRemoveCmd = &cobra.Command{
	Use:   "remove <alert-id>",
	Short: "Delete an alert by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getApp().AlertRemove(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "alert removed")
		return nil
	},
}

var alertListUser string

var alertListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's standing alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		alerts, err := getApp().AlertList(cmd.Context(), alertListUser)
		if err != nil {
			return err
		}
		if len(alerts) == 0 {
			fmt.Fprintln(os.Stdout, "no alerts")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTOKEN\tDIRECTION\tTARGET\tCREATED")
		for _, alert := range alerts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				alert.ID, alert.TokenSymbol, alert.Direction,
				alert.TargetPrice.String(), alert.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	alertAddCmd.Flags().StringVar(&alertAddFlags.user, "user", "", "Discord user id")
	alertAddCmd.Flags().StringVar(&alertAddFlags.symbol, "symbol", "", "Token symbol")
	alertAddCmd.Flags().StringVar(&alertAddFlags.target, "target", "", "Target price")
	alertAddCmd.Flags().StringVar(&alertAddFlags.direction, "direction", "above", "Trigger direction: above or under")
	_ = alertAddCmd.MarkFlagRequired("user")
	_ = alertAddCmd.MarkFlagRequired("symbol")
	_ = alertAddCmd.MarkFlagRequired("target")

	alertListCmd.Flags().StringVar(&alertListUser, "user", "", "Discord user id")
	_ = alertListCmd.MarkFlagRequired("user")

	alertCmd.AddCommand(alertAddCmd)
	alertCmd.AddCommand(alertRemoveCmd)
	alertCmd.AddCommand(alertListCmd)
}
