package cli

import (
	"github.com/spf13/cobra"

	"memeconomy/internal/app"
)

var showFlags struct {
	user  string
	limit int
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the token board, or one user's portfolio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Show(cmd.Context(), app.ShowOptions{
			User:  showFlags.user,
			Limit: showFlags.limit,
		})
	},
}

func init() {
	showCmd.Flags().StringVar(&showFlags.user, "user", "", "Discord user id to show a portfolio for")
	showCmd.Flags().IntVar(&showFlags.limit, "snapshots", 5, "Number of recent portfolio snapshots to show")
}
