package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"memeconomy/internal/portfolio"
	"memeconomy/internal/storage"
)

// ShowOptions configure the show command.
type ShowOptions struct {
	User  string
	Limit int
}

// Show prints the token board, or one user's portfolio when a user is given.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if opts.User != "" {
		return a.showPortfolio(ctx, store, opts)
	}

	tokens, err := store.ListTokens(ctx)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		fmt.Fprintln(os.Stdout, "no tokens minted")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Symbol\tName\tPrice\tAvailable\tTotal\tMemecoin\tCrashed")
	for _, token := range tokens {
		crashed := ""
		if token.CrashedAt != nil {
			crashed = token.CrashedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
			token.Symbol,
			token.Name,
			formatDecimal(token.PricePerUnit, 6),
			formatDecimal(token.AvailableSupply, 0),
			formatDecimal(token.TotalSupply, 0),
			token.IsMemecoin,
			crashed,
		)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	taxTotal, err := store.TotalTax(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\nTax collected: %s\n", formatDecimal(taxTotal, 4))
	return nil
}

func (a *App) showPortfolio(ctx context.Context, store *storage.Store, opts ShowOptions) error {
	holdings, err := store.ListHoldings(ctx, opts.User)
	if err != nil {
		return err
	}
	if len(holdings) == 0 {
		fmt.Fprintf(os.Stdout, "%s holds no tokens\n", opts.User)
		return nil
	}

	tokens, err := store.ListTokens(ctx)
	if err != nil {
		return err
	}
	symbols := make(map[uuid.UUID]string, len(tokens))
	prices := make(map[uuid.UUID]decimal.Decimal, len(tokens))
	for _, token := range tokens {
		symbols[token.ID] = token.Symbol
		prices[token.ID] = token.PricePerUnit
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Symbol\tAmount\tBought At\tPrice\tValue")
	for _, holding := range holdings {
		price := prices[holding.TokenID]
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
			symbols[holding.TokenID],
			formatDecimal(holding.Amount, 4),
			formatDecimal(holding.PriceAtPurchase, 6),
			formatDecimal(price, 6),
			formatDecimal(holding.Amount.Mul(price), 4),
		)
	}
	fmt.Fprintf(writer, "Total\t\t\t\t%s\n", formatDecimal(portfolio.ValueOf(holdings, prices), 4))
	if err := writer.Flush(); err != nil {
		return err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}
	snapshots, err := store.ListSnapshots(ctx, opts.User, limit)
	if err != nil {
		return err
	}
	if len(snapshots) > 0 {
		fmt.Fprintln(os.Stdout, "\nRecent snapshots:")
		for _, snapshot := range snapshots {
			fmt.Fprintf(os.Stdout, "  %s  %s\n",
				snapshot.RecordedAt.UTC().Format(time.RFC3339),
				formatDecimal(snapshot.TotalValue, 4),
			)
		}
	}
	return nil
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
