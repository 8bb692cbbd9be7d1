package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"memeconomy/internal/ledger"
	"memeconomy/internal/storage"
)

// Mint creates a new token.
func (a *App) Mint(ctx context.Context, symbol, name string, memecoin bool) (storage.Token, error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return storage.Token{}, err
	}
	defer closeStore()

	comps, err := a.buildComponents(store)
	if err != nil {
		return storage.Token{}, err
	}
	return comps.ledger.Mint(ctx, symbol, name, memecoin)
}

// TradeResult pairs a settled trade with the user's remaining holding in the
// traded token.
type TradeResult struct {
	Record  storage.TransactionRecord
	Holding decimal.Decimal
}

// Trade settles a buy or sell for a user.
func (a *App) Trade(ctx context.Context, discordID, symbol, amountStr, side string) (TradeResult, error) {
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return TradeResult{}, fmt.Errorf("%w: %q", ledger.ErrInvalidAmount, amountStr)
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return TradeResult{}, err
	}
	defer closeStore()

	comps, err := a.buildComponents(store)
	if err != nil {
		return TradeResult{}, err
	}

	var record storage.TransactionRecord
	switch strings.ToLower(side) {
	case "buy":
		record, err = comps.ledger.Buy(ctx, discordID, symbol, amount)
	case "sell":
		record, err = comps.ledger.Sell(ctx, discordID, symbol, amount)
	default:
		return TradeResult{}, fmt.Errorf("side must be buy or sell, got %q", side)
	}
	if err != nil {
		return TradeResult{}, err
	}

	remaining := decimal.Zero
	holding, err := store.GetHolding(ctx, discordID, record.TokenID)
	switch {
	case err == nil:
		remaining = holding.Amount
	case errors.Is(err, storage.ErrHoldingNotFound):
		// Sold out entirely; the position row may be gone or zeroed.
	default:
		return TradeResult{}, err
	}
	return TradeResult{Record: record, Holding: remaining}, nil
}

// AlertAdd registers a one-shot price alert.
func (a *App) AlertAdd(ctx context.Context, discordID, symbol, targetStr, direction string) (storage.Alert, error) {
	target, err := decimal.NewFromString(targetStr)
	if err != nil {
		return storage.Alert{}, fmt.Errorf("invalid target price %q", targetStr)
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return storage.Alert{}, err
	}
	defer closeStore()

	comps, err := a.buildComponents(store)
	if err != nil {
		return storage.Alert{}, err
	}
	return comps.evaluator.Create(ctx, discordID, strings.ToUpper(symbol), target, storage.AlertDirection(strings.ToLower(direction)))
}

// AlertRemove deletes an alert by id.
func (a *App) AlertRemove(ctx context.Context, idStr string) error {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid alert id %q", idStr)
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	comps, err := a.buildComponents(store)
	if err != nil {
		return err
	}
	return comps.evaluator.Remove(ctx, id)
}

// AlertList returns a user's standing alerts.
func (a *App) AlertList(ctx context.Context, discordID string) ([]storage.Alert, error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	comps, err := a.buildComponents(store)
	if err != nil {
		return nil, err
	}
	return comps.evaluator.List(ctx, discordID)
}
