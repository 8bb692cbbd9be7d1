package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	getHoldingSQL = `SELECT
        discord_id,
        token_id,
        amount::text,
        price_at_purchase::text
    FROM user_holdings
    WHERE discord_id = $1
      AND token_id = $2;`

	listHoldingsSQL = `SELECT
        discord_id,
        token_id,
        amount::text,
        price_at_purchase::text
    FROM user_holdings
    WHERE discord_id = $1
      AND amount > 0
    ORDER BY token_id;`

	listHoldersSQL = `SELECT DISTINCT discord_id
    FROM user_holdings
    WHERE amount > 0
    ORDER BY discord_id;`
)

// GetHolding fetches one user's position in one token.
func (s *Store) GetHolding(ctx context.Context, discordID string, tokenID uuid.UUID) (UserHolding, error) {
	pool, err := s.getPool()
	if err != nil {
		return UserHolding{}, err
	}
	holding, scanErr := scanHolding(pool.QueryRow(ctx, getHoldingSQL, discordID, tokenID))
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return UserHolding{}, ErrHoldingNotFound
		}
		return UserHolding{}, scanErr
	}
	return holding, nil
}

// ListHoldings lists a user's positive positions.
func (s *Store) ListHoldings(ctx context.Context, discordID string) ([]UserHolding, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listHoldingsSQL, discordID)
	if queryErr != nil {
		return nil, fmt.Errorf("list holdings: %w", queryErr)
	}
	defer rows.Close()

	holdings := make([]UserHolding, 0)
	for rows.Next() {
		holding, scanErr := scanHolding(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		holdings = append(holdings, holding)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return holdings, nil
}

// ListHolders lists every discord id with at least one positive holding.
func (s *Store) ListHolders(ctx context.Context) ([]string, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listHoldersSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list holders: %w", queryErr)
	}
	defer rows.Close()

	holders := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		holders = append(holders, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return holders, nil
}

func scanHolding(row pgx.Row) (UserHolding, error) {
	var (
		holding   UserHolding
		amountStr string
		priceStr  string
	)
	if err := row.Scan(&holding.DiscordID, &holding.TokenID, &amountStr, &priceStr); err != nil {
		return UserHolding{}, err
	}

	var convErr error
	if holding.Amount, convErr = decimal.NewFromString(amountStr); convErr != nil {
		return UserHolding{}, fmt.Errorf("parse holding amount: %w", convErr)
	}
	if holding.PriceAtPurchase, convErr = decimal.NewFromString(priceStr); convErr != nil {
		return UserHolding{}, fmt.Errorf("parse purchase price: %w", convErr)
	}
	return holding, nil
}
