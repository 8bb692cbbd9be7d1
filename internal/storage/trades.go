package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	insertTransactionSQL = `INSERT INTO transactions (
        id,
        discord_id,
        token_id,
        amount,
        price_at_transaction,
        type,
        created_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    );`

	lockTokenForTradeSQL = `SELECT
        price_per_unit::text,
        available_supply::text,
        crashed_at
    FROM tokens
    WHERE id = $1
    FOR UPDATE;`

	lockHoldingSQL = `SELECT amount::text
    FROM user_holdings
    WHERE discord_id = $1
      AND token_id = $2
    FOR UPDATE;`

	upsertHoldingSQL = `INSERT INTO user_holdings (discord_id, token_id, amount, price_at_purchase)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (discord_id, token_id) DO UPDATE
    SET amount            = user_holdings.amount + EXCLUDED.amount,
        price_at_purchase = EXCLUDED.price_at_purchase;`

	decrementHoldingSQL = `UPDATE user_holdings
    SET amount = amount - $3
    WHERE discord_id = $1
      AND token_id = $2;`

	adjustSupplySQL = `UPDATE tokens
    SET available_supply = available_supply + $2
    WHERE id = $1;`

	addTaxSQL = `INSERT INTO crypto_tax (id, total_collected)
    VALUES (1, $1)
    ON CONFLICT (id) DO UPDATE
    SET total_collected = crypto_tax.total_collected + EXCLUDED.total_collected;`

	totalTaxSQL = `SELECT COALESCE(total_collected, 0)::text FROM crypto_tax WHERE id = 1;`
)

// AppendRecord appends a single ledger entry outside of a trade (mint,
// system adjustments).
func (s *Store) AppendRecord(ctx context.Context, record TransactionRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, insertTransactionSQL,
		record.ID,
		record.DiscordID,
		record.TokenID,
		record.Amount.String(),
		record.PriceAtTransaction.String(),
		string(record.Type),
		record.CreatedAt,
	); execErr != nil {
		return fmt.Errorf("append ledger record: %w", execErr)
	}
	return nil
}

// ExecuteTrade settles one buy or sell as a single transaction: ledger append,
// holding mutation, and available-supply adjustment move together or not at
// all. Row locks on the token and holding serialize concurrent trades against
// the same (discord_id, token_id) pair.
func (s *Store) ExecuteTrade(ctx context.Context, params TradeParams) (TransactionRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return TransactionRecord{}, err
	}
	if params.Side != TxBuy && params.Side != TxSell {
		return TransactionRecord{}, fmt.Errorf("unsupported trade side %q", params.Side)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("begin trade tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		priceStr     string
		availableStr string
		crashedAt    *time.Time
	)
	if err := tx.QueryRow(ctx, lockTokenForTradeSQL, params.TokenID).Scan(&priceStr, &availableStr, &crashedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TransactionRecord{}, ErrTokenNotFound
		}
		return TransactionRecord{}, fmt.Errorf("lock token: %w", err)
	}
	if crashedAt != nil {
		return TransactionRecord{}, ErrTokenCrashed
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("parse price: %w", err)
	}
	available, err := decimal.NewFromString(availableStr)
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("parse available supply: %w", err)
	}

	switch params.Side {
	case TxBuy:
		if available.LessThan(params.Amount) {
			return TransactionRecord{}, ErrInsufficientSupply
		}
		if err := settleBuy(ctx, tx, params, price); err != nil {
			return TransactionRecord{}, err
		}
	case TxSell:
		if err := settleSell(ctx, tx, params, price); err != nil {
			return TransactionRecord{}, err
		}
	}

	record := TransactionRecord{
		ID:                 uuid.New(),
		DiscordID:          &params.DiscordID,
		TokenID:            params.TokenID,
		Amount:             params.Amount,
		PriceAtTransaction: price,
		Type:               params.Side,
		CreatedAt:          time.Now().UTC(),
	}
	if _, err := tx.Exec(ctx, insertTransactionSQL,
		record.ID,
		record.DiscordID,
		record.TokenID,
		record.Amount.String(),
		record.PriceAtTransaction.String(),
		string(record.Type),
		record.CreatedAt,
	); err != nil {
		return TransactionRecord{}, fmt.Errorf("append trade record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return TransactionRecord{}, fmt.Errorf("commit trade: %w", err)
	}
	return record, nil
}

func settleBuy(ctx context.Context, tx pgx.Tx, params TradeParams, price decimal.Decimal) error {
	if _, err := tx.Exec(ctx, upsertHoldingSQL,
		params.DiscordID,
		params.TokenID,
		params.Amount.String(),
		price.String(),
	); err != nil {
		return fmt.Errorf("upsert holding: %w", err)
	}
	if _, err := tx.Exec(ctx, adjustSupplySQL, params.TokenID, params.Amount.Neg().String()); err != nil {
		return fmt.Errorf("decrement supply: %w", err)
	}
	return nil
}

func settleSell(ctx context.Context, tx pgx.Tx, params TradeParams, price decimal.Decimal) error {
	var heldStr string
	if err := tx.QueryRow(ctx, lockHoldingSQL, params.DiscordID, params.TokenID).Scan(&heldStr); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInsufficientHolding
		}
		return fmt.Errorf("lock holding: %w", err)
	}
	held, err := decimal.NewFromString(heldStr)
	if err != nil {
		return fmt.Errorf("parse holding amount: %w", err)
	}
	if held.LessThan(params.Amount) {
		return ErrInsufficientHolding
	}

	if _, err := tx.Exec(ctx, decrementHoldingSQL, params.DiscordID, params.TokenID, params.Amount.String()); err != nil {
		return fmt.Errorf("decrement holding: %w", err)
	}
	if _, err := tx.Exec(ctx, adjustSupplySQL, params.TokenID, params.Amount.String()); err != nil {
		return fmt.Errorf("increment supply: %w", err)
	}

	if params.TaxRate.IsPositive() {
		taxAmount := params.Amount.Mul(price).Mul(params.TaxRate)
		if taxAmount.IsPositive() {
			if _, err := tx.Exec(ctx, insertTransactionSQL,
				uuid.New(),
				nil,
				params.TokenID,
				taxAmount.String(),
				price.String(),
				string(TxTax),
				time.Now().UTC(),
			); err != nil {
				return fmt.Errorf("append tax record: %w", err)
			}
			if _, err := tx.Exec(ctx, addTaxSQL, taxAmount.String()); err != nil {
				return fmt.Errorf("accumulate tax: %w", err)
			}
		}
	}
	return nil
}

// TotalTax reads the running tax accumulator.
func (s *Store) TotalTax(ctx context.Context) (decimal.Decimal, error) {
	pool, err := s.getPool()
	if err != nil {
		return decimal.Zero, err
	}
	var totalStr string
	if scanErr := pool.QueryRow(ctx, totalTaxSQL).Scan(&totalStr); scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("read tax total: %w", scanErr)
	}
	total, convErr := decimal.NewFromString(totalStr)
	if convErr != nil {
		return decimal.Zero, fmt.Errorf("parse tax total: %w", convErr)
	}
	return total, nil
}
