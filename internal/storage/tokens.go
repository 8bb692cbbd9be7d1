package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const (
	insertTokenSQL = `INSERT INTO tokens (
        id,
        symbol,
        name,
        total_supply,
        available_supply,
        price_per_unit,
        is_memecoin,
        crashed_at,
        created_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
    );`

	selectTokenColumns = `SELECT
        id,
        symbol,
        name,
        total_supply::text,
        available_supply::text,
        price_per_unit::text,
        is_memecoin,
        crashed_at,
        created_at
    FROM tokens`

	getTokenSQL         = selectTokenColumns + ` WHERE id = $1;`
	getTokenBySymbolSQL = selectTokenColumns + ` WHERE symbol = $1;`
	listTokensSQL       = selectTokenColumns + ` ORDER BY created_at;`

	listActiveMemecoinsSQL = selectTokenColumns + `
    WHERE is_memecoin
      AND price_per_unit > 0
      AND crashed_at IS NULL
    ORDER BY created_at;`

	updateTokenPriceSQL = `UPDATE tokens
    SET price_per_unit = $2
    WHERE id = $1;`

	markCrashedSQL = `UPDATE tokens
    SET price_per_unit = 0, crashed_at = now()
    WHERE id = $1
      AND crashed_at IS NULL;`

	deleteCrashedBeforeSQL = `DELETE FROM tokens
    WHERE crashed_at IS NOT NULL
      AND crashed_at < $1;`
)

// CreateToken persists a freshly minted token.
func (s *Store) CreateToken(ctx context.Context, token Token) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, insertTokenSQL,
		token.ID,
		token.Symbol,
		token.Name,
		token.TotalSupply.String(),
		token.AvailableSupply.String(),
		token.PricePerUnit.String(),
		token.IsMemecoin,
		token.CrashedAt,
		token.CreatedAt,
	)
	if execErr != nil {
		var pgErr *pgconn.PgError
		if errors.As(execErr, &pgErr) && pgErr.Code == "23505" {
			return ErrSymbolExists
		}
		return fmt.Errorf("insert token: %w", execErr)
	}
	return nil
}

// GetToken fetches a token by id.
func (s *Store) GetToken(ctx context.Context, id uuid.UUID) (Token, error) {
	pool, err := s.getPool()
	if err != nil {
		return Token{}, err
	}
	return scanTokenRow(pool.QueryRow(ctx, getTokenSQL, id))
}

// GetTokenBySymbol fetches a token by its unique symbol.
func (s *Store) GetTokenBySymbol(ctx context.Context, symbol string) (Token, error) {
	pool, err := s.getPool()
	if err != nil {
		return Token{}, err
	}
	return scanTokenRow(pool.QueryRow(ctx, getTokenBySymbolSQL, symbol))
}

// ListTokens lists every token, crashed ones included.
func (s *Store) ListTokens(ctx context.Context) ([]Token, error) {
	return s.queryTokens(ctx, listTokensSQL)
}

// ListActiveMemecoins lists the memecoins eligible for the random-walk tick.
func (s *Store) ListActiveMemecoins(ctx context.Context) ([]Token, error) {
	return s.queryTokens(ctx, listActiveMemecoinsSQL)
}

func (s *Store) queryTokens(ctx context.Context, sql string) ([]Token, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, sql)
	if queryErr != nil {
		return nil, fmt.Errorf("list tokens: %w", queryErr)
	}
	defer rows.Close()

	tokens := make([]Token, 0)
	for rows.Next() {
		token, scanErr := scanTokenRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tokens = append(tokens, token)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return tokens, nil
}

// UpdateTokenPrice persists a new simulated price.
func (s *Store) UpdateTokenPrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	cmdTag, execErr := pool.Exec(ctx, updateTokenPriceSQL, id, price.String())
	if execErr != nil {
		return fmt.Errorf("update token price: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// MarkCrashed atomically performs the crash transition. The crashed_at IS NULL
// guard makes the transition exactly-once under concurrent sub-threshold reads.
func (s *Store) MarkCrashed(ctx context.Context, id uuid.UUID) (bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return false, err
	}
	cmdTag, execErr := pool.Exec(ctx, markCrashedSQL, id)
	if execErr != nil {
		return false, fmt.Errorf("mark token crashed: %w", execErr)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// DeleteCrashedBefore removes tokens that crashed before the cutoff and
// returns the number deleted.
func (s *Store) DeleteCrashedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	cmdTag, execErr := pool.Exec(ctx, deleteCrashedBeforeSQL, cutoff)
	if execErr != nil {
		return 0, fmt.Errorf("delete crashed tokens: %w", execErr)
	}
	return cmdTag.RowsAffected(), nil
}

func scanTokenRow(row pgx.Row) (Token, error) {
	var (
		token        Token
		totalStr     string
		availableStr string
		priceStr     string
	)

	if err := row.Scan(
		&token.ID,
		&token.Symbol,
		&token.Name,
		&totalStr,
		&availableStr,
		&priceStr,
		&token.IsMemecoin,
		&token.CrashedAt,
		&token.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Token{}, ErrTokenNotFound
		}
		return Token{}, fmt.Errorf("scan token: %w", err)
	}

	var convErr error
	if token.TotalSupply, convErr = decimal.NewFromString(totalStr); convErr != nil {
		return Token{}, fmt.Errorf("parse total supply: %w", convErr)
	}
	if token.AvailableSupply, convErr = decimal.NewFromString(availableStr); convErr != nil {
		return Token{}, fmt.Errorf("parse available supply: %w", convErr)
	}
	if token.PricePerUnit, convErr = decimal.NewFromString(priceStr); convErr != nil {
		return Token{}, fmt.Errorf("parse price: %w", convErr)
	}

	return token, nil
}
