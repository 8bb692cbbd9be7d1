package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	insertAlertSQL = `INSERT INTO alerts (
        id,
        discord_id,
        token_symbol,
        target_price,
        direction,
        created_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    );`

	deleteAlertSQL = `DELETE FROM alerts WHERE id = $1;`

	listAlertsBySymbolSQL = `SELECT
        id,
        discord_id,
        token_symbol,
        target_price::text,
        direction,
        created_at
    FROM alerts
    WHERE token_symbol = $1
    ORDER BY created_at;`

	listAlertsByUserSQL = `SELECT
        id,
        discord_id,
        token_symbol,
        target_price::text,
        direction,
        created_at
    FROM alerts
    WHERE discord_id = $1
    ORDER BY created_at;`
)

// CreateAlert registers a one-shot price alert.
func (s *Store) CreateAlert(ctx context.Context, alert Alert) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, insertAlertSQL,
		alert.ID,
		alert.DiscordID,
		alert.TokenSymbol,
		alert.TargetPrice.String(),
		string(alert.Direction),
		alert.CreatedAt,
	); execErr != nil {
		return fmt.Errorf("insert alert: %w", execErr)
	}
	return nil
}

// DeleteAlert removes an alert, reporting whether a row existed. Concurrent
// evaluators racing on the same alert see exactly one true result.
func (s *Store) DeleteAlert(ctx context.Context, id uuid.UUID) (bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return false, err
	}
	cmdTag, execErr := pool.Exec(ctx, deleteAlertSQL, id)
	if execErr != nil {
		return false, fmt.Errorf("delete alert: %w", execErr)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// ListAlertsBySymbol lists standing alerts watching a token symbol.
func (s *Store) ListAlertsBySymbol(ctx context.Context, symbol string) ([]Alert, error) {
	return s.queryAlerts(ctx, listAlertsBySymbolSQL, symbol)
}

// ListAlertsByUser lists a user's standing alerts.
func (s *Store) ListAlertsByUser(ctx context.Context, discordID string) ([]Alert, error) {
	return s.queryAlerts(ctx, listAlertsByUserSQL, discordID)
}

func (s *Store) queryAlerts(ctx context.Context, sql string, arg any) ([]Alert, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, sql, arg)
	if queryErr != nil {
		return nil, fmt.Errorf("list alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]Alert, 0)
	for rows.Next() {
		alert, scanErr := scanAlert(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		alerts = append(alerts, alert)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

func scanAlert(row pgx.Row) (Alert, error) {
	var (
		alert     Alert
		targetStr string
		direction string
	)
	if err := row.Scan(
		&alert.ID,
		&alert.DiscordID,
		&alert.TokenSymbol,
		&targetStr,
		&direction,
		&alert.CreatedAt,
	); err != nil {
		return Alert{}, fmt.Errorf("scan alert: %w", err)
	}

	target, convErr := decimal.NewFromString(targetStr)
	if convErr != nil {
		return Alert{}, fmt.Errorf("parse target price: %w", convErr)
	}
	alert.TargetPrice = target
	alert.Direction = AlertDirection(direction)
	return alert, nil
}
