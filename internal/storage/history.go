package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// historyTables maps granularities onto fixed table names. Only names from this
// map ever reach SQL.
var historyTables = map[Granularity]string{
	GranularityMinute: "price_history_minute",
	GranularityHourly: "price_history_hourly",
	GranularityDaily:  "price_history_daily",
	GranularityWeekly: "price_history_weekly",
}

func historyTable(g Granularity) (string, error) {
	table, ok := historyTables[g]
	if !ok {
		return "", fmt.Errorf("unknown history granularity %q", g)
	}
	return table, nil
}

// AppendPricePoint appends one sample to the granularity table.
func (s *Store) AppendPricePoint(ctx context.Context, g Granularity, point PriceHistoryPoint) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	table, err := historyTable(g)
	if err != nil {
		return err
	}

	sql := fmt.Sprintf(`INSERT INTO %s (token_id, price, recorded_at)
    VALUES ($1,$2,$3)
    ON CONFLICT (token_id, recorded_at) DO NOTHING;`, table)

	if _, execErr := pool.Exec(ctx, sql, point.TokenID, point.Price.String(), point.RecordedAt); execErr != nil {
		return fmt.Errorf("append %s price point: %w", g, execErr)
	}
	return nil
}

// PruneHistory keeps the keep most recent samples per token in the granularity
// table and deletes everything older, returning the number of rows removed.
func (s *Store) PruneHistory(ctx context.Context, g Granularity, keep int) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	table, err := historyTable(g)
	if err != nil {
		return 0, err
	}
	if keep <= 0 {
		return 0, fmt.Errorf("prune %s: keep must be positive", g)
	}

	sql := fmt.Sprintf(`DELETE FROM %[1]s d
    USING (
        SELECT token_id,
               recorded_at,
               row_number() OVER (PARTITION BY token_id ORDER BY recorded_at DESC) AS rn
        FROM %[1]s
    ) ranked
    WHERE d.token_id = ranked.token_id
      AND d.recorded_at = ranked.recorded_at
      AND ranked.rn > $1;`, table)

	cmdTag, execErr := pool.Exec(ctx, sql, keep)
	if execErr != nil {
		return 0, fmt.Errorf("prune %s history: %w", g, execErr)
	}
	return cmdTag.RowsAffected(), nil
}

// ListHistory lists a token's most recent samples in ascending time order.
func (s *Store) ListHistory(ctx context.Context, tokenID uuid.UUID, g Granularity, limit int) ([]PriceHistoryPoint, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	table, err := historyTable(g)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf(`SELECT token_id, price::text, recorded_at
    FROM (
        SELECT token_id, price, recorded_at
        FROM %s
        WHERE token_id = $1
        ORDER BY recorded_at DESC
        LIMIT $2
    ) recent
    ORDER BY recorded_at;`, table)

	rows, queryErr := pool.Query(ctx, sql, tokenID, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list %s history: %w", g, queryErr)
	}
	defer rows.Close()

	points := make([]PriceHistoryPoint, 0, limit)
	for rows.Next() {
		var (
			point    PriceHistoryPoint
			priceStr string
		)
		if err := rows.Scan(&point.TokenID, &priceStr, &point.RecordedAt); err != nil {
			return nil, err
		}
		price, convErr := decimal.NewFromString(priceStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse history price: %w", convErr)
		}
		point.Price = price
		points = append(points, point)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return points, nil
}
