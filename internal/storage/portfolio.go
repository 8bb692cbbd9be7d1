package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	insertSnapshotSQL = `INSERT INTO portfolio_snapshots (
        id,
        discord_id,
        total_value,
        recorded_at
    ) VALUES (
        $1,$2,$3,$4
    );`

	deleteSnapshotsBeforeSQL = `DELETE FROM portfolio_snapshots WHERE recorded_at < $1;`

	listSnapshotsSQL = `SELECT
        id,
        discord_id,
        total_value::text,
        recorded_at
    FROM portfolio_snapshots
    WHERE discord_id = $1
    ORDER BY recorded_at DESC
    LIMIT $2;`
)

// AppendSnapshot records a portfolio valuation.
func (s *Store) AppendSnapshot(ctx context.Context, snapshot PortfolioSnapshot) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, insertSnapshotSQL,
		snapshot.ID,
		snapshot.DiscordID,
		snapshot.TotalValue.String(),
		snapshot.RecordedAt,
	); execErr != nil {
		return fmt.Errorf("insert snapshot: %w", execErr)
	}
	return nil
}

// DeleteSnapshotsBefore prunes snapshots older than the cutoff.
func (s *Store) DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	cmdTag, execErr := pool.Exec(ctx, deleteSnapshotsBeforeSQL, cutoff)
	if execErr != nil {
		return 0, fmt.Errorf("delete snapshots: %w", execErr)
	}
	return cmdTag.RowsAffected(), nil
}

// ListSnapshots lists a user's most recent snapshots.
func (s *Store) ListSnapshots(ctx context.Context, discordID string, limit int) ([]PortfolioSnapshot, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSnapshotsSQL, discordID, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list snapshots: %w", queryErr)
	}
	defer rows.Close()

	snapshots := make([]PortfolioSnapshot, 0, limit)
	for rows.Next() {
		var (
			snapshot PortfolioSnapshot
			valueStr string
		)
		if err := rows.Scan(&snapshot.ID, &snapshot.DiscordID, &valueStr, &snapshot.RecordedAt); err != nil {
			return nil, err
		}
		value, convErr := decimal.NewFromString(valueStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse snapshot value: %w", convErr)
		}
		snapshot.TotalValue = value
		snapshots = append(snapshots, snapshot)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return snapshots, nil
}
