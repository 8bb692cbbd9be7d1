package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memeconomy/internal/storage"
)

type stubHoldingStore struct {
	holdings map[string][]storage.UserHolding
	holders  []string
}

func (s *stubHoldingStore) GetHolding(ctx context.Context, discordID string, tokenID uuid.UUID) (storage.UserHolding, error) {
	for _, holding := range s.holdings[discordID] {
		if holding.TokenID == tokenID {
			return holding, nil
		}
	}
	return storage.UserHolding{}, storage.ErrHoldingNotFound
}

func (s *stubHoldingStore) ListHoldings(ctx context.Context, discordID string) ([]storage.UserHolding, error) {
	return s.holdings[discordID], nil
}

func (s *stubHoldingStore) ListHolders(ctx context.Context) ([]string, error) {
	return s.holders, nil
}

type stubTokenLister struct {
	storage.TokenStore
	tokens []storage.Token
}

func (s *stubTokenLister) ListTokens(ctx context.Context) ([]storage.Token, error) {
	return s.tokens, nil
}

type stubSnapshotStore struct {
	snapshots []storage.PortfolioSnapshot
	failFor   string
	deleted   int64
	gotCutoff time.Time
}

func (s *stubSnapshotStore) AppendSnapshot(ctx context.Context, snapshot storage.PortfolioSnapshot) error {
	if s.failFor != "" && snapshot.DiscordID == s.failFor {
		return errors.New("append failed")
	}
	s.snapshots = append(s.snapshots, snapshot)
	return nil
}

func (s *stubSnapshotStore) DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.gotCutoff = cutoff
	return s.deleted, nil
}

func (s *stubSnapshotStore) ListSnapshots(ctx context.Context, discordID string, limit int) ([]storage.PortfolioSnapshot, error) {
	return s.snapshots, nil
}

func TestValueOf(t *testing.T) {
	tokenA := uuid.New()
	tokenB := uuid.New()
	purged := uuid.New()

	holdings := []storage.UserHolding{
		{TokenID: tokenA, Amount: decimal.NewFromInt(10)},
		{TokenID: tokenB, Amount: decimal.NewFromInt(4)},
		{TokenID: purged, Amount: decimal.NewFromInt(999)},
	}
	prices := map[uuid.UUID]decimal.Decimal{
		tokenA: decimal.RequireFromString("2.5"),
		tokenB: decimal.NewFromInt(1),
	}

	total := ValueOf(holdings, prices)
	assert.True(t, total.Equal(decimal.NewFromInt(29)), "got %s, want 29", total)
}

func TestValueOfEmptyHoldings(t *testing.T) {
	total := ValueOf(nil, map[uuid.UUID]decimal.Decimal{})
	assert.True(t, total.Equal(decimal.Zero))
}

func TestValueJoinsHoldingsAgainstPrices(t *testing.T) {
	tokenID := uuid.New()
	holdings := &stubHoldingStore{holdings: map[string][]storage.UserHolding{
		"user-1": {{DiscordID: "user-1", TokenID: tokenID, Amount: decimal.NewFromInt(10)}},
	}}
	tokens := &stubTokenLister{tokens: []storage.Token{
		{ID: tokenID, Symbol: "DOGE", PricePerUnit: decimal.RequireFromString("2.5")},
	}}

	valuator := New(holdings, tokens, &stubSnapshotStore{}, zerolog.Nop())
	value, err := valuator.Value(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, value.Equal(decimal.NewFromInt(25)), "got %s, want 25", value)
}

func TestSnapshotAllIsolatesFailures(t *testing.T) {
	tokenID := uuid.New()
	holdings := &stubHoldingStore{
		holders: []string{"user-1", "user-2"},
		holdings: map[string][]storage.UserHolding{
			"user-1": {{DiscordID: "user-1", TokenID: tokenID, Amount: decimal.NewFromInt(1)}},
			"user-2": {{DiscordID: "user-2", TokenID: tokenID, Amount: decimal.NewFromInt(2)}},
		},
	}
	tokens := &stubTokenLister{tokens: []storage.Token{
		{ID: tokenID, PricePerUnit: decimal.NewFromInt(3)},
	}}
	snapshots := &stubSnapshotStore{failFor: "user-1"}

	valuator := New(holdings, tokens, snapshots, zerolog.Nop())
	snapshotted, failed, err := valuator.SnapshotAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snapshotted)
	assert.Equal(t, 1, failed)
	require.Len(t, snapshots.snapshots, 1)
	assert.Equal(t, "user-2", snapshots.snapshots[0].DiscordID)
	assert.True(t, snapshots.snapshots[0].TotalValue.Equal(decimal.NewFromInt(6)))
}

func TestCleanupCutoff(t *testing.T) {
	snapshots := &stubSnapshotStore{deleted: 7}
	valuator := New(&stubHoldingStore{}, &stubTokenLister{}, snapshots, zerolog.Nop())

	removed, err := valuator.Cleanup(context.Background(), 90)
	require.NoError(t, err)
	assert.Equal(t, int64(7), removed)

	want := time.Now().UTC().AddDate(0, 0, -90)
	assert.WithinDuration(t, want, snapshots.gotCutoff, 5*time.Second)
}

func TestCleanupRejectsNonPositiveDays(t *testing.T) {
	valuator := New(&stubHoldingStore{}, &stubTokenLister{}, &stubSnapshotStore{}, zerolog.Nop())
	_, err := valuator.Cleanup(context.Background(), 0)
	require.Error(t, err)
}
