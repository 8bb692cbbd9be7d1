package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memeconomy/internal/config"
	"memeconomy/internal/storage"
)

type stubTokenStore struct {
	storage.TokenStore
	token   storage.Token
	err     error
	created []storage.Token
}

func (s *stubTokenStore) GetTokenBySymbol(ctx context.Context, symbol string) (storage.Token, error) {
	if s.err != nil {
		return storage.Token{}, s.err
	}
	return s.token, nil
}

func (s *stubTokenStore) CreateToken(ctx context.Context, token storage.Token) error {
	s.created = append(s.created, token)
	return nil
}

type stubLedgerStore struct {
	records []storage.TransactionRecord
	trades  []storage.TradeParams
}

func (s *stubLedgerStore) AppendRecord(ctx context.Context, record storage.TransactionRecord) error {
	s.records = append(s.records, record)
	return nil
}

func (s *stubLedgerStore) ExecuteTrade(ctx context.Context, params storage.TradeParams) (storage.TransactionRecord, error) {
	s.trades = append(s.trades, params)
	return storage.TransactionRecord{
		ID:                 uuid.New(),
		DiscordID:          &params.DiscordID,
		TokenID:            params.TokenID,
		Amount:             params.Amount,
		PriceAtTransaction: decimal.NewFromInt(2),
		Type:               params.Side,
		CreatedAt:          time.Now().UTC(),
	}, nil
}

type fixedRand struct {
	value float64
}

func (r fixedRand) Float64() float64 {
	return r.value
}

func testSimConfig() config.SimConfig {
	return config.SimConfig{
		InitialPrice:        config.RangeConfig{Min: 0.01, Max: 10.0},
		InitialSupply:       config.RangeConfig{Min: 1_000_000, Max: 1_000_000_000},
		StableDefaultPrice:  1.0,
		StableDefaultSupply: 1_000_000_000,
	}
}

func newTestLedger(tokens *stubTokenStore, trades *stubLedgerStore, rng Rand) *Ledger {
	return New(tokens, trades, rng, testSimConfig(), 0.03, zerolog.Nop())
}

func TestTradeValidation(t *testing.T) {
	ledger := newTestLedger(&stubTokenStore{}, &stubLedgerStore{}, fixedRand{})
	ctx := context.Background()

	_, err := ledger.Buy(ctx, "", "DOGE", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrMissingUser)

	_, err = ledger.Buy(ctx, "user-1", "DOGE", decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ledger.Sell(ctx, "user-1", "DOGE", decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestTradeRejectsCrashedToken(t *testing.T) {
	crashedAt := time.Now().UTC()
	tokens := &stubTokenStore{token: storage.Token{
		ID:        uuid.New(),
		Symbol:    "RUG",
		CrashedAt: &crashedAt,
	}}
	ledger := newTestLedger(tokens, &stubLedgerStore{}, fixedRand{})

	_, err := ledger.Buy(context.Background(), "user-1", "RUG", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, storage.ErrTokenCrashed)
}

func TestBuyDelegatesToAtomicTrade(t *testing.T) {
	tokenID := uuid.New()
	tokens := &stubTokenStore{token: storage.Token{ID: tokenID, Symbol: "DOGE"}}
	trades := &stubLedgerStore{}
	ledger := newTestLedger(tokens, trades, fixedRand{})

	record, err := ledger.Buy(context.Background(), "user-1", "doge", decimal.NewFromInt(10))
	require.NoError(t, err)

	require.Len(t, trades.trades, 1)
	params := trades.trades[0]
	assert.Equal(t, tokenID, params.TokenID)
	assert.Equal(t, storage.TxBuy, params.Side)
	assert.True(t, params.Amount.Equal(decimal.NewFromInt(10)))
	assert.True(t, params.TaxRate.Equal(decimal.RequireFromString("0.03")))
	assert.Equal(t, storage.TxBuy, record.Type)
}

func TestSellCarriesTaxRate(t *testing.T) {
	tokens := &stubTokenStore{token: storage.Token{ID: uuid.New(), Symbol: "DOGE"}}
	trades := &stubLedgerStore{}
	ledger := newTestLedger(tokens, trades, fixedRand{})

	_, err := ledger.Sell(context.Background(), "user-1", "DOGE", decimal.NewFromInt(3))
	require.NoError(t, err)
	require.Len(t, trades.trades, 1)
	assert.Equal(t, storage.TxSell, trades.trades[0].Side)
	assert.True(t, trades.trades[0].TaxRate.Equal(decimal.RequireFromString("0.03")))
}

func TestMintValidation(t *testing.T) {
	ledger := newTestLedger(&stubTokenStore{}, &stubLedgerStore{}, fixedRand{})
	ctx := context.Background()

	_, err := ledger.Mint(ctx, "A", "Too Short", true)
	assert.ErrorIs(t, err, ErrInvalidSymbol)

	_, err = ledger.Mint(ctx, "TOOLONGX", "Too Long", true)
	assert.ErrorIs(t, err, ErrInvalidSymbol)

	_, err = ledger.Mint(ctx, "AB1", "Digits", true)
	assert.ErrorIs(t, err, ErrInvalidSymbol)

	_, err = ledger.Mint(ctx, "DOGE", "  ", true)
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestMintMemecoinDrawsFromRanges(t *testing.T) {
	tokens := &stubTokenStore{}
	trades := &stubLedgerStore{}
	// A midpoint draw lands price and supply exactly halfway into the ranges.
	ledger := newTestLedger(tokens, trades, fixedRand{value: 0.5})

	token, err := ledger.Mint(context.Background(), "doge ", "Dogecoin", true)
	require.NoError(t, err)

	assert.Equal(t, "DOGE", token.Symbol)
	assert.True(t, token.IsMemecoin)
	assert.True(t, token.PricePerUnit.Equal(decimal.RequireFromString("5.005")), "got %s", token.PricePerUnit)
	assert.True(t, token.TotalSupply.Equal(decimal.NewFromInt(500_500_000)), "got %s", token.TotalSupply)
	assert.True(t, token.AvailableSupply.Equal(token.TotalSupply))

	require.Len(t, trades.records, 1)
	record := trades.records[0]
	assert.Equal(t, storage.TxMint, record.Type)
	assert.Nil(t, record.DiscordID)
	assert.True(t, record.Amount.Equal(token.TotalSupply))
}

func TestRecordSystemAppendsUnattributedEntry(t *testing.T) {
	trades := &stubLedgerStore{}
	ledger := newTestLedger(&stubTokenStore{}, trades, fixedRand{})
	tokenID := uuid.New()

	err := ledger.RecordSystem(context.Background(), tokenID, decimal.NewFromInt(100), decimal.NewFromInt(1), storage.TxMint)
	require.NoError(t, err)

	require.Len(t, trades.records, 1)
	record := trades.records[0]
	assert.Nil(t, record.DiscordID)
	assert.Equal(t, tokenID, record.TokenID)
	assert.Equal(t, storage.TxMint, record.Type)
	assert.True(t, record.Amount.Equal(decimal.NewFromInt(100)))
	assert.False(t, record.CreatedAt.IsZero())
}

func TestMintStableUsesDefaults(t *testing.T) {
	tokens := &stubTokenStore{}
	ledger := newTestLedger(tokens, &stubLedgerStore{}, fixedRand{value: 0.99})

	token, err := ledger.Mint(context.Background(), "CRED", "Server Credits", false)
	require.NoError(t, err)
	assert.False(t, token.IsMemecoin)
	assert.True(t, token.PricePerUnit.Equal(decimal.NewFromInt(1)))
	assert.True(t, token.TotalSupply.Equal(decimal.NewFromInt(1_000_000_000)))
}
