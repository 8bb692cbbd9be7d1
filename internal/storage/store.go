package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TokenStore defines operations for token persistence. Every repository here is
// intentionally narrow; components depend only on the slice they use.
type TokenStore interface {
	CreateToken(ctx context.Context, token Token) error
	GetToken(ctx context.Context, id uuid.UUID) (Token, error)
	GetTokenBySymbol(ctx context.Context, symbol string) (Token, error)
	ListTokens(ctx context.Context) ([]Token, error)
	ListActiveMemecoins(ctx context.Context) ([]Token, error)
	UpdateTokenPrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error
	// MarkCrashed zeroes the price and stamps crashed_at, guarded so only the
	// first caller wins. Returns whether this call performed the transition.
	MarkCrashed(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteCrashedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// TradeParams describes one buy or sell to settle atomically.
type TradeParams struct {
	DiscordID string
	TokenID   uuid.UUID
	Side      TxType
	Amount    decimal.Decimal
	TaxRate   decimal.Decimal
}

// LedgerStore appends ledger entries and settles trades.
type LedgerStore interface {
	AppendRecord(ctx context.Context, record TransactionRecord) error
	// ExecuteTrade performs ledger append, holding mutation, and supply
	// adjustment (plus the tax entry on sells) in a single transaction.
	ExecuteTrade(ctx context.Context, params TradeParams) (TransactionRecord, error)
}

// HoldingStore reads user positions.
type HoldingStore interface {
	GetHolding(ctx context.Context, discordID string, tokenID uuid.UUID) (UserHolding, error)
	ListHoldings(ctx context.Context, discordID string) ([]UserHolding, error)
	ListHolders(ctx context.Context) ([]string, error)
}

// AlertStore manages one-shot price alerts.
type AlertStore interface {
	CreateAlert(ctx context.Context, alert Alert) error
	// DeleteAlert reports whether a row was removed, letting callers detect an
	// alert consumed by a concurrent evaluation.
	DeleteAlert(ctx context.Context, id uuid.UUID) (bool, error)
	ListAlertsBySymbol(ctx context.Context, symbol string) ([]Alert, error)
	ListAlertsByUser(ctx context.Context, discordID string) ([]Alert, error)
}

// HistoryStore appends and prunes price-history samples.
type HistoryStore interface {
	AppendPricePoint(ctx context.Context, g Granularity, point PriceHistoryPoint) error
	// PruneHistory keeps the most recent keep rows per token and deletes the
	// rest, returning the number of rows removed.
	PruneHistory(ctx context.Context, g Granularity, keep int) (int64, error)
	ListHistory(ctx context.Context, tokenID uuid.UUID, g Granularity, limit int) ([]PriceHistoryPoint, error)
}

// PortfolioStore persists portfolio snapshots.
type PortfolioStore interface {
	AppendSnapshot(ctx context.Context, snapshot PortfolioSnapshot) error
	DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	ListSnapshots(ctx context.Context, discordID string, limit int) ([]PortfolioSnapshot, error)
}

// TaxStore reads the running total of collected tax. Accumulation happens
// inside ExecuteTrade's transaction.
type TaxStore interface {
	TotalTax(ctx context.Context) (decimal.Decimal, error)
}

// Store aggregates all repositories over one pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

var (
	_ TokenStore     = (*Store)(nil)
	_ LedgerStore    = (*Store)(nil)
	_ HoldingStore   = (*Store)(nil)
	_ AlertStore     = (*Store)(nil)
	_ HistoryStore   = (*Store)(nil)
	_ PortfolioStore = (*Store)(nil)
	_ TaxStore       = (*Store)(nil)
)
