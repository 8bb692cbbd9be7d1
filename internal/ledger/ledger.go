package ledger

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"memeconomy/internal/config"
	"memeconomy/internal/storage"
)

var (
	// ErrInvalidAmount rejects zero or negative trade amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidSymbol rejects malformed token symbols.
	ErrInvalidSymbol = errors.New("symbol must be 2-6 uppercase letters")
	// ErrInvalidName rejects empty token names.
	ErrInvalidName = errors.New("token name is required")
	// ErrMissingUser rejects trades without a discord id.
	ErrMissingUser = errors.New("discord id is required")
)

var symbolRE = regexp.MustCompile(`^[A-Z]{2,6}$`)

// Rand supplies the draws for initial memecoin price and supply.
type Rand interface {
	Float64() float64
}

// Ledger records transactions and settles trades. All holding and supply
// arithmetic happens inside the store's atomic trade unit; this layer only
// validates and delegates.
type Ledger struct {
	tokens  storage.TokenStore
	trades  storage.LedgerStore
	rng     Rand
	simCfg  config.SimConfig
	taxRate decimal.Decimal
	logger  zerolog.Logger
}

// New constructs a Ledger.
func New(tokens storage.TokenStore, trades storage.LedgerStore, rng Rand, simCfg config.SimConfig, taxRate float64, logger zerolog.Logger) *Ledger {
	return &Ledger{
		tokens:  tokens,
		trades:  trades,
		rng:     rng,
		simCfg:  simCfg,
		taxRate: decimal.NewFromFloat(taxRate),
		logger:  logger.With().Str("component", "ledger").Logger(),
	}
}

// Buy purchases amount units of the token for the user.
func (l *Ledger) Buy(ctx context.Context, discordID, symbol string, amount decimal.Decimal) (storage.TransactionRecord, error) {
	return l.trade(ctx, discordID, symbol, amount, storage.TxBuy)
}

// Sell liquidates amount units of the user's holding. A configured share of
// the proceeds is routed into the tax accumulator within the same transaction.
func (l *Ledger) Sell(ctx context.Context, discordID, symbol string, amount decimal.Decimal) (storage.TransactionRecord, error) {
	return l.trade(ctx, discordID, symbol, amount, storage.TxSell)
}

func (l *Ledger) trade(ctx context.Context, discordID, symbol string, amount decimal.Decimal, side storage.TxType) (storage.TransactionRecord, error) {
	if discordID == "" {
		return storage.TransactionRecord{}, ErrMissingUser
	}
	if !amount.IsPositive() {
		return storage.TransactionRecord{}, ErrInvalidAmount
	}

	token, err := l.tokens.GetTokenBySymbol(ctx, strings.ToUpper(symbol))
	if err != nil {
		return storage.TransactionRecord{}, err
	}
	if token.Crashed() {
		return storage.TransactionRecord{}, storage.ErrTokenCrashed
	}

	record, err := l.trades.ExecuteTrade(ctx, storage.TradeParams{
		DiscordID: discordID,
		TokenID:   token.ID,
		Side:      side,
		Amount:    amount,
		TaxRate:   l.taxRate,
	})
	if err != nil {
		return storage.TransactionRecord{}, err
	}

	l.logger.Info().
		Str("discord_id", discordID).
		Str("symbol", token.Symbol).
		Str("side", string(side)).
		Str("amount", amount.String()).
		Str("price", record.PriceAtTransaction.String()).
		Msg("trade settled")
	return record, nil
}

// Mint creates a new token and appends the system mint entry. Memecoins draw
// a random initial price and supply from the configured ranges; the stable
// utility token uses the fixed defaults.
func (l *Ledger) Mint(ctx context.Context, symbol, name string, memecoin bool) (storage.Token, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolRE.MatchString(symbol) {
		return storage.Token{}, ErrInvalidSymbol
	}
	if strings.TrimSpace(name) == "" {
		return storage.Token{}, ErrInvalidName
	}

	var price, supply decimal.Decimal
	if memecoin {
		price = l.drawRange(l.simCfg.InitialPrice)
		supply = l.drawRange(l.simCfg.InitialSupply).Round(0)
	} else {
		price = decimal.NewFromFloat(l.simCfg.StableDefaultPrice)
		supply = decimal.NewFromFloat(l.simCfg.StableDefaultSupply)
	}

	token := storage.Token{
		ID:              uuid.New(),
		Symbol:          symbol,
		Name:            strings.TrimSpace(name),
		TotalSupply:     supply,
		AvailableSupply: supply,
		PricePerUnit:    price,
		IsMemecoin:      memecoin,
		CreatedAt:       time.Now().UTC(),
	}
	if err := l.tokens.CreateToken(ctx, token); err != nil {
		return storage.Token{}, err
	}

	if err := l.RecordSystem(ctx, token.ID, supply, price, storage.TxMint); err != nil {
		// Token exists either way; the missing audit row is worth surfacing.
		return token, fmt.Errorf("append mint record: %w", err)
	}

	l.logger.Info().
		Str("symbol", token.Symbol).
		Bool("memecoin", memecoin).
		Str("initial_price", price.String()).
		Str("supply", supply.String()).
		Msg("token minted")
	return token, nil
}

// RecordSystem appends a system-originated ledger entry with no user attached.
func (l *Ledger) RecordSystem(ctx context.Context, tokenID uuid.UUID, amount, price decimal.Decimal, txType storage.TxType) error {
	record := storage.TransactionRecord{
		ID:                 uuid.New(),
		DiscordID:          nil,
		TokenID:            tokenID,
		Amount:             amount,
		PriceAtTransaction: price,
		Type:               txType,
		CreatedAt:          time.Now().UTC(),
	}
	return l.trades.AppendRecord(ctx, record)
}

func (l *Ledger) drawRange(r config.RangeConfig) decimal.Decimal {
	value := r.Min + l.rng.Float64()*(r.Max-r.Min)
	return decimal.NewFromFloat(value)
}
