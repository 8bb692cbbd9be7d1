package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TxType classifies a ledger entry.
type TxType string

const (
	TxBuy  TxType = "buy"
	TxSell TxType = "sell"
	TxMint TxType = "mint"
	TxTax  TxType = "tax"
)

// AlertDirection selects which side of the target price an alert watches.
type AlertDirection string

const (
	AlertAbove AlertDirection = "above"
	AlertUnder AlertDirection = "under"
)

// Granularity names one of the price-history tables.
type Granularity string

const (
	GranularityMinute Granularity = "minute"
	GranularityHourly Granularity = "hourly"
	GranularityDaily  Granularity = "daily"
	GranularityWeekly Granularity = "weekly"
)

// Granularities lists every history table in rollup order.
var Granularities = []Granularity{GranularityMinute, GranularityHourly, GranularityDaily, GranularityWeekly}

// Token is a tradeable asset. CrashedAt is non-nil iff the price was zeroed by
// a crash; only the crash purge job ever deletes a row.
type Token struct {
	ID              uuid.UUID
	Symbol          string
	Name            string
	TotalSupply     decimal.Decimal
	AvailableSupply decimal.Decimal
	PricePerUnit    decimal.Decimal
	IsMemecoin      bool
	CrashedAt       *time.Time
	CreatedAt       time.Time
}

// Crashed reports whether the token has gone through a crash transition.
func (t Token) Crashed() bool {
	return t.CrashedAt != nil
}

// PriceHistoryPoint is one appended price sample.
type PriceHistoryPoint struct {
	TokenID    uuid.UUID
	Price      decimal.Decimal
	RecordedAt time.Time
}

// UserHolding is the mutable projection of a user's position in one token.
type UserHolding struct {
	DiscordID       string
	TokenID         uuid.UUID
	Amount          decimal.Decimal
	PriceAtPurchase decimal.Decimal
}

// TransactionRecord is an append-only ledger entry. DiscordID is nil for
// system-originated entries (mint, tax).
type TransactionRecord struct {
	ID                 uuid.UUID
	DiscordID          *string
	TokenID            uuid.UUID
	Amount             decimal.Decimal
	PriceAtTransaction decimal.Decimal
	Type               TxType
	CreatedAt          time.Time
}

// Alert is a one-shot price threshold watch, deleted the instant it fires.
type Alert struct {
	ID          uuid.UUID
	DiscordID   string
	TokenSymbol string
	TargetPrice decimal.Decimal
	Direction   AlertDirection
	CreatedAt   time.Time
}

// PortfolioSnapshot records a user's total portfolio value at a point in time.
type PortfolioSnapshot struct {
	ID         uuid.UUID
	DiscordID  string
	TotalValue decimal.Decimal
	RecordedAt time.Time
}
