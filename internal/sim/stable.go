package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"memeconomy/internal/alerting"
	"memeconomy/internal/config"
	"memeconomy/internal/storage"
)

// ActivitySample captures the coarse server-health metrics that drive the
// stable utility token.
type ActivitySample struct {
	ActiveUsers       int     `json:"active_users"`
	MessagesPerMinute float64 `json:"messages_per_minute"`
}

// ActivitySource fetches the current activity metrics.
type ActivitySource interface {
	Fetch(ctx context.Context) (ActivitySample, error)
}

// HTTPActivitySource reads activity metrics from a JSON endpoint.
type HTTPActivitySource struct {
	url       string
	userAgent string
	client    *http.Client
}

// NewHTTPActivitySource constructs an HTTP metrics source.
func NewHTTPActivitySource(cfg config.ActivityConfig) *HTTPActivitySource {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPActivitySource{
		url:       cfg.URL,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves and decodes the activity sample.
func (s *HTTPActivitySource) Fetch(ctx context.Context) (ActivitySample, error) {
	if s.url == "" {
		return ActivitySample{}, fmt.Errorf("activity.url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return ActivitySample{}, fmt.Errorf("create activity request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return ActivitySample{}, fmt.Errorf("fetch activity metrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ActivitySample{}, fmt.Errorf("activity endpoint returned status %d", resp.StatusCode)
	}

	var sample ActivitySample
	if err := json.NewDecoder(resp.Body).Decode(&sample); err != nil {
		return ActivitySample{}, fmt.Errorf("decode activity metrics: %w", err)
	}
	return sample, nil
}

// StableStrategy computes the stable token's next price from activity. The
// exact algorithm is pluggable; implementations must never return a negative
// price.
type StableStrategy interface {
	NextPrice(current decimal.Decimal, sample ActivitySample) decimal.Decimal
}

// ActivityStrategy drifts the price halfway toward a target anchored at the
// configured base and scaled by server activity, bounded to ±weight around
// the base.
type ActivityStrategy struct {
	base   decimal.Decimal
	weight float64
}

// NewActivityStrategy constructs the default stable strategy.
func NewActivityStrategy(basePrice, weight float64) *ActivityStrategy {
	return &ActivityStrategy{base: decimal.NewFromFloat(basePrice), weight: weight}
}

// NextPrice implements StableStrategy.
func (s *ActivityStrategy) NextPrice(current decimal.Decimal, sample ActivitySample) decimal.Decimal {
	load := float64(sample.ActiveUsers)
	if load < 0 {
		load = 0
	}
	// load/(load+50) saturates in [0,1); centered at 0.5 it gives a signed
	// activity signal bounded to ±1.
	signal := (load/(load+50) - 0.5) * 2
	target := s.base.Mul(decimal.NewFromFloat(1 + s.weight*signal))

	next := current.Add(target.Sub(current).Div(decimal.NewFromInt(2)))
	if next.IsNegative() {
		return decimal.Zero
	}
	return next
}

var _ StableStrategy = (*ActivityStrategy)(nil)

// StableUpdater runs the stable utility token's independent schedule.
type StableUpdater struct {
	tokens    storage.TokenStore
	history   storage.HistoryStore
	evaluator *alerting.Evaluator
	source    ActivitySource
	strategy  StableStrategy
	symbol    string
	logger    zerolog.Logger
}

// NewStableUpdater constructs a StableUpdater.
func NewStableUpdater(
	tokens storage.TokenStore,
	history storage.HistoryStore,
	evaluator *alerting.Evaluator,
	source ActivitySource,
	strategy StableStrategy,
	symbol string,
	logger zerolog.Logger,
) *StableUpdater {
	return &StableUpdater{
		tokens:    tokens,
		history:   history,
		evaluator: evaluator,
		source:    source,
		strategy:  strategy,
		symbol:    symbol,
		logger:    logger.With().Str("component", "stable_updater").Logger(),
	}
}

// RunTick updates the stable token price from current server activity.
func (u *StableUpdater) RunTick(ctx context.Context) error {
	sample, err := u.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch activity: %w", err)
	}

	token, err := u.tokens.GetTokenBySymbol(ctx, u.symbol)
	if err != nil {
		return fmt.Errorf("load stable token %s: %w", u.symbol, err)
	}
	if token.Crashed() {
		u.logger.Warn().Str("symbol", token.Symbol).Msg("stable token marked crashed; skipping update")
		return nil
	}

	next := u.strategy.NextPrice(token.PricePerUnit, sample)
	if err := u.tokens.UpdateTokenPrice(ctx, token.ID, next); err != nil {
		return fmt.Errorf("persist stable price: %w", err)
	}

	point := storage.PriceHistoryPoint{TokenID: token.ID, Price: next, RecordedAt: time.Now().UTC()}
	if err := u.history.AppendPricePoint(ctx, storage.GranularityMinute, point); err != nil {
		u.logger.Error().Err(err).Msg("failed to record stable price sample")
	}

	if err := u.evaluator.Evaluate(ctx, token, next); err != nil {
		u.logger.Error().Err(err).Msg("stable alert evaluation failed")
	}

	u.logger.Info().
		Str("symbol", token.Symbol).
		Str("price", next.String()).
		Int("active_users", sample.ActiveUsers).
		Msg("stable token updated")
	return nil
}
