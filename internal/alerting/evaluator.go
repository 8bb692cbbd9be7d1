package alerting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"memeconomy/internal/storage"
)

var (
	// ErrInvalidTarget rejects non-positive alert targets.
	ErrInvalidTarget = errors.New("target price must be positive")
	// ErrInvalidDirection rejects directions other than above/under.
	ErrInvalidDirection = errors.New(`direction must be "above" or "under"`)
	// ErrMissingUser rejects alert operations without a discord id.
	ErrMissingUser = errors.New("discord id is required")
)

// Evaluator matches price updates against standing one-shot alerts and
// manages alert registration on behalf of the command layer.
type Evaluator struct {
	alerts   storage.AlertStore
	tokens   storage.TokenStore
	notifier Notifier
	logger   zerolog.Logger
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(alerts storage.AlertStore, tokens storage.TokenStore, notifier Notifier, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		alerts:   alerts,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger.With().Str("component", "alert_evaluator").Logger(),
	}
}

// Evaluate runs every standing alert for the token's symbol against the new
// price. Each match is consumed first and then notified exactly once: a
// delivery failure is logged but the alert is never retained or retried, so a
// repeatedly crossing price cannot cause unbounded redelivery.
func (e *Evaluator) Evaluate(ctx context.Context, token storage.Token, newPrice decimal.Decimal) error {
	alerts, err := e.alerts.ListAlertsBySymbol(ctx, token.Symbol)
	if err != nil {
		return fmt.Errorf("list alerts for %s: %w", token.Symbol, err)
	}

	for _, alert := range alerts {
		if !Matches(alert.Direction, alert.TargetPrice, newPrice) {
			continue
		}

		deleted, err := e.alerts.DeleteAlert(ctx, alert.ID)
		if err != nil {
			e.logger.Error().Err(err).Str("alert_id", alert.ID.String()).Msg("failed to consume alert")
			continue
		}
		if !deleted {
			// Consumed by a concurrent evaluation; the other side notifies.
			continue
		}

		if err := e.notifier.NotifyAlert(ctx, alert.DiscordID, token, alert, newPrice); err != nil {
			e.logger.Error().Err(err).
				Str("alert_id", alert.ID.String()).
				Str("discord_id", alert.DiscordID).
				Msg("alert notification failed; alert already consumed")
		}
	}
	return nil
}

// Matches reports whether a price crosses the alert threshold.
func Matches(direction storage.AlertDirection, target, price decimal.Decimal) bool {
	switch direction {
	case storage.AlertAbove:
		return price.GreaterThanOrEqual(target)
	case storage.AlertUnder:
		return price.LessThanOrEqual(target)
	}
	return false
}

// Create validates and registers a one-shot alert for an existing token.
func (e *Evaluator) Create(ctx context.Context, discordID, symbol string, target decimal.Decimal, direction storage.AlertDirection) (storage.Alert, error) {
	if discordID == "" {
		return storage.Alert{}, ErrMissingUser
	}
	if !target.IsPositive() {
		return storage.Alert{}, ErrInvalidTarget
	}
	if direction != storage.AlertAbove && direction != storage.AlertUnder {
		return storage.Alert{}, ErrInvalidDirection
	}

	token, err := e.tokens.GetTokenBySymbol(ctx, symbol)
	if err != nil {
		return storage.Alert{}, err
	}

	alert := storage.Alert{
		ID:          uuid.New(),
		DiscordID:   discordID,
		TokenSymbol: token.Symbol,
		TargetPrice: target,
		Direction:   direction,
		CreatedAt:   time.Now().UTC(),
	}
	if err := e.alerts.CreateAlert(ctx, alert); err != nil {
		return storage.Alert{}, err
	}
	return alert, nil
}

// Remove deletes an alert on explicit user request.
func (e *Evaluator) Remove(ctx context.Context, id uuid.UUID) error {
	deleted, err := e.alerts.DeleteAlert(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return storage.ErrAlertNotFound
	}
	return nil
}

// List returns a user's standing alerts.
func (e *Evaluator) List(ctx context.Context, discordID string) ([]storage.Alert, error) {
	if discordID == "" {
		return nil, ErrMissingUser
	}
	return e.alerts.ListAlertsByUser(ctx, discordID)
}
