package sim

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"memeconomy/internal/alerting"
	"memeconomy/internal/config"
	"memeconomy/internal/storage"
)

func TestHTTPActivitySourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "memeconomy-test" {
			t.Errorf("unexpected user agent %q", got)
		}
		_ = json.NewEncoder(w).Encode(ActivitySample{ActiveUsers: 120, MessagesPerMinute: 42.5})
	}))
	defer srv.Close()

	source := NewHTTPActivitySource(config.ActivityConfig{
		URL:            srv.URL,
		RequestTimeout: time.Second,
		UserAgent:      "memeconomy-test",
	})

	sample, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if sample.ActiveUsers != 120 || sample.MessagesPerMinute != 42.5 {
		t.Fatalf("unexpected sample %+v", sample)
	}
}

func TestHTTPActivitySourceRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	source := NewHTTPActivitySource(config.ActivityConfig{URL: srv.URL, RequestTimeout: time.Second})
	if _, err := source.Fetch(context.Background()); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestActivityStrategyDriftsHalfwayToTarget(t *testing.T) {
	strategy := NewActivityStrategy(1.0, 0.05)

	// 50 active users sits exactly at the signal midpoint, so the target is
	// the base price itself and the walk covers half the gap.
	next := strategy.NextPrice(decimal.RequireFromString("0.8"), ActivitySample{ActiveUsers: 50})
	if !next.Equal(decimal.RequireFromString("0.9")) {
		t.Fatalf("got %s, want 0.9", next)
	}
}

func TestActivityStrategySignalBounds(t *testing.T) {
	strategy := NewActivityStrategy(1.0, 0.05)
	base := decimal.NewFromInt(1)

	quiet := strategy.NextPrice(base, ActivitySample{ActiveUsers: 0})
	busy := strategy.NextPrice(base, ActivitySample{ActiveUsers: 100000})

	if !quiet.LessThan(base) {
		t.Fatalf("a dead server must pull the price down, got %s", quiet)
	}
	if !busy.GreaterThan(base) {
		t.Fatalf("a busy server must push the price up, got %s", busy)
	}
	// The target never leaves base*(1 ± weight), so one half-step stays well
	// inside that band.
	if quiet.LessThan(decimal.RequireFromString("0.95")) || busy.GreaterThan(decimal.RequireFromString("1.05")) {
		t.Fatalf("price left the weighted band: quiet=%s busy=%s", quiet, busy)
	}
}

type staticActivity struct {
	sample ActivitySample
}

func (s staticActivity) Fetch(ctx context.Context) (ActivitySample, error) {
	return s.sample, nil
}

func TestStableUpdaterTick(t *testing.T) {
	token := storage.Token{
		ID:           uuid.New(),
		Symbol:       "CRED",
		IsMemecoin:   false,
		PricePerUnit: decimal.RequireFromString("0.8"),
	}
	tokens := newFakeTokenStore(token)
	history := newFakeHistoryStore()
	logger := zerolog.Nop()
	evaluator := alerting.NewEvaluator(newFakeAlertStore(), tokens, newRecordingNotifier(), logger)

	updater := NewStableUpdater(tokens, history, evaluator,
		staticActivity{sample: ActivitySample{ActiveUsers: 50}},
		NewActivityStrategy(1.0, 0.05), "CRED", logger)

	if err := updater.RunTick(context.Background()); err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}

	price, ok := tokens.lastUpdate(token.ID)
	if !ok {
		t.Fatal("expected a persisted stable price")
	}
	if !price.Equal(decimal.RequireFromString("0.9")) {
		t.Fatalf("got %s, want 0.9", price)
	}
	if history.count(storage.GranularityMinute) != 1 {
		t.Fatal("expected one minute sample for the stable token")
	}
}

func TestStableUpdaterSkipsCrashedToken(t *testing.T) {
	crashedAt := time.Now().UTC()
	token := storage.Token{
		ID:           uuid.New(),
		Symbol:       "CRED",
		PricePerUnit: decimal.Zero,
		CrashedAt:    &crashedAt,
	}
	tokens := newFakeTokenStore(token)
	logger := zerolog.Nop()
	evaluator := alerting.NewEvaluator(newFakeAlertStore(), tokens, newRecordingNotifier(), logger)

	updater := NewStableUpdater(tokens, newFakeHistoryStore(), evaluator,
		staticActivity{sample: ActivitySample{ActiveUsers: 50}},
		NewActivityStrategy(1.0, 0.05), "CRED", logger)

	if err := updater.RunTick(context.Background()); err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}
	if _, updated := tokens.lastUpdate(token.ID); updated {
		t.Fatal("crashed stable token must not be updated")
	}
}
